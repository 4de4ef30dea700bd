package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// splitHandler sends ERROR records to one handler and everything at or above
// the configured level to the other.
type splitHandler struct {
	level  slog.Leveler
	info   slog.Handler
	errors slog.Handler
}

func (h *splitHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.errors.Handle(ctx, r)
	}
	return h.info.Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{level: h.level, info: h.info.WithAttrs(attrs), errors: h.errors.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{level: h.level, info: h.info.WithGroup(name), errors: h.errors.WithGroup(name)}
}

// newSplitHandler writes text records to out and errOut, tagging each with
// the service name.
func newSplitHandler(out, errOut io.Writer, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	h := &splitHandler{
		level:  level,
		info:   slog.NewTextHandler(out, opts),
		errors: slog.NewTextHandler(errOut, opts),
	}
	return h.WithAttrs([]slog.Attr{slog.String("service", "stockroom")})
}

// setupLogger installs the default logger. With a logPath every record is
// also appended to that file, and the returned func closes it.
func setupLogger(logPath string, level slog.Level) (func(), error) {
	out, errOut := io.Writer(os.Stdout), io.Writer(os.Stderr)
	closeLog := func() {}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out, errOut = io.MultiWriter(out, f), io.MultiWriter(errOut, f)
		closeLog = func() { f.Close() }
	}

	slog.SetDefault(slog.New(newSplitHandler(out, errOut, level)))
	return closeLog, nil
}
