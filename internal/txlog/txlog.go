// Package txlog keeps the append-only history of stock-affecting operations.
package txlog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/snapshot"
	"github.com/nvaprinting/stockroom/internal/worker"
)

// Primary is the relational mirror of the log.
type Primary interface {
	InsertTransaction(ctx context.Context, tx model.Transaction) error
}

// Log is the transaction history. Appends are visible immediately; the
// relational insert and the file save run in call order on a single worker.
type Log struct {
	primary Primary
	file    *snapshot.File[model.Transaction]
	queue   *worker.Queue
	log     *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	records []model.Transaction
}

// Option configures a Log.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	now       func() time.Time
	queueSize int
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock sets the time source for new records.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithQueueSize bounds the background queue.
func WithQueueSize(n int) Option { return func(o *options) { o.queueSize = n } }

// New creates a transaction log persisted to path.
func New(primary Primary, path string, opts ...Option) *Log {
	o := options{logger: slog.Default(), now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "txlog")
	return &Log{
		primary: primary,
		file:    snapshot.New[model.Transaction](path),
		queue:   worker.New("txlog", o.queueSize, logger),
		log:     logger,
		now:     o.now,
	}
}

// Load replaces the in-memory history with the file contents. A missing file
// leaves the log empty; a corrupt one is logged and also leaves it empty.
func (l *Log) Load() error {
	records, err := l.file.Load()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		l.log.Error("failed to load transaction history", "path", l.file.Path(), "error", err)
		return err
	}

	l.mu.Lock()
	l.records = records
	l.mu.Unlock()
	l.log.Info("transaction history loaded", "records", len(records))
	return nil
}

// Log appends a record without a price.
func (l *Log) Log(ctx context.Context, itemName, txType string, quantity int, user string) model.Transaction {
	return l.LogPriced(ctx, itemName, txType, quantity, user, 0)
}

// LogPriced appends a record and schedules its persistence.
func (l *Log) LogPriced(_ context.Context, itemName, txType string, quantity int, user string, unitPrice float64) model.Transaction {
	rec := model.Transaction{
		Date:      l.now(),
		ItemName:  itemName,
		Type:      txType,
		Quantity:  quantity,
		User:      user,
		UnitPrice: unitPrice,
	}
	if unitPrice > 0 && quantity > 0 {
		rec.TotalPrice = unitPrice * float64(quantity)
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()

	l.queue.Submit(func(ctx context.Context) {
		if err := l.primary.InsertTransaction(ctx, rec); err != nil {
			l.log.Warn("transaction not written to database", "type", rec.Type, "item", rec.ItemName, "error", err)
		}
	})
	l.queue.Submit(func(context.Context) {
		if err := l.save(); err != nil {
			l.log.Error("failed to save transaction history", "error", err)
		}
	})
	return rec
}

// Records returns a copy of the history in append order.
func (l *Log) Records() []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Transaction(nil), l.records...)
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Filter selects records. Zero fields match everything; string fields match
// case-insensitively, User against the bare user name.
type Filter struct {
	Type     string
	ItemName string
	User     string
	From     time.Time
	To       time.Time
}

func (f Filter) match(r model.Transaction) bool {
	if f.Type != "" && !strings.EqualFold(f.Type, r.Type) {
		return false
	}
	if f.ItemName != "" && !strings.Contains(strings.ToLower(r.ItemName), strings.ToLower(f.ItemName)) {
		return false
	}
	if f.User != "" && !strings.EqualFold(f.User, model.CleanUser(r.User)) {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	return true
}

// Query returns the records matching f in append order.
func (l *Log) Query(f Filter) []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Transaction
	for _, r := range l.records {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SalesSummary totals SALE records by payment method.
func (l *Log) SalesSummary(f Filter) model.SalesSummary {
	f.Type = model.TxSale
	sum := model.SalesSummary{ByMethod: map[string]float64{}}
	for _, r := range l.Query(f) {
		sum.Count++
		sum.Total += r.TotalPrice
		sum.ByMethod[model.PaymentMethodOf(r.User)] += r.TotalPrice
	}
	return sum
}

// Clear empties the history and saves the empty file before returning.
func (l *Log) Clear() error {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()

	if err := l.save(); err != nil {
		l.log.Error("failed to save cleared transaction history", "error", err)
		return err
	}
	l.log.Info("transaction history cleared")
	return nil
}

// Flush waits for every scheduled write to finish.
func (l *Log) Flush(ctx context.Context) error {
	return l.queue.Flush(ctx)
}

// Shutdown runs the queued database inserts, stops the queue and writes the
// full history to disk. It is the only synchronous drain point. Inserts still
// queued when ctx ends are dropped.
func (l *Log) Shutdown(ctx context.Context) error {
	ferr := l.queue.Flush(ctx)
	if errors.Is(ferr, worker.ErrClosed) {
		ferr = nil
	}
	dropped, qerr := l.queue.Shutdown(ctx)
	qerr = errors.Join(ferr, qerr)
	if err := l.save(); err != nil {
		l.log.Error("failed to save transaction history on shutdown", "error", err)
		return errors.Join(qerr, err)
	}
	l.log.Info("transaction history saved", "records", l.Len(), "dropped_jobs", dropped)
	return qerr
}

func (l *Log) save() error {
	return l.file.Save(l.Records())
}
