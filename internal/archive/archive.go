// Package archive records stock removed from the active inventory.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/snapshot"
	"github.com/nvaprinting/stockroom/internal/worker"
)

// Primary is the relational mirror of the archive.
type Primary interface {
	InsertArchive(ctx context.Context, rec model.ArchiveRecord) error
}

// ErrNotFound is returned for an unknown record id.
var ErrNotFound = errors.New("archive record not found")

// ErrAlreadyRestored is returned when a record was already returned to stock.
var ErrAlreadyRestored = errors.New("archive record already restored")

// Log is the archive. Records are kept in memory for queries and mirrored to
// the relational store and a local file in the background.
type Log struct {
	primary Primary
	file    *snapshot.File[model.ArchiveRecord]
	queue   *worker.Queue
	log     *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	records []model.ArchiveRecord
	nextID  int64
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

// New creates an archive persisted to path.
func New(primary Primary, path string, opts ...Option) *Log {
	o := options{logger: slog.Default(), now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "archive")
	return &Log{
		primary: primary,
		file:    snapshot.New[model.ArchiveRecord](path),
		queue:   worker.New("archive", o.queueSize, logger),
		log:     logger,
		now:     o.now,
		nextID:  1,
	}
}

// Load reads the archive file, falling back to its backup.
func (l *Log) Load() error {
	records, err := l.file.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		l.log.Error("failed to load archive, trying backup", "error", err)
	}
	if err != nil {
		var berr error
		records, berr = l.file.LoadBackup()
		if errors.Is(berr, os.ErrNotExist) && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if berr != nil {
			l.log.Error("failed to load archive backup", "error", berr)
			return errors.Join(err, berr)
		}
		l.log.Warn("archive restored from backup", "records", len(records))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	l.nextID = 1
	for _, r := range records {
		if r.ID >= l.nextID {
			l.nextID = r.ID + 1
		}
	}
	l.log.Info("archive loaded", "records", len(records))
	return nil
}

// ArchiveItemUsage snapshots item into a new record for quantity units and
// schedules its persistence. The record is visible to queries on return.
func (l *Log) ArchiveItemUsage(_ context.Context, item model.Item, quantity int, usedBy, reason, recordType string) model.ArchiveRecord {
	l.mu.Lock()
	rec := model.ArchiveRecord{
		ID:               l.nextID,
		ItemID:           item.ID,
		OriginalItemName: item.Name,
		Category:         item.Category,
		Type:             recordType,
		QuantityUsed:     quantity,
		UnitPrice:        item.UnitPrice,
		Supplier:         item.Supplier,
		DateUsed:         l.now(),
		UsedBy:           usedBy,
		Reason:           reason,
	}
	l.nextID++
	l.records = append(l.records, rec)
	l.mu.Unlock()

	l.queue.Submit(func(ctx context.Context) {
		if err := l.primary.InsertArchive(ctx, rec); err != nil {
			l.log.Warn("archive record not written to database", "item", rec.OriginalItemName, "error", err)
		}
		if err := l.Save(); err != nil {
			l.log.Error("failed to save archive", "error", err)
		}
	})
	return rec
}

// Record returns a record by id.
func (l *Log) Record(id int64) (model.ArchiveRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.records {
		if r.ID == id {
			return r, true
		}
	}
	return model.ArchiveRecord{}, false
}

// MarkRestored flags a record as returned to stock and returns it. The
// archived fields themselves never change.
func (l *Log) MarkRestored(id int64) (model.ArchiveRecord, error) {
	l.mu.Lock()
	var rec model.ArchiveRecord
	found := false
	for i := range l.records {
		if l.records[i].ID != id {
			continue
		}
		if l.records[i].Restored {
			l.mu.Unlock()
			return l.records[i], fmt.Errorf("record %d: %w", id, ErrAlreadyRestored)
		}
		l.records[i].Restored = true
		rec, found = l.records[i], true
		break
	}
	l.mu.Unlock()

	if !found {
		return model.ArchiveRecord{}, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	l.queue.Submit(func(context.Context) {
		if err := l.Save(); err != nil {
			l.log.Error("failed to save archive", "error", err)
		}
	})
	return rec, nil
}

// Records returns a copy of every record in creation order.
func (l *Log) Records() []model.ArchiveRecord {
	return l.where(func(model.ArchiveRecord) bool { return true })
}

// FindByName matches a substring of the original item name, ignoring case.
func (l *Log) FindByName(name string) []model.ArchiveRecord {
	name = strings.ToLower(name)
	return l.where(func(r model.ArchiveRecord) bool {
		return strings.Contains(strings.ToLower(r.OriginalItemName), name)
	})
}

// FindByCategory matches the category, ignoring case.
func (l *Log) FindByCategory(category string) []model.ArchiveRecord {
	return l.where(func(r model.ArchiveRecord) bool {
		return strings.EqualFold(r.Category, category)
	})
}

// FindByUser matches the bare acting user, ignoring case.
func (l *Log) FindByUser(user string) []model.ArchiveRecord {
	return l.where(func(r model.ArchiveRecord) bool {
		return strings.EqualFold(model.CleanUser(r.UsedBy), user)
	})
}

// FindByDateRange returns records dated within [from, to].
func (l *Log) FindByDateRange(from, to time.Time) []model.ArchiveRecord {
	return l.where(func(r model.ArchiveRecord) bool {
		return !r.DateUsed.Before(from) && !r.DateUsed.After(to)
	})
}

// Filter selects archive records. Zero fields match everything. Name is a
// case-insensitive substring; Category and User are compared ignoring case.
type Filter struct {
	Name     string
	Category string
	User     string
	From     time.Time
	To       time.Time
}

func (f Filter) match(r model.ArchiveRecord) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(r.OriginalItemName), strings.ToLower(f.Name)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
		return false
	}
	if f.User != "" && !strings.EqualFold(model.CleanUser(r.UsedBy), f.User) {
		return false
	}
	if !f.From.IsZero() && r.DateUsed.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.DateUsed.After(f.To) {
		return false
	}
	return true
}

// Query returns the records matching every set field of f.
func (l *Log) Query(f Filter) []model.ArchiveRecord {
	return l.where(f.match)
}

// Categories returns the distinct categories in the archive, sorted.
func (l *Log) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := map[string]bool{}
	var out []string
	for _, r := range l.records {
		key := strings.ToLower(r.Category)
		if r.Category == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r.Category)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

// Stats summarizes the archive.
func (l *Log) Stats() model.ArchiveStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := model.ArchiveStats{ByType: map[string]int{}}
	for _, r := range l.records {
		st.TotalRecords++
		st.TotalQuantity += r.QuantityUsed
		st.TotalValue += r.TotalValue()
		st.ByType[r.Type]++
	}
	return st
}

// Clear removes every record and saves the empty archive synchronously.
func (l *Log) Clear() error {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()

	if err := l.Save(); err != nil {
		l.log.Error("failed to save cleared archive", "error", err)
		return err
	}
	l.log.Info("archive cleared")
	return nil
}

// Save writes the archive file using backup-then-overwrite.
func (l *Log) Save() error {
	return l.file.Save(l.Records())
}

// Flush waits for scheduled writes to finish.
func (l *Log) Flush(ctx context.Context) error {
	return l.queue.Flush(ctx)
}

// Close runs the queued database writes, stops the queue and saves the
// archive file.
func (l *Log) Close(ctx context.Context) error {
	ferr := l.queue.Flush(ctx)
	if errors.Is(ferr, worker.ErrClosed) {
		ferr = nil
	}
	dropped, qerr := l.queue.Shutdown(ctx)
	if dropped > 0 {
		l.log.Error("archive writes dropped on close", "dropped", dropped)
	}
	qerr = errors.Join(ferr, qerr)
	if err := l.Save(); err != nil {
		l.log.Error("failed to save archive on close", "error", err)
		return errors.Join(qerr, err)
	}
	return qerr
}

func (l *Log) where(keep func(model.ArchiveRecord) bool) []model.ArchiveRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []model.ArchiveRecord{}
	for _, r := range l.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
