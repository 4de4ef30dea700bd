// Package ledger owns the authoritative stock quantities. Every mutation is
// applied in memory first, then mirrored to the relational primary and to the
// local snapshot files in the background. The primary is never the only copy:
// snapshot files are always written, whatever the primary does, so the
// two stores are eventually consistent rather than transactional.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/snapshot"
	"github.com/nvaprinting/stockroom/internal/worker"
)

var (
	// ErrNotFound is returned for an unknown item, category or supplier.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when input breaks a ledger invariant.
	ErrInvalid = errors.New("invalid input")
	// ErrDuplicate is returned when a category already exists.
	ErrDuplicate = errors.New("already exists")
	// ErrConflict is returned when an item changed after the caller read it.
	ErrConflict = errors.New("item changed since it was read")
)

// Primary is the relational store the ledger mirrors to.
type Primary interface {
	LoadAllItems(ctx context.Context) ([]model.Item, error)
	InsertItem(ctx context.Context, item model.Item) (int64, error)
	UpdateItem(ctx context.Context, item model.Item) error
	DeleteItem(ctx context.Context, id int64) error
	InsertStockAlert(ctx context.Context, alert model.StockAlert) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	InsertCategory(ctx context.Context, c model.Category) (int64, error)
	DeleteCategory(ctx context.Context, name string) error
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	InsertSupplier(ctx context.Context, s model.Supplier) error
	DeleteSupplierByName(ctx context.Context, name string) error
}

// Archiver receives every unit that leaves active stock.
type Archiver interface {
	ArchiveItemUsage(ctx context.Context, item model.Item, quantity int, usedBy, reason, recordType string) model.ArchiveRecord
	Record(id int64) (model.ArchiveRecord, bool)
	MarkRestored(id int64) (model.ArchiveRecord, error)
}

// Recorder receives the transaction history.
type Recorder interface {
	LogPriced(ctx context.Context, itemName, txType string, quantity int, user string, unitPrice float64) model.Transaction
}

// Files names the local snapshot files.
type Files struct {
	Items      string
	Suppliers  string
	Categories string
}

// DefaultFiles returns the standard file names inside dir.
func DefaultFiles(dir string) Files {
	return Files{
		Items:      filepath.Join(dir, "inventory_data.json"),
		Suppliers:  filepath.Join(dir, "suppliers.json"),
		Categories: filepath.Join(dir, "categories.json"),
	}
}

// Source reports where Load found the inventory.
type Source string

// Load sources in fallback order.
const (
	SourcePrimary  Source = "database"
	SourceSnapshot Source = "snapshot"
	SourceBackup   Source = "backup"
	SourceSeed     Source = "seed"
)

// Ledger is the stock ledger. A single mutex guards the item store, so a
// check-and-decrement is atomic with respect to other ledger calls.
type Ledger struct {
	primary    Primary
	items      *snapshot.File[model.Item]
	suppliers  *snapshot.File[model.Supplier]
	categories *snapshot.File[model.Category]
	archive    Archiver
	txlog      Recorder
	queue      *worker.Queue
	log        *slog.Logger
	now        func() time.Time
	seed       []model.Item
	queueSize  int

	mu           sync.Mutex
	restoreMu    sync.Mutex
	store        []model.Item
	nextID       int64
	supplierList []model.Supplier
	categoryList []model.Category

	lmu          sync.Mutex
	listeners    map[int]func([]model.Item)
	nextListener int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(led *Ledger) { led.log = l }
}

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(led *Ledger) { led.now = now }
}

// WithSeed replaces the sample catalog used when no data exists.
func WithSeed(items []model.Item) Option {
	return func(led *Ledger) { led.seed = items }
}

// WithQueueSize bounds the persistence queue.
func WithQueueSize(n int) Option {
	return func(led *Ledger) { led.queueSize = n }
}

// New creates a ledger. Call Load before use and Close on shutdown.
func New(primary Primary, files Files, archive Archiver, txlog Recorder, opts ...Option) *Ledger {
	l := &Ledger{
		primary:    primary,
		items:      snapshot.New[model.Item](files.Items),
		suppliers:  snapshot.New[model.Supplier](files.Suppliers),
		categories: snapshot.New[model.Category](files.Categories),
		archive:    archive,
		txlog:      txlog,
		log:        slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
		seed:       SampleCatalog(),
		nextID:     1,
		listeners:  map[int]func([]model.Item){},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With("component", "ledger")
	l.queue = worker.New("ledger", l.queueSize, l.log)
	return l
}

// Load fills the item store, trying the primary, then the snapshot, then its
// backup and finally the sample catalog. Reference data is merged from the
// primary and the local files.
func (l *Ledger) Load(ctx context.Context) (Source, error) {
	items, source := l.loadItems(ctx)

	l.mu.Lock()
	l.store = l.store[:0]
	l.nextID = 1
	for _, it := range items {
		it.Refresh()
		l.store = append(l.store, it)
		l.bumpID(it.ID)
	}
	l.mu.Unlock()

	l.loadReference(ctx)

	if source == SourceSeed {
		for _, it := range l.seed {
			if _, err := l.AddItem(ctx, it); err != nil {
				l.log.Error("failed to seed item", "item", it.Name, "error", err)
			}
		}
		if err := l.Flush(ctx); err != nil {
			return source, err
		}
		if err := l.SaveData(); err != nil {
			return source, err
		}
	}

	l.log.Info("inventory loaded", "source", string(source), "items", l.Len())
	l.notify()
	return source, nil
}

func (l *Ledger) loadItems(ctx context.Context) ([]model.Item, Source) {
	items, err := l.primary.LoadAllItems(ctx)
	switch {
	case err != nil:
		l.log.Warn("database unavailable, loading snapshot", "error", err)
	case len(items) == 0:
		l.log.Info("database has no items, loading snapshot")
	default:
		return items, SourcePrimary
	}

	items, err = l.items.Load()
	if err == nil {
		return items, SourceSnapshot
	}
	if !errors.Is(err, os.ErrNotExist) {
		l.log.Error("failed to read snapshot", "path", l.items.Path(), "error", err)
	}

	items, err = l.items.LoadBackup()
	if err == nil {
		l.log.Warn("inventory loaded from backup", "path", l.items.Backup())
		return items, SourceBackup
	}
	if !errors.Is(err, os.ErrNotExist) {
		l.log.Error("failed to read snapshot backup", "path", l.items.Backup(), "error", err)
	}
	return nil, SourceSeed
}

// SaveData writes the item store and reference data to the local files.
// The local files are written whatever the state of the primary.
func (l *Ledger) SaveData() error {
	var errs []error
	if err := l.items.Save(l.Items()); err != nil {
		errs = append(errs, err)
	}
	if err := l.suppliers.Save(l.supplierSnapshot()); err != nil {
		errs = append(errs, err)
	}
	if err := l.categories.Save(l.categorySnapshot()); err != nil {
		errs = append(errs, err)
	}
	err := errors.Join(errs...)
	if err != nil {
		l.log.Error("failed to save inventory", "error", err)
	}
	return err
}

// RestoreFromBackup rolls the item store back to the backup snapshot and makes
// it the current snapshot. It returns false when no usable backup exists.
func (l *Ledger) RestoreFromBackup(ctx context.Context) bool {
	if err := l.Flush(ctx); err != nil {
		l.log.Warn("restoring without draining pending saves", "error", err)
	}

	items, err := l.items.Restore()
	if err != nil {
		l.log.Error("failed to restore inventory backup", "error", err)
		return false
	}

	l.mu.Lock()
	l.store = l.store[:0]
	for _, it := range items {
		it.Refresh()
		l.store = append(l.store, it)
		l.bumpID(it.ID)
	}
	restored := cloneItems(l.store)
	l.mu.Unlock()

	for _, it := range restored {
		l.queue.Submit(func(ctx context.Context) { l.writePrimary(ctx, it) })
	}
	l.log.Info("inventory restored from backup", "items", len(restored))
	l.notify()
	return true
}

// AddItem assigns an id and inserts item. The id comes from the primary when
// it is reachable, else from a local counter above every id seen.
func (l *Ledger) AddItem(ctx context.Context, item model.Item) (model.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := validate(item); err != nil {
		return model.Item{}, err
	}
	item.ID = 0
	item.StockIn, item.StockOut = 0, 0
	item.LastUpdated = l.now()
	item.Refresh()

	id, perr := l.primary.InsertItem(ctx, item)
	if perr != nil {
		l.log.Warn("database unavailable, assigning local id", "item", item.Name, "error", perr)
	}

	var takenID int64
	l.mu.Lock()
	if perr == nil && l.indexOf(id) >= 0 {
		l.log.Warn("database id already in use locally, moving row", "id", id, "item", item.Name)
		takenID = id
	}
	if perr != nil || takenID > 0 || id <= 0 {
		id = l.nextID
	}
	item.ID = id
	l.bumpID(id)
	l.store = append(l.store, item)
	l.mu.Unlock()

	l.txlog.LogPriced(ctx, item.Name, model.TxAdd, item.Quantity, ActorFrom(ctx), 0)
	switch {
	case takenID > 0:
		l.rekeyPrimary(takenID, item)
	case perr != nil:
		// Reaches the database on this write or on the next change to the item.
		l.queue.Submit(func(ctx context.Context) { l.writePrimary(ctx, item) })
	}
	l.scheduleSave()
	l.notify()
	return item, nil
}

// UpdateItem replaces the stored item with the same id. The stock-in and
// stock-out counters always keep their stored values. An item whose
// LastUpdated is set but no longer matches the store is rejected with
// ErrConflict; a zero LastUpdated skips the check.
func (l *Ledger) UpdateItem(ctx context.Context, item model.Item) error {
	_, err := l.EditItem(ctx, item.ID, func(stored *model.Item) error {
		if !item.LastUpdated.IsZero() && !item.LastUpdated.Equal(stored.LastUpdated) {
			return fmt.Errorf("item %d: %w", item.ID, ErrConflict)
		}
		in, out := stored.StockIn, stored.StockOut
		*stored = item
		stored.StockIn, stored.StockOut = in, out
		return nil
	})
	return err
}

// EditItem runs edit on a copy of the stored item while holding the ledger
// lock and stores the result. The id and the stock counters cannot change.
// Flags and timestamp are recomputed; a move into low stock raises a stock
// alert.
func (l *Ledger) EditItem(ctx context.Context, id int64, edit func(*model.Item) error) (model.Item, error) {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return model.Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	stored := l.store[i]
	item := stored
	if err := edit(&item); err != nil {
		l.mu.Unlock()
		return model.Item{}, err
	}
	item.ID = id
	item.StockIn, item.StockOut = stored.StockIn, stored.StockOut
	item.Name = strings.TrimSpace(item.Name)
	if err := validate(item); err != nil {
		l.mu.Unlock()
		return model.Item{}, err
	}
	item.LastUpdated = l.now()
	item.Refresh()
	l.store[i] = item
	l.mu.Unlock()

	l.txlog.LogPriced(ctx, item.Name, model.TxUpdate, item.Quantity, ActorFrom(ctx), 0)
	l.commit(item, stored.LowStock)
	return item, nil
}

// RemoveItem archives the full remaining quantity of an item and deletes it.
func (l *Ledger) RemoveItem(ctx context.Context, id int64, reason string) error {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	item := l.store[i]
	l.store = append(l.store[:i], l.store[i+1:]...)
	l.mu.Unlock()

	actor := ActorFrom(ctx)
	l.archive.ArchiveItemUsage(ctx, item, item.Quantity, actor, reason, model.ArchiveTypeArchived)
	l.txlog.LogPriced(ctx, item.Name, model.TxArchive, item.Quantity,
		model.Descriptor{User: actor, Reason: reason}.String(), item.UnitPrice)

	l.queue.Submit(func(ctx context.Context) {
		if err := l.primary.DeleteItem(ctx, id); err != nil {
			l.log.Warn("item not deleted from database", "id", id, "error", err)
		}
	})
	l.scheduleSave()
	l.notify()
	return nil
}

// OnItemsChanged registers fn to receive a copy of the items after every
// mutation. Calls happen outside the ledger lock. The returned func
// unregisters fn.
func (l *Ledger) OnItemsChanged(fn func([]model.Item)) func() {
	l.lmu.Lock()
	defer l.lmu.Unlock()
	id := l.nextListener
	l.nextListener++
	l.listeners[id] = fn
	return func() {
		l.lmu.Lock()
		defer l.lmu.Unlock()
		delete(l.listeners, id)
	}
}

// Flush waits until every scheduled write has run.
func (l *Ledger) Flush(ctx context.Context) error {
	return l.queue.Flush(ctx)
}

// Close runs every queued write, then stops the queue and saves the local
// files. Jobs still queued when ctx ends are dropped and reported in the
// error.
func (l *Ledger) Close(ctx context.Context) error {
	ferr := l.Flush(ctx)
	if errors.Is(ferr, worker.ErrClosed) {
		ferr = nil
	}
	if ferr != nil {
		ferr = fmt.Errorf("draining ledger writes: %w", ferr)
	}
	dropped, qerr := l.queue.Shutdown(ctx)
	if dropped > 0 {
		l.log.Error("database writes dropped at shutdown", "dropped", dropped)
	}
	return errors.Join(ferr, qerr, l.SaveData())
}

// commit mirrors a changed item to the primary and the snapshot.
func (l *Ledger) commit(item model.Item, wasLow bool) {
	if !wasLow && item.LowStock {
		alert := model.StockAlert{
			ItemID:       item.ID,
			ItemName:     item.Name,
			AlertDate:    item.LastUpdated,
			MinimumStock: item.MinStockLevel,
			Status:       model.StockAlertStatus,
		}
		l.log.Info("item is low on stock", "item", item.Name, "quantity", item.Quantity, "minimum", item.MinStockLevel)
		l.queue.Submit(func(ctx context.Context) {
			if err := l.primary.InsertStockAlert(ctx, alert); err != nil {
				l.log.Warn("stock alert not written to database", "item", alert.ItemName, "error", err)
			}
		})
	}
	l.queue.Submit(func(ctx context.Context) { l.writePrimary(ctx, item) })
	l.scheduleSave()
	l.notify()
}

// rekeyPrimary moves the database row the primary just created under takenID
// to item's local id, then writes the local item that owns takenID.
func (l *Ledger) rekeyPrimary(takenID int64, item model.Item) {
	l.queue.Submit(func(ctx context.Context) {
		if err := l.primary.DeleteItem(ctx, takenID); err != nil {
			l.log.Warn("database row not moved", "from", takenID, "to", item.ID, "error", err)
			return
		}
		l.writePrimary(ctx, item)
		if owner, ok := l.Item(takenID); ok {
			l.writePrimary(ctx, owner)
		}
	})
}

// writePrimary upserts item, so items created while the primary was down
// reach it on their next change.
func (l *Ledger) writePrimary(ctx context.Context, item model.Item) {
	if err := l.primary.UpdateItem(ctx, item); err != nil {
		l.log.Warn("item not written to database", "id", item.ID, "item", item.Name, "error", err)
	}
}

func (l *Ledger) scheduleSave() {
	l.queue.Submit(func(context.Context) {
		if err := l.items.Save(l.Items()); err != nil {
			l.log.Error("failed to save inventory snapshot", "error", err)
		}
	})
}

func (l *Ledger) notify() {
	l.lmu.Lock()
	fns := make([]func([]model.Item), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.lmu.Unlock()

	if len(fns) == 0 {
		return
	}
	items := l.Items()
	for _, fn := range fns {
		fn(cloneItems(items))
	}
}

// indexOf must be called with mu held.
func (l *Ledger) indexOf(id int64) int {
	for i := range l.store {
		if l.store[i].ID == id {
			return i
		}
	}
	return -1
}

// bumpID must be called with mu held.
func (l *Ledger) bumpID(id int64) {
	if id >= l.nextID {
		l.nextID = id + 1
	}
}

func validate(item model.Item) error {
	switch {
	case item.Name == "":
		return fmt.Errorf("item name is required: %w", ErrInvalid)
	case item.Quantity < 0:
		return fmt.Errorf("quantity %d is negative: %w", item.Quantity, ErrInvalid)
	case item.UnitPrice < 0:
		return fmt.Errorf("unit price %.2f is negative: %w", item.UnitPrice, ErrInvalid)
	case item.MinStockLevel < 0:
		return fmt.Errorf("minimum stock %d is negative: %w", item.MinStockLevel, ErrInvalid)
	}
	return nil
}

func cloneItems(items []model.Item) []model.Item {
	return append([]model.Item(nil), items...)
}
