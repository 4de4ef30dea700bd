package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/nvaprinting/stockroom/internal/model"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 3 * time.Second

// Backend is the relational primary store used by the ledger, the archive
// log, the transaction log and checkout. Every error it returns, apart from
// ErrNotFound, matches ErrUnavailable: callers fall back instead of failing.
type Backend struct {
	db      *sql.DB
	timeout time.Duration
}

// NewBackend wraps db. A non-positive timeout selects DefaultTimeout.
func NewBackend(db *sql.DB, timeout time.Duration) *Backend {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Backend{db: db, timeout: timeout}
}

// DB returns the underlying handle.
func (b *Backend) DB() *sql.DB { return b.db }

func (b *Backend) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

func (b *Backend) LoadAllItems(ctx context.Context) ([]model.Item, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	items, err := LoadAllItems(ctx, b.db)
	return items, unavailable("load items", err)
}

func (b *Backend) InsertItem(ctx context.Context, item model.Item) (int64, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	id, err := InsertItem(ctx, b.db, item)
	return id, unavailable("insert item", err)
}

// UpdateItem upserts, so an item first created while the database was down
// is inserted under its local id.
func (b *Backend) UpdateItem(ctx context.Context, item model.Item) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("update item", UpsertItem(ctx, b.db, item))
}

func (b *Backend) DeleteItem(ctx context.Context, id int64) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("delete item", DeleteItem(ctx, b.db, id))
}

func (b *Backend) InsertStockAlert(ctx context.Context, alert model.StockAlert) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("insert stock alert", InsertStockAlert(ctx, b.db, alert))
}

func (b *Backend) InsertTransaction(ctx context.Context, tx model.Transaction) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("insert transaction", InsertTransaction(ctx, b.db, tx))
}

func (b *Backend) InsertArchive(ctx context.Context, rec model.ArchiveRecord) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("insert archive", InsertArchive(ctx, b.db, rec))
}

func (b *Backend) InsertSaleLine(ctx context.Context, sale model.Sale, line model.SaleLine) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("insert sale", InsertSaleLine(ctx, b.db, sale, line))
}

func (b *Backend) ListCategories(ctx context.Context) ([]model.Category, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	cats, err := ListCategories(ctx, b.db)
	return cats, unavailable("list categories", err)
}

func (b *Backend) InsertCategory(ctx context.Context, c model.Category) (int64, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	id, err := InsertCategory(ctx, b.db, c)
	return id, unavailable("insert category", err)
}

func (b *Backend) DeleteCategory(ctx context.Context, name string) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("delete category", DeleteCategory(ctx, b.db, name))
}

func (b *Backend) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	suppliers, err := ListSuppliers(ctx, b.db)
	return suppliers, unavailable("list suppliers", err)
}

func (b *Backend) InsertSupplier(ctx context.Context, s model.Supplier) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("insert supplier", InsertSupplier(ctx, b.db, s))
}

func (b *Backend) DeleteSupplierByName(ctx context.Context, name string) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return unavailable("delete supplier", DeleteSupplierByName(ctx, b.db, name))
}

// Unavailable is a primary store that is never reachable. The service runs
// against it when no database is configured.
type Unavailable struct{}

func (Unavailable) LoadAllItems(context.Context) ([]model.Item, error) { return nil, ErrUnavailable }

func (Unavailable) InsertItem(context.Context, model.Item) (int64, error) { return 0, ErrUnavailable }

func (Unavailable) UpdateItem(context.Context, model.Item) error { return ErrUnavailable }

func (Unavailable) DeleteItem(context.Context, int64) error { return ErrUnavailable }

func (Unavailable) InsertStockAlert(context.Context, model.StockAlert) error { return ErrUnavailable }

func (Unavailable) InsertTransaction(context.Context, model.Transaction) error { return ErrUnavailable }

func (Unavailable) InsertArchive(context.Context, model.ArchiveRecord) error { return ErrUnavailable }

func (Unavailable) InsertSaleLine(context.Context, model.Sale, model.SaleLine) error {
	return ErrUnavailable
}

func (Unavailable) ListCategories(context.Context) ([]model.Category, error) {
	return nil, ErrUnavailable
}

func (Unavailable) InsertCategory(context.Context, model.Category) (int64, error) {
	return 0, ErrUnavailable
}

func (Unavailable) DeleteCategory(context.Context, string) error { return ErrUnavailable }

func (Unavailable) ListSuppliers(context.Context) ([]model.Supplier, error) {
	return nil, ErrUnavailable
}

func (Unavailable) InsertSupplier(context.Context, model.Supplier) error { return ErrUnavailable }

func (Unavailable) DeleteSupplierByName(context.Context, string) error { return ErrUnavailable }
