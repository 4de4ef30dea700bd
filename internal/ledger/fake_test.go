package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nvaprinting/stockroom/internal/archive"
	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/txlog"
)

var errDown = errors.New("connection refused")

// memPrimary is an in-memory primary that can be switched off.
type memPrimary struct {
	mu         sync.Mutex
	down       bool
	delay      time.Duration // per item write
	nextID     int64
	items      map[int64]model.Item
	alerts     []model.StockAlert
	categories []model.Category
	suppliers  []model.Supplier
	archive    []model.ArchiveRecord
	txs        []model.Transaction
}

func newMemPrimary() *memPrimary {
	return &memPrimary{nextID: 1, items: map[int64]model.Item{}}
}

func (p *memPrimary) setDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

func (p *memPrimary) LoadAllItems(context.Context) ([]model.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return nil, errDown
	}
	var out []model.Item
	for id := int64(1); id < p.nextID; id++ {
		if it, ok := p.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (p *memPrimary) InsertItem(_ context.Context, item model.Item) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return 0, errDown
	}
	item.ID = p.nextID
	p.nextID++
	p.items[item.ID] = item
	return item.ID, nil
}

// UpdateItem upserts like the relational backend does.
func (p *memPrimary) UpdateItem(_ context.Context, item model.Item) error {
	p.mu.Lock()
	delay := p.delay
	p.mu.Unlock()
	time.Sleep(delay)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	p.items[item.ID] = item
	if item.ID >= p.nextID {
		p.nextID = item.ID + 1
	}
	return nil
}

func (p *memPrimary) item(id int64) (model.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.items[id]
	return it, ok
}

func (p *memPrimary) DeleteItem(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	delete(p.items, id)
	return nil
}

func (p *memPrimary) InsertStockAlert(_ context.Context, a model.StockAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	p.alerts = append(p.alerts, a)
	return nil
}

func (p *memPrimary) ListCategories(context.Context) ([]model.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return nil, errDown
	}
	return append([]model.Category(nil), p.categories...), nil
}

func (p *memPrimary) InsertCategory(_ context.Context, c model.Category) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return 0, errDown
	}
	p.categories = append(p.categories, c)
	return int64(len(p.categories)), nil
}

func (p *memPrimary) DeleteCategory(_ context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	for i, c := range p.categories {
		if c.Name == name {
			p.categories = append(p.categories[:i], p.categories[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (p *memPrimary) ListSuppliers(context.Context) ([]model.Supplier, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return nil, errDown
	}
	return append([]model.Supplier(nil), p.suppliers...), nil
}

func (p *memPrimary) InsertSupplier(_ context.Context, s model.Supplier) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	p.suppliers = mergeSuppliers(p.suppliers, []model.Supplier{s})
	return nil
}

func (p *memPrimary) DeleteSupplierByName(_ context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	for i, s := range p.suppliers {
		if s.Name == name {
			p.suppliers = append(p.suppliers[:i], p.suppliers[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (p *memPrimary) InsertArchive(_ context.Context, rec model.ArchiveRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	p.archive = append(p.archive, rec)
	return nil
}

func (p *memPrimary) InsertTransaction(_ context.Context, tx model.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errDown
	}
	p.txs = append(p.txs, tx)
	return nil
}

func (p *memPrimary) alertCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts)
}

// harness wires a ledger to real archive and transaction logs in a temp dir.
type harness struct {
	dir     string
	primary *memPrimary
	archive *archive.Log
	txlog   *txlog.Log
	ledger  *Ledger
}

func newHarness(t *testing.T, primary *memPrimary, opts ...Option) *harness {
	t.Helper()
	return newHarnessIn(t, t.TempDir(), primary, opts...)
}

func newHarnessIn(t *testing.T, dir string, primary *memPrimary, opts ...Option) *harness {
	t.Helper()
	h := &harness{dir: dir, primary: primary}
	h.archive = archive.New(primary, filepath.Join(dir, "archive_data.json"))
	h.txlog = txlog.New(primary, filepath.Join(dir, "transactions.json"))
	h.ledger = New(primary, DefaultFiles(dir), h.archive, h.txlog, opts...)
	t.Cleanup(func() {
		ctx := context.Background()
		h.ledger.Close(ctx)
		h.archive.Close(ctx)
		h.txlog.Shutdown(ctx)
	})
	return h
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := h.ledger.Flush(ctx); err != nil {
		t.Fatalf("flushing ledger: %v", err)
	}
	if err := h.archive.Flush(ctx); err != nil {
		t.Fatalf("flushing archive: %v", err)
	}
	if err := h.txlog.Flush(ctx); err != nil {
		t.Fatalf("flushing txlog: %v", err)
	}
}

func a4Paper() model.Item {
	return model.Item{
		Name:          "A4 Paper",
		Category:      "Paper",
		Description:   "Standard A4 printing paper, 80gsm",
		Quantity:      500,
		MinStockLevel: 100,
		UnitPrice:     0.10,
		Supplier:      "Office Supplies Co.",
	}
}

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}
