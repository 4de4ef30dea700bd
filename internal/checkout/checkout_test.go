package checkout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvaprinting/stockroom/internal/archive"
	"github.com/nvaprinting/stockroom/internal/ledger"
	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/store"
	"github.com/nvaprinting/stockroom/internal/txlog"
)

type recordedLine struct {
	sale model.Sale
	line model.SaleLine
}

type saleRecorder struct {
	mu    sync.Mutex
	fail  bool
	delay time.Duration
	lines []recordedLine
}

func (r *saleRecorder) InsertSaleLine(_ context.Context, sale model.Sale, line model.SaleLine) error {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("database is locked")
	}
	r.lines = append(r.lines, recordedLine{sale, line})
	return nil
}

func (r *saleRecorder) recorded() []recordedLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedLine(nil), r.lines...)
}

type fixture struct {
	ledger  *ledger.Ledger
	archive *archive.Log
	txlog   *txlog.Log
	sales   *saleRecorder
	co      *Coordinator
}

var saleTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	primary := store.Unavailable{}
	f := &fixture{sales: &saleRecorder{}}
	f.archive = archive.New(primary, filepath.Join(dir, "archive_data.json"))
	f.txlog = txlog.New(primary, filepath.Join(dir, "transactions.json"))
	f.ledger = ledger.New(primary, ledger.DefaultFiles(dir), f.archive, f.txlog)

	_, err := f.ledger.Load(context.Background())
	require.NoError(t, err)

	n := 0
	f.co = New(f.ledger, f.archive, f.sales,
		WithClock(func() time.Time { return saleTime }),
		WithRefs(func() string { n++; return fmt.Sprintf("ref-%d", n) }),
	)
	t.Cleanup(func() {
		ctx := context.Background()
		f.co.Close(ctx)
		f.ledger.Close(ctx)
		f.archive.Close(ctx)
		f.txlog.Shutdown(ctx)
	})
	return f
}

func (f *fixture) quantity(t *testing.T, name string) int {
	t.Helper()
	item, ok := f.ledger.FindByName(name)
	require.True(t, ok, "item %q", name)
	return item.Quantity
}

func TestCheckoutCash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sale, err := f.co.Checkout(ctx, "", []Line{
		{ItemName: "Ceramic Mugs", UnitPrice: 3.50, Quantity: 4},
		{ItemName: "tumblers", UnitPrice: 12, Quantity: 1},
	}, Payment{Method: "cash", Tendered: 50})
	require.NoError(t, err)

	assert.Equal(t, "ref-1", sale.Ref)
	assert.Equal(t, model.DefaultCashier, sale.User)
	assert.Equal(t, model.PaymentCash, sale.PaymentMethod)
	assert.InDelta(t, 26.0, sale.Total, 1e-9)
	assert.InDelta(t, 24.0, sale.Change, 1e-9)
	assert.Equal(t, saleTime, sale.Date)
	require.Len(t, sale.Lines, 2)
	assert.Equal(t, "Tumblers", sale.Lines[1].ItemName)

	assert.Equal(t, 46, f.quantity(t, "Ceramic Mugs"))
	assert.Equal(t, 29, f.quantity(t, "Tumblers"))

	sales := f.txlog.Query(txlog.Filter{Type: model.TxSale})
	require.Len(t, sales, 2)
	for _, tx := range sales {
		assert.Equal(t, "CASHIER [Tx:ref-1]", tx.User)
	}

	require.NoError(t, f.co.Flush(ctx))
	rec := f.sales.recorded()
	require.Len(t, rec, 2)
	assert.Equal(t, "ref-1", rec[0].sale.Ref)
	assert.Equal(t, "ref-1", rec[1].sale.Ref)
	assert.InDelta(t, 14.0, rec[0].line.Total, 1e-9)
}

func TestCheckoutEWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sale, err := f.co.Checkout(ctx, "cashier1", []Line{
		{ItemName: "A4 Paper", UnitPrice: 0.10, Quantity: 100},
	}, Payment{Method: "E-wallet", Reference: " 9012 "})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentEWallet, sale.PaymentMethod)
	assert.Equal(t, "9012", sale.PaymentRef)
	assert.Zero(t, sale.Change)

	tx := f.txlog.Query(txlog.Filter{Type: model.TxSale})[0]
	assert.Equal(t, "cashier1 [Tx:ref-1] [ERef:9012]", tx.User)
	assert.Equal(t, model.PaymentEWallet, model.PaymentMethodOf(tx.User))

	summary := f.txlog.SalesSummary(txlog.Filter{})
	assert.InDelta(t, 10.0, summary.ByMethod[model.PaymentEWallet], 1e-9)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := []Line{{ItemName: "A4 Paper", UnitPrice: 0.10, Quantity: 10}}

	tests := []struct {
		name string
		cart []Line
		pay  Payment
		want error
	}{
		{"empty cart", nil, Payment{Tendered: 10}, ErrEmptyCart},
		{"zero quantity", []Line{{ItemName: "A4 Paper", Quantity: 0}}, Payment{Tendered: 10}, ErrInvalidLine},
		{"negative price", []Line{{ItemName: "A4 Paper", UnitPrice: -1, Quantity: 1}}, Payment{Tendered: 10}, ErrInvalidLine},
		{"short cash", paper, Payment{Method: "Cash", Tendered: 0.99}, ErrInsufficientPayment},
		{"missing reference", paper, Payment{Method: "GCash"}, ErrReferenceRequired},
		{"unknown method", paper, Payment{Method: "cheque", Tendered: 5}, ErrUnknownMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale, err := f.co.Checkout(ctx, "", tt.cart, tt.pay)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, sale)
		})
	}

	assert.Equal(t, 500, f.quantity(t, "A4 Paper"))
	assert.Empty(t, f.txlog.Query(txlog.Filter{Type: model.TxSale}))
}

func TestCheckoutStopsAtFailedLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sale, err := f.co.Checkout(ctx, "", []Line{
		{ItemName: "Rope", UnitPrice: 1.5, Quantity: 10},
		{ItemName: "Toner Cartridge", UnitPrice: 75, Quantity: 9},
		{ItemName: "Eyelets", UnitPrice: 0.05, Quantity: 100},
	}, Payment{Tendered: 1000})
	require.ErrorIs(t, err, ErrLineFailed)
	require.NotNil(t, sale)

	require.Len(t, sale.Lines, 1)
	assert.InDelta(t, 15.0, sale.Total, 1e-9)
	assert.InDelta(t, 985.0, sale.Change, 1e-9)

	assert.Equal(t, 40, f.quantity(t, "Rope"))
	assert.Equal(t, 8, f.quantity(t, "Toner Cartridge"))
	assert.Equal(t, 1000, f.quantity(t, "Eyelets"))

	require.NoError(t, f.co.Flush(ctx))
	rec := f.sales.recorded()
	require.Len(t, rec, 1, "applied lines are still persisted")
	assert.Equal(t, "Rope", rec[0].line.ItemName)
}

func TestCheckoutUnknownItem(t *testing.T) {
	f := newFixture(t)

	sale, err := f.co.Checkout(context.Background(), "", []Line{
		{ItemName: "Banner Stand", UnitPrice: 20, Quantity: 1},
	}, Payment{Tendered: 20})
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Nil(t, sale)
}

func TestCheckoutSurvivesSaleStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.sales.fail = true
	ctx := context.Background()

	sale, err := f.co.Checkout(ctx, "", []Line{{ItemName: "Photo Paper", UnitPrice: 0.5, Quantity: 20}}, Payment{Tendered: 10})
	require.NoError(t, err)
	require.NoError(t, f.co.Flush(ctx))

	assert.Equal(t, 80, f.quantity(t, "Photo Paper"))
	assert.Empty(t, f.sales.recorded())
	assert.Len(t, sale.Lines, 1)
}

func TestCheckoutSharesRefAcrossSales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart := []Line{{ItemName: "Plain T-Shirts", UnitPrice: 8, Quantity: 1}}

	first, err := f.co.Checkout(ctx, "", cart, Payment{Tendered: 8})
	require.NoError(t, err)
	second, err := f.co.Checkout(ctx, "", cart, Payment{Tendered: 10})
	require.NoError(t, err)

	assert.NotEqual(t, first.Ref, second.Ref)
	assert.InDelta(t, 2.0, second.Change, 1e-9)
}

func TestCheckoutClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.co.Close(ctx))

	// The sale still applies; only its persistence is lost.
	sale, err := f.co.Checkout(ctx, "", []Line{{ItemName: "Rope", UnitPrice: 1.5, Quantity: 1}}, Payment{Tendered: 2})
	require.NoError(t, err)
	assert.Len(t, sale.Lines, 1)
	assert.Equal(t, 49, f.quantity(t, "Rope"))
}

func TestCloseWritesQueuedSales(t *testing.T) {
	f := newFixture(t)
	f.sales.delay = 20 * time.Millisecond
	ctx := context.Background()

	for range 3 {
		_, err := f.co.Checkout(ctx, "cashier", []Line{{ItemName: "Rope", UnitPrice: 1.5, Quantity: 2}}, Payment{Tendered: 3})
		require.NoError(t, err)
	}
	require.NoError(t, f.co.Close(ctx))

	rec := f.sales.recorded()
	require.Len(t, rec, 3)
	assert.Equal(t, []string{"ref-1", "ref-2", "ref-3"}, []string{rec[0].sale.Ref, rec[1].sale.Ref, rec[2].sale.Ref})
	assert.NoError(t, f.co.Close(ctx), "second close")
}
