package migrate

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/nvaprinting/stockroom/internal/db"
	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/snapshot"
	"github.com/nvaprinting/stockroom/internal/store"
)

func exportItems() []model.Item {
	return []model.Item{
		{ID: 1, Name: "A4 Paper", Category: "paper", Description: "80gsm, 500 sheets", Quantity: 100, MinStockLevel: 20, UnitPrice: 250.5, Supplier: "Paper Co"},
		{ID: 2, Name: "O'Neil Ink", Category: "ink", Description: "cyan", Quantity: 5, MinStockLevel: 10, UnitPrice: 12, Supplier: "Paper Co"},
		{Name: "Banner Roll", UnitPrice: 1000},
		{ID: 4, Name: "Photo Paper", Category: "PAPER", Description: "glossy", Quantity: 30, MinStockLevel: 5, UnitPrice: 15.75, Supplier: " Laser Tech "},
	}
}

func TestExportSQL(t *testing.T) {
	var buf bytes.Buffer
	n, err := ExportSQL(&buf, exportItems())
	if err != nil {
		t.Fatalf("ExportSQL: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 items written, got %d", n)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "export", buf.Bytes())
}

func TestItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	items := exportItems()
	items = append(items, model.Item{ID: 1, Name: "Duplicate id"})

	res := Items(ctx, database, items)
	if res.Total != 5 {
		t.Errorf("expected total 5, got %d", res.Total)
	}
	if res.Migrated != 4 {
		t.Errorf("expected 4 migrated, got %d", res.Migrated)
	}
	if res.Failed() != 1 {
		t.Errorf("expected 1 failure, got %d", res.Failed())
	}

	got, err := store.GetItem(ctx, database, 2)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Name != "O'Neil Ink" {
		t.Errorf("expected item 2 to keep its id, got %q", got.Name)
	}
}

func TestTransactions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	records := []model.Transaction{
		{Date: now, ItemName: "A4 Paper", Type: model.TxAdd, Quantity: 100, User: "manager"},
		{Date: now, ItemName: "A4 Paper", Type: model.TxSale, Quantity: 2, User: "CASHIER [Tx:r1]", UnitPrice: 250, TotalPrice: 500},
		{Date: now, ItemName: "Gone item", Type: model.TxAdd, Quantity: 1, User: "manager"},
	}
	res := Transactions(ctx, database, records)
	if res.Migrated != 3 {
		t.Errorf("expected 3 migrated, got %d", res.Migrated)
	}

	count, err := store.CountRows(ctx, database, "transactions")
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 rows, got %d", count)
	}
}

func TestItemsFromFile(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "items.json")

	if err := snapshot.New[model.Item](path).Save(exportItems()); err != nil {
		t.Fatalf("saving snapshot: %v", err)
	}

	res, err := ItemsFromFile(ctx, database, path)
	if err != nil {
		t.Fatalf("ItemsFromFile: %v", err)
	}
	if res.Migrated != 4 {
		t.Errorf("expected 4 migrated, got %d", res.Migrated)
	}
}

func TestItemsFromMissingFile(t *testing.T) {
	database := db.NewTestDB(t)
	_, err := ItemsFromFile(context.Background(), database, filepath.Join(t.TempDir(), "none.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
