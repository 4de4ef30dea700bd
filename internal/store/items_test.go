package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nvaprinting/stockroom/internal/db"
	"github.com/nvaprinting/stockroom/internal/model"
)

func paper() model.Item {
	return model.Item{
		Name:          "A4 Paper",
		Category:      "Paper",
		Description:   "Standard A4 printing paper, 80gsm",
		Quantity:      500,
		MinStockLevel: 100,
		UnitPrice:     0.10,
		Supplier:      "Office Supplies Co.",
		LastUpdated:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestInsertAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, err := InsertItem(ctx, database, paper())
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, err := GetItem(ctx, database, id)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil {
		t.Fatal("expected item, got nil")
	}
	if got.Name != "A4 Paper" {
		t.Errorf("expected name 'A4 Paper', got %q", got.Name)
	}
	if got.Quantity != 500 {
		t.Errorf("expected quantity 500, got %d", got.Quantity)
	}
	if got.LowStock || got.OutOfStock {
		t.Errorf("expected normal stock flags, got low=%v out=%v", got.LowStock, got.OutOfStock)
	}
}

func TestGetItemMissing(t *testing.T) {
	database := db.NewTestDB(t)

	got, err := GetItem(context.Background(), database, 42)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestLoadAllItemsComputesFlags(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	low := paper()
	low.Quantity = 50
	empty := paper()
	empty.Name = "A3 Paper"
	empty.Quantity = 0

	InsertItem(ctx, database, low)
	InsertItem(ctx, database, empty)

	items, err := LoadAllItems(ctx, database)
	if err != nil {
		t.Fatalf("LoadAllItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].LowStock {
		t.Error("expected first item low stock")
	}
	if !items[1].OutOfStock {
		t.Error("expected second item out of stock")
	}
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := paper()
	id, _ := InsertItem(ctx, database, item)
	item.ID = id
	item.Quantity = 20
	item.StockOut = 480

	if err := UpdateItem(ctx, database, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, id)
	if got.Quantity != 20 || got.StockOut != 480 {
		t.Errorf("expected quantity 20 stockOut 480, got %d %d", got.Quantity, got.StockOut)
	}
}

func TestUpdateMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	item := paper()
	item.ID = 99
	err := UpdateItem(context.Background(), database, item)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := paper()
	item.ID = 7
	if err := UpsertItem(ctx, database, item); err != nil {
		t.Fatalf("UpsertItem insert: %v", err)
	}
	item.Quantity = 3
	item.StockOut = 12
	if err := UpsertItem(ctx, database, item); err != nil {
		t.Fatalf("UpsertItem update: %v", err)
	}

	items, err := LoadAllItems(ctx, database)
	if err != nil {
		t.Fatalf("LoadAllItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ID != 7 || items[0].Quantity != 3 || items[0].StockOut != 12 {
		t.Errorf("expected id 7 quantity 3 stockOut 12, got %d %d %d", items[0].ID, items[0].Quantity, items[0].StockOut)
	}

	// The autoincrement counter moves past upserted ids.
	next, err := InsertItem(ctx, database, paper())
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	if next != 8 {
		t.Errorf("expected next id 8, got %d", next)
	}
}

func TestBackendUpdateInsertsMissingItem(t *testing.T) {
	database := db.NewTestDB(t)
	b := NewBackend(database, 0)
	ctx := context.Background()

	item := paper()
	item.ID = 3
	if err := b.UpdateItem(ctx, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	got, err := GetItem(ctx, database, 3)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil {
		t.Fatal("expected item 3 to be inserted")
	}
	if got.Name != item.Name {
		t.Errorf("expected %q, got %q", item.Name, got.Name)
	}
}

func TestDeleteItemKeepsHistory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := InsertItem(ctx, database, paper())
	rec := model.ArchiveRecord{ItemID: id, OriginalItemName: "A4 Paper", Type: model.ArchiveTypeArchived, QuantityUsed: 500}
	if err := InsertArchive(ctx, database, rec); err != nil {
		t.Fatalf("InsertArchive: %v", err)
	}

	if err := DeleteItem(ctx, database, id); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if err := DeleteItem(ctx, database, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	n, _ := CountRows(ctx, database, "archive")
	if n != 1 {
		t.Errorf("expected archive row to survive delete, got %d rows", n)
	}
}

func TestNegativeQuantityRejected(t *testing.T) {
	database := db.NewTestDB(t)

	item := paper()
	item.Quantity = -1
	if _, err := InsertItem(context.Background(), database, item); err == nil {
		t.Error("expected error inserting negative quantity")
	}
}
