package store

import (
	"context"
	"errors"
	"testing"

	"github.com/nvaprinting/stockroom/internal/db"
	"github.com/nvaprinting/stockroom/internal/model"
)

func TestInsertCategoryReturnsExistingID(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id1, err := InsertCategory(ctx, database, model.Category{Name: "Paper"})
	if err != nil {
		t.Fatalf("InsertCategory: %v", err)
	}
	id2, err := InsertCategory(ctx, database, model.Category{Name: "PAPER", Description: "dupe"})
	if err != nil {
		t.Fatalf("InsertCategory dupe: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected same id for case-insensitive duplicate, got %d and %d", id1, id2)
	}

	cats, _ := ListCategories(ctx, database)
	if len(cats) != 1 {
		t.Fatalf("expected 1 category, got %d", len(cats))
	}
	if cats[0].Name != "Paper" {
		t.Errorf("expected original name kept, got %q", cats[0].Name)
	}
}

func TestDeleteCategory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	InsertCategory(ctx, database, model.Category{Name: "Ink"})
	if err := DeleteCategory(ctx, database, "ink"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if err := DeleteCategory(ctx, database, "ink"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertSupplierUpdatesExisting(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	InsertSupplier(ctx, database, model.Supplier{Name: "Office Supplies Co.", ContactNumber: "111"})
	InsertSupplier(ctx, database, model.Supplier{Name: "office supplies co.", ContactNumber: "222", Address: "Main St"})

	suppliers, err := ListSuppliers(ctx, database)
	if err != nil {
		t.Fatalf("ListSuppliers: %v", err)
	}
	if len(suppliers) != 1 {
		t.Fatalf("expected 1 supplier, got %d", len(suppliers))
	}
	if suppliers[0].ContactNumber != "222" || suppliers[0].Address != "Main St" {
		t.Errorf("expected updated details, got %+v", suppliers[0])
	}

	if err := DeleteSupplierByName(ctx, database, "Office Supplies Co."); err != nil {
		t.Fatalf("DeleteSupplierByName: %v", err)
	}
	suppliers, _ = ListSuppliers(ctx, database)
	if len(suppliers) != 0 {
		t.Errorf("expected no suppliers, got %d", len(suppliers))
	}
}
