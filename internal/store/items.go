package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nvaprinting/stockroom/internal/model"
)

const itemColumns = `id, name, category, description, quantity, min_stock_level, unit_price,
	supplier, last_updated, stock_in, stock_out`

// InsertItem inserts an item and returns its assigned id. The item's own ID is ignored.
func InsertItem(ctx context.Context, db *sql.DB, item model.Item) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO inventory_items (name, category, description, quantity, min_stock_level,
		     unit_price, supplier, last_updated, stock_in, stock_out)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Category, item.Description, item.Quantity, item.MinStockLevel,
		item.UnitPrice, item.Supplier, item.LastUpdated, item.StockIn, item.StockOut,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

// InsertItemWithID inserts an item keeping its id. Used when migrating a
// snapshot into an empty database.
func InsertItemWithID(ctx context.Context, db *sql.DB, item model.Item) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO inventory_items (id, name, category, description, quantity, min_stock_level,
		     unit_price, supplier, last_updated, stock_in, stock_out)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Category, item.Description, item.Quantity, item.MinStockLevel,
		item.UnitPrice, item.Supplier, item.LastUpdated, item.StockIn, item.StockOut,
	)
	if err != nil {
		return fmt.Errorf("inserting item %d: %w", item.ID, err)
	}
	return nil
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &item, nil
}

// LoadAllItems returns every item ordered by id, with derived flags computed.
func LoadAllItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem overwrites every stored field of an item.
func UpdateItem(ctx context.Context, db *sql.DB, item model.Item) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inventory_items SET name = ?, category = ?, description = ?, quantity = ?,
		     min_stock_level = ?, unit_price = ?, supplier = ?, last_updated = ?,
		     stock_in = ?, stock_out = ?
		 WHERE id = ?`,
		item.Name, item.Category, item.Description, item.Quantity, item.MinStockLevel,
		item.UnitPrice, item.Supplier, item.LastUpdated, item.StockIn, item.StockOut, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return expectRow(result, "updating item")
}

// UpsertItem writes an item under its own id, inserting the row when the
// database has never seen it.
func UpsertItem(ctx context.Context, db *sql.DB, item model.Item) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO inventory_items (id, name, category, description, quantity, min_stock_level,
		     unit_price, supplier, last_updated, stock_in, stock_out)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name, category = excluded.category, description = excluded.description,
		     quantity = excluded.quantity, min_stock_level = excluded.min_stock_level,
		     unit_price = excluded.unit_price, supplier = excluded.supplier,
		     last_updated = excluded.last_updated, stock_in = excluded.stock_in,
		     stock_out = excluded.stock_out`,
		item.ID, item.Name, item.Category, item.Description, item.Quantity, item.MinStockLevel,
		item.UnitPrice, item.Supplier, item.LastUpdated, item.StockIn, item.StockOut,
	)
	if err != nil {
		return fmt.Errorf("upserting item %d: %w", item.ID, err)
	}
	return nil
}

// DeleteItem removes an item. History rows keep their text and lose the reference.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectRow(result, "deleting item")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (model.Item, error) {
	var item model.Item
	err := s.Scan(&item.ID, &item.Name, &item.Category, &item.Description, &item.Quantity,
		&item.MinStockLevel, &item.UnitPrice, &item.Supplier, &item.LastUpdated,
		&item.StockIn, &item.StockOut)
	if err != nil {
		return model.Item{}, err
	}
	item.Refresh()
	return item, nil
}

func expectRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
