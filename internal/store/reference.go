package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nvaprinting/stockroom/internal/model"
)

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, db *sql.DB) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, description FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// InsertCategory inserts a category and returns its id. An existing category
// with the same name (ignoring case) is kept and its id returned.
func InsertCategory(ctx context.Context, db *sql.DB, c model.Category) (int64, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`,
		c.Name, c.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting category: %w", err)
	}

	var id int64
	if err := db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, c.Name).Scan(&id); err != nil {
		return 0, fmt.Errorf("getting category id: %w", err)
	}
	return id, nil
}

// DeleteCategory removes a category by name.
func DeleteCategory(ctx context.Context, db *sql.DB, name string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return expectRow(result, "deleting category")
}

// ListSuppliers returns all suppliers ordered by name.
func ListSuppliers(ctx context.Context, db *sql.DB) ([]model.Supplier, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, contact_number, address, supplied_product FROM suppliers ORDER BY name COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var s model.Supplier
		if err := rows.Scan(&s.Name, &s.ContactNumber, &s.Address, &s.SuppliedProduct); err != nil {
			return nil, fmt.Errorf("scanning supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

// InsertSupplier inserts a supplier, or updates the details of the supplier
// with the same name.
func InsertSupplier(ctx context.Context, db *sql.DB, s model.Supplier) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO suppliers (name, contact_number, address, supplied_product) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
		     contact_number = excluded.contact_number,
		     address = excluded.address,
		     supplied_product = excluded.supplied_product`,
		s.Name, s.ContactNumber, s.Address, s.SuppliedProduct,
	)
	if err != nil {
		return fmt.Errorf("inserting supplier: %w", err)
	}
	return nil
}

// DeleteSupplierByName removes a supplier.
func DeleteSupplierByName(ctx context.Context, db *sql.DB, name string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM suppliers WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting supplier: %w", err)
	}
	return expectRow(result, "deleting supplier")
}
