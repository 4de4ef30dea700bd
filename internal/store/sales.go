package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nvaprinting/stockroom/internal/model"
)

// InsertSaleLine records one line of a sale together with its header. The
// header is upserted, so inserting every line of a sale leaves one header row.
func InsertSaleLine(ctx context.Context, db *sql.DB, sale model.Sale, line model.SaleLine) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	user := model.CleanUser(sale.User)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pos_transactions (ref, user_id, total_amount, transaction_date,
		     payment_method, payment_ref, tendered_amount, change_amount)
		 VALUES (?, (SELECT id FROM users WHERE username = ? AND deleted_at IS NULL), ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ref) DO UPDATE SET
		     total_amount = excluded.total_amount,
		     payment_method = excluded.payment_method,
		     payment_ref = excluded.payment_ref,
		     tendered_amount = excluded.tendered_amount,
		     change_amount = excluded.change_amount`,
		sale.Ref, user, sale.Total, sale.Date, sale.PaymentMethod, sale.PaymentRef,
		sale.Tendered, sale.Change,
	)
	if err != nil {
		return fmt.Errorf("upserting sale header: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pos_sales (ref, user_id, item_id, quantity_sold, total_price, sales_date)
		 VALUES (?, (SELECT id FROM users WHERE username = ? AND deleted_at IS NULL),
		         (SELECT id FROM inventory_items WHERE id = ?), ?, ?, ?)`,
		sale.Ref, user, line.ItemID, line.Quantity, line.Total, sale.Date,
	)
	if err != nil {
		return fmt.Errorf("inserting sale line: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sale line: %w", err)
	}
	return nil
}

// SaleTotal returns the stored header total and line count of a sale.
func SaleTotal(ctx context.Context, db *sql.DB, ref string) (float64, int, error) {
	var total float64
	var lines int
	err := db.QueryRowContext(ctx,
		`SELECT t.total_amount, (SELECT COUNT(*) FROM pos_sales s WHERE s.ref = t.ref)
		 FROM pos_transactions t WHERE t.ref = ?`, ref,
	).Scan(&total, &lines)
	if err == sql.ErrNoRows {
		return 0, 0, fmt.Errorf("getting sale %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("getting sale: %w", err)
	}
	return total, lines, nil
}
