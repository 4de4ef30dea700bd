// Package migrate moves local snapshot data into the relational store and
// exports it as SQL. Each utility keeps going past single failures and
// reports how many records made it.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/snapshot"
	"github.com/nvaprinting/stockroom/internal/store"
)

// Result counts the outcome of a batch.
type Result struct {
	Total    int `json:"total"`
	Migrated int `json:"migrated"`
}

// Failed is the number of records that were not migrated.
func (r Result) Failed() int { return r.Total - r.Migrated }

// Items inserts items keeping their ids. Items without an id get one from
// the database.
func Items(ctx context.Context, db *sql.DB, items []model.Item) Result {
	res := Result{Total: len(items)}
	for _, item := range items {
		var err error
		if item.ID > 0 {
			err = store.InsertItemWithID(ctx, db, item)
		} else {
			_, err = store.InsertItem(ctx, db, item)
		}
		if err != nil {
			slog.Warn("item not migrated", "id", item.ID, "item", item.Name, "error", err)
			continue
		}
		res.Migrated++
	}
	slog.Info("item migration finished", "migrated", res.Migrated, "failed", res.Failed())
	return res
}

// Transactions inserts history records in order.
func Transactions(ctx context.Context, db *sql.DB, records []model.Transaction) Result {
	res := Result{Total: len(records)}
	for _, tx := range records {
		if err := store.InsertTransaction(ctx, db, tx); err != nil {
			slog.Warn("transaction not migrated", "item", tx.ItemName, "type", tx.Type, "error", err)
			continue
		}
		res.Migrated++
	}
	slog.Info("transaction migration finished", "migrated", res.Migrated, "failed", res.Failed())
	return res
}

// ItemsFromFile migrates a snapshot file of items. A corrupt primary file
// falls back to its backup.
func ItemsFromFile(ctx context.Context, db *sql.DB, path string) (Result, error) {
	items, err := loadSnapshot[model.Item](path)
	if err != nil {
		return Result{}, err
	}
	return Items(ctx, db, items), nil
}

// TransactionsFromFile migrates a transaction log file.
func TransactionsFromFile(ctx context.Context, db *sql.DB, path string) (Result, error) {
	records, err := loadSnapshot[model.Transaction](path)
	if err != nil {
		return Result{}, err
	}
	return Transactions(ctx, db, records), nil
}

func loadSnapshot[T any](path string) ([]T, error) {
	file := snapshot.New[T](path)
	records, err := file.Load()
	if err == nil {
		return records, nil
	}
	if !file.HasBackup() {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	slog.Warn("snapshot unreadable, using backup", "path", path, "error", err)
	records, berr := file.LoadBackup()
	if berr != nil {
		return nil, fmt.Errorf("reading %s and its backup: %w", path, berr)
	}
	return records, nil
}
