package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'cashier'
                  CHECK (role IN ('admin', 'manager', 'production', 'cashier')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS inventory_items (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL,
    category        TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    quantity        INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    min_stock_level INTEGER NOT NULL DEFAULT 0,
    unit_price      REAL NOT NULL DEFAULT 0 CHECK (unit_price >= 0),
    supplier        TEXT NOT NULL DEFAULT '',
    last_updated    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    stock_in        INTEGER NOT NULL DEFAULT 0,
    stock_out       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_inventory_items_name ON inventory_items(name);

CREATE TABLE IF NOT EXISTS suppliers (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL UNIQUE COLLATE NOCASE,
    contact_number   TEXT NOT NULL DEFAULT '',
    address          TEXT NOT NULL DEFAULT '',
    supplied_product TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS categories (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transactions (
    id           INTEGER PRIMARY KEY,
    item_id      INTEGER REFERENCES inventory_items(id) ON DELETE SET NULL,
    user_id      INTEGER REFERENCES users(id),
    quantity     INTEGER NOT NULL,
    last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    description  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS archive (
    id           INTEGER PRIMARY KEY,
    item_id      INTEGER REFERENCES inventory_items(id) ON DELETE SET NULL,
    archive_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    archive_note TEXT NOT NULL CHECK (length(archive_note) <= 250)
);

CREATE TABLE IF NOT EXISTS stock_alerts (
    id                 INTEGER PRIMARY KEY,
    item_id            INTEGER REFERENCES inventory_items(id) ON DELETE CASCADE,
    alert_date         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    minimum_stock      INTEGER NOT NULL,
    status_description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pos_transactions (
    ref              TEXT PRIMARY KEY,
    user_id          INTEGER REFERENCES users(id),
    total_amount     REAL NOT NULL,
    transaction_date DATETIME NOT NULL,
    payment_method   TEXT NOT NULL,
    payment_ref      TEXT NOT NULL DEFAULT '',
    tendered_amount  REAL NOT NULL DEFAULT 0,
    change_amount    REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS pos_sales (
    id            INTEGER PRIMARY KEY,
    ref           TEXT NOT NULL REFERENCES pos_transactions(ref),
    user_id       INTEGER REFERENCES users(id),
    item_id       INTEGER REFERENCES inventory_items(id) ON DELETE SET NULL,
    quantity_sold INTEGER NOT NULL CHECK (quantity_sold > 0),
    total_price   REAL NOT NULL,
    sales_date    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pos_sales_ref ON pos_sales(ref);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return Migrate(db)
}
