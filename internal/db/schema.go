package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		picture_url TEXT NOT NULL DEFAULT '',
		price       NUMERIC(12, 2) NOT NULL,
		stock       INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id         TEXT PRIMARY KEY,
		product_id TEXT NOT NULL UNIQUE REFERENCES products(id) ON DELETE CASCADE,
		quantity   INTEGER NOT NULL CHECK (quantity >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id            SERIAL PRIMARY KEY,
		reference     TEXT NOT NULL UNIQUE,
		delivery_date DATE NOT NULL,
		total_amount  NUMERIC(12, 2) NOT NULL,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id           SERIAL PRIMARY KEY,
		order_id     INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id   TEXT NOT NULL,
		product_name TEXT NOT NULL,
		picture_url  TEXT NOT NULL DEFAULT '',
		quantity     INTEGER NOT NULL,
		price        NUMERIC(12, 2) NOT NULL
	)`,
}

// Migrate creates the storefront tables when they are missing.
func Migrate(ctx context.Context, database *PostgresDB) error {
	for _, stmt := range schema {
		if _, err := database.Conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
