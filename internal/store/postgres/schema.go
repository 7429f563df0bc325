// Package postgres provides the PostgreSQL-backed implementation of the
// session store. One [pgxpool.Pool] serves both tables:
//
//   - sessions — the mutable per-call drafts, compare-and-swapped on a
//     version column so concurrent webhook retries for the same call cannot
//     lose updates.
//   - final_orders — immutable confirmed orders written by the finalizer.
//
// [Migrate] runs at startup via CREATE TABLE IF NOT EXISTS.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    call_id        TEXT         PRIMARY KEY,
    restaurant     TEXT         NOT NULL DEFAULT '',
    state          TEXT         NOT NULL,
    cart           JSONB        NOT NULL DEFAULT '{}',
    fulfillment    TEXT         NOT NULL DEFAULT '',
    customer_name  TEXT         NOT NULL DEFAULT '',
    customer_phone TEXT         NOT NULL DEFAULT '',
    address        TEXT         NOT NULL DEFAULT '',
    fail_count     INT          NOT NULL DEFAULT 0,
    lifecycle      TEXT         NOT NULL,
    version        BIGINT       NOT NULL DEFAULT 1,
    created_at     TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_lifecycle
    ON sessions (lifecycle);
`

const ddlFinalOrders = `
CREATE TABLE IF NOT EXISTS final_orders (
    id             TEXT         PRIMARY KEY,
    call_id        TEXT         NOT NULL,
    restaurant     TEXT         NOT NULL DEFAULT '',
    fulfillment    TEXT         NOT NULL,
    customer_name  TEXT         NOT NULL,
    customer_phone TEXT         NOT NULL,
    address        TEXT         NOT NULL DEFAULT '',
    items          JSONB        NOT NULL,
    total_cents    BIGINT       NOT NULL,
    created_at     TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_final_orders_call_id
    ON final_orders (call_id);

CREATE INDEX IF NOT EXISTS idx_final_orders_created_at
    ON final_orders (created_at);
`

// Migrate ensures all required tables and indexes exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []string{ddlSessions, ddlFinalOrders} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("postgres store: migrate: %w", err)
		}
	}
	return nil
}
