package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// dialect holds the few places where PostgreSQL and SQLite disagree.
// Queries are written with ? placeholders and rebound for PostgreSQL.
type dialect struct {
	name       string
	forUpdate  string
	skipLocked string
}

var (
	postgresDialect = dialect{
		name:       DriverPostgres,
		forUpdate:  " FOR UPDATE",
		skipLocked: " FOR UPDATE SKIP LOCKED",
	}
	// SQLite serializes writers with BEGIN IMMEDIATE, so row locks are not needed.
	sqliteDialect = dialect{
		name: DriverSQLite,
	}
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverPostgres:
		return postgresDialect, nil
	case DriverSQLite:
		return sqliteDialect, nil
	}
	return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// forUpdateOf locks only the named table's rows, which PostgreSQL requires
// when the query has an outer join.
func (d dialect) forUpdateOf(alias string) string {
	if d.forUpdate == "" {
		return ""
	}
	return d.forUpdate + " OF " + alias
}

func (d dialect) rebind(query string) string {
	if d.name != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// money wraps an arithmetic expression on a NUMERIC(20,2) column. SQLite
// stores such columns as REAL, so results are rounded back to cents to keep
// wallets equal to the sum of their transactions.
func (d dialect) money(expr string) string {
	if d.name == DriverSQLite {
		return "ROUND(" + expr + ", 2)"
	}
	return expr
}

// schema returns the DDL for the dialect. SQLite only parses TIMESTAMP
// columns back into time.Time, so the PostgreSQL type is swapped.
func (d dialect) schema() string {
	if d.name == DriverSQLite {
		return strings.ReplaceAll(schemaDDL, "TIMESTAMPTZ", "TIMESTAMP")
	}
	return schemaDDL
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	e_wallet NUMERIC(20,2) NOT NULL DEFAULT 0,
	point BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS stores (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	owner_id TEXT NOT NULL DEFAULT '',
	e_wallet NUMERIC(20,2) NOT NULL DEFAULT 0,
	point BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 0,
	sold INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS levels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	min_point BIGINT NOT NULL,
	discount NUMERIC(5,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS carts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	store_id TEXT NOT NULL,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
	id TEXT PRIMARY KEY,
	cart_id TEXT NOT NULL REFERENCES carts(id),
	product_id TEXT NOT NULL,
	variant_value_ids TEXT NOT NULL DEFAULT '[]',
	count INTEGER NOT NULL CHECK (count > 0)
);

CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	store_id TEXT NOT NULL,
	commission_id TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL,
	phone TEXT NOT NULL,
	amount_from_user NUMERIC(20,2) NOT NULL,
	amount_from_store NUMERIC(20,2) NOT NULL,
	amount_to_store NUMERIC(20,2) NOT NULL,
	amount_to_platform NUMERIC(20,2) NOT NULL,
	shipping_fee NUMERIC(20,2) NOT NULL DEFAULT 0,
	is_paid_before BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_store ON orders(store_id, created_at);

CREATE TABLE IF NOT EXISTS order_items (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL REFERENCES orders(id),
	product_id TEXT NOT NULL,
	variant_value_ids TEXT NOT NULL DEFAULT '[]',
	count INTEGER NOT NULL CHECK (count > 0),
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS return_requests (
	order_id TEXT PRIMARY KEY REFERENCES orders(id),
	status TEXT NOT NULL,
	created_by TEXT NOT NULL,
	reason TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	decided_by TEXT NOT NULL DEFAULT '',
	decided_at TIMESTAMPTZ
);

-- Append only: nothing updates or deletes rows here.
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	store_id TEXT,
	is_up BOOLEAN NOT NULL,
	amount NUMERIC(20,2) NOT NULL CHECK (amount > 0),
	code TEXT NOT NULL DEFAULT '',
	order_id TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	CHECK ((user_id IS NULL) <> (store_id IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_store ON transactions(store_id, created_at);

CREATE TABLE IF NOT EXISTS outbox (
	id TEXT PRIMARY KEY,
	aggregate_id TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	event_type TEXT NOT NULL,
	data TEXT NOT NULL,
	version INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(published_at, created_at);
`

// OpenSQLite opens a SQLite database. Use ":memory:" for tests.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, path+"?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and makes
	// writers queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// classify tags retryable driver errors with ErrTransient.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
	}
	return err
}
