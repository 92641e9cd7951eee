package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/cart"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store on PostgreSQL (lib/pq) or SQLite (go-sqlite3).
type SQLStore struct {
	db *sql.DB
	d  dialect
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open database. driver is DriverPostgres or DriverSQLite.
func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, d: d}, nil
}

// Open connects to the database named by driver and dsn.
func Open(driver, dsn string) (*SQLStore, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = ConnectPostgres(dsn)
	case DriverSQLite:
		db, err = OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, driver)
}

func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.schema()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Printf("[Store] Schema migrated (%s)", s.d.name)
	return nil
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer sqlTx.Rollback()

	if err := fn(&sqlTxStore{q: sqlTx, d: s.d}); err != nil {
		return classify(err)
	}
	return classify(sqlTx.Commit())
}

type sqlTxStore struct {
	q querier
	d dialect
}

func (t *sqlTxStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.q.ExecContext(ctx, t.d.rebind(query), args...)
}

// ============================================
// Cart
// ============================================

func (t *sqlTxStore) GetCart(ctx context.Context, cartID string) (*cart.Cart, error) {
	c := &cart.Cart{}
	err := t.q.QueryRowContext(ctx, t.d.rebind(
		`SELECT id, user_id, store_id, is_deleted FROM carts WHERE id = ?`+t.d.forUpdate),
		cartID,
	).Scan(&c.ID, &c.UserID, &c.StoreID, &c.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", cartID, err)
	}

	rows, err := t.q.QueryContext(ctx, t.d.rebind(
		`SELECT id, cart_id, product_id, variant_value_ids, count
		 FROM cart_items WHERE cart_id = ? ORDER BY id`),
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it       cart.Item
			variants string
		)
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &variants, &it.Count); err != nil {
			return nil, err
		}
		if it.VariantValueIDs, err = decodeIDs(variants); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (t *sqlTxStore) DeleteCart(ctx context.Context, cartID string) error {
	res, err := t.exec(ctx,
		`UPDATE carts SET is_deleted = ?, updated_at = ? WHERE id = ?`,
		true, time.Now().UTC(), cartID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if err := expectOne(res, cart.ErrCartNotFound); err != nil {
		return err
	}
	if _, err := t.exec(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return fmt.Errorf("failed to purge cart items: %w", err)
	}
	return nil
}

// ============================================
// Orders
// ============================================

func (t *sqlTxStore) InsertOrder(ctx context.Context, o *order.Order) error {
	_, err := t.exec(ctx,
		`INSERT INTO orders (id, user_id, store_id, commission_id, address, phone,
			amount_from_user, amount_from_store, amount_to_store, amount_to_platform,
			shipping_fee, is_paid_before, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.BuyerID, o.StoreID, o.CommissionID, o.Address, o.Phone,
		o.AmountFromUser, o.AmountFromStore, o.AmountToStore, o.AmountToPlatform,
		o.ShippingFee, o.IsPaidBefore, string(o.Status), o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (t *sqlTxStore) InsertOrderItems(ctx context.Context, items []order.Item) error {
	for _, it := range items {
		variants, err := encodeIDs(it.VariantValueIDs)
		if err != nil {
			return err
		}
		_, err = t.exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, variant_value_ids, count, is_deleted)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, it.OrderID, it.ProductID, variants, it.Count, it.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (t *sqlTxStore) GetOrderForUpdate(ctx context.Context, orderID string) (*order.Order, error) {
	return getOrder(ctx, t.q, t.d, orderID, true)
}

func (t *sqlTxStore) ListOrderItems(ctx context.Context, orderID string) ([]order.Item, error) {
	return listOrderItems(ctx, t.q, t.d, orderID)
}

func (t *sqlTxStore) CompareAndSetStatus(ctx context.Context, orderID string, from, to order.Status, now time.Time) error {
	res, err := t.exec(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), now.UTC(), orderID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return expectOne(res, order.ErrConflict)
}

func (t *sqlTxStore) SaveReturnRequest(ctx context.Context, orderID string, req *order.ReturnRequest) error {
	var decidedAt sql.NullTime
	if req.DecidedAt != nil {
		decidedAt = sql.NullTime{Time: req.DecidedAt.UTC(), Valid: true}
	}
	_, err := t.exec(ctx,
		`INSERT INTO return_requests (order_id, status, created_by, reason, created_at, decided_by, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (order_id) DO UPDATE SET
			status = excluded.status,
			created_by = excluded.created_by,
			reason = excluded.reason,
			created_at = excluded.created_at,
			decided_by = excluded.decided_by,
			decided_at = excluded.decided_at`,
		orderID, string(req.Status), req.CreatedBy, req.Reason, req.CreatedAt.UTC(), req.DecidedBy, decidedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save return request: %w", err)
	}
	return nil
}

// ============================================
// Ledger
// ============================================

func accountTable(account ledger.AccountRef) (string, error) {
	if err := account.Validate(); err != nil {
		return "", err
	}
	if account.Kind == ledger.AccountStore {
		return "stores", nil
	}
	return "users", nil
}

func (t *sqlTxStore) IncrementPoint(ctx context.Context, account ledger.AccountRef, delta int64) error {
	table, err := accountTable(account)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, `UPDATE `+table+` SET point = point + ? WHERE id = ?`, delta, account.ID)
	if err != nil {
		return fmt.Errorf("failed to increment point for %s: %w", account, err)
	}
	return expectOne(res, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, account))
}

func (t *sqlTxStore) IncrementWallet(ctx context.Context, account ledger.AccountRef, delta decimal.Decimal) error {
	table, err := accountTable(account)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, `UPDATE `+table+` SET e_wallet = `+t.d.money(`e_wallet + ?`)+` WHERE id = ?`, delta, account.ID)
	if err != nil {
		return fmt.Errorf("failed to increment wallet for %s: %w", account, err)
	}
	return expectOne(res, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, account))
}

func (t *sqlTxStore) AppendTransaction(ctx context.Context, tr ledger.Transaction) error {
	userID, storeID := accountColumns(tr.Account)
	var orderID sql.NullString
	if tr.OrderID != "" {
		orderID = sql.NullString{String: tr.OrderID, Valid: true}
	}
	_, err := t.exec(ctx,
		`INSERT INTO transactions (id, user_id, store_id, is_up, amount, code, order_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, userID, storeID, tr.IsUp, tr.Amount, tr.Code, orderID, tr.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (t *sqlTxStore) AdjustInventory(ctx context.Context, productID string, quantityDelta, soldDelta int) error {
	res, err := t.exec(ctx,
		`UPDATE products SET quantity = quantity + ?, sold = sold + ? WHERE id = ?`,
		quantityDelta, soldDelta, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust inventory for %s: %w", productID, err)
	}
	return expectOne(res, fmt.Errorf("%w: %s", order.ErrProductNotFound, productID))
}

// ============================================
// Helpers
// ============================================

// expectOne returns notFound when the statement touched no row.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func accountColumns(account ledger.AccountRef) (userID, storeID sql.NullString) {
	if account.Kind == ledger.AccountStore {
		return sql.NullString{}, sql.NullString{String: account.ID, Valid: true}
	}
	return sql.NullString{String: account.ID, Valid: true}, sql.NullString{}
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeIDs(s string) ([]string, error) {
	var ids []string
	if s == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("invalid variant value ids: %w", err)
	}
	return ids, nil
}
