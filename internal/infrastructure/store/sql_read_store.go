package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
)

const orderColumns = `o.id, o.user_id, o.store_id, o.commission_id, o.address, o.phone,
	o.amount_from_user, o.amount_from_store, o.amount_to_store, o.amount_to_platform,
	o.shipping_fee, o.is_paid_before, o.status, o.created_at, o.updated_at,
	r.status, r.created_by, r.reason, r.created_at, r.decided_by, r.decided_at`

const orderFrom = ` FROM orders o LEFT JOIN return_requests r ON r.order_id = o.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o          order.Order
		status     string
		rStatus    sql.NullString
		rBy        sql.NullString
		rReason    sql.NullString
		rAt        sql.NullTime
		rDecider   sql.NullString
		rDecidedAt sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.BuyerID, &o.StoreID, &o.CommissionID, &o.Address, &o.Phone,
		&o.AmountFromUser, &o.AmountFromStore, &o.AmountToStore, &o.AmountToPlatform,
		&o.ShippingFee, &o.IsPaidBefore, &status, &o.CreatedAt, &o.UpdatedAt,
		&rStatus, &rBy, &rReason, &rAt, &rDecider, &rDecidedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = order.Status(status)

	if rStatus.Valid {
		o.ReturnRequest = &order.ReturnRequest{
			Status:    order.ReturnStatus(rStatus.String),
			CreatedBy: rBy.String,
			Reason:    rReason.String,
			CreatedAt: rAt.Time,
			DecidedBy: rDecider.String,
		}
		if rDecidedAt.Valid {
			t := rDecidedAt.Time
			o.ReturnRequest.DecidedAt = &t
		}
	}
	return &o, nil
}

func getOrder(ctx context.Context, q querier, d dialect, orderID string, lock bool) (*order.Order, error) {
	query := `SELECT ` + orderColumns + orderFrom + ` WHERE o.id = ?`
	if lock {
		query += d.forUpdateOf("o")
	}
	o, err := scanOrder(q.QueryRowContext(ctx, d.rebind(query), orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	return o, nil
}

func listOrderItems(ctx context.Context, q querier, d dialect, orderID string) ([]order.Item, error) {
	rows, err := q.QueryContext(ctx, d.rebind(
		`SELECT id, order_id, product_id, variant_value_ids, count, is_deleted
		 FROM order_items WHERE order_id = ? ORDER BY id`),
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var (
			it       order.Item
			variants string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &variants, &it.Count, &it.IsDeleted); err != nil {
			return nil, err
		}
		if it.VariantValueIDs, err = decodeIDs(variants); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ============================================
// Orders
// ============================================

func (s *SQLStore) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	return getOrder(ctx, s.db, s.d, orderID, false)
}

func (s *SQLStore) ListOrderItems(ctx context.Context, orderID string) ([]order.Item, error) {
	return listOrderItems(ctx, s.db, s.d, orderID)
}

func (s *SQLStore) ListOrders(ctx context.Context, f OrderFilter) ([]order.Order, int, error) {
	var (
		where []string
		args  []any
	)
	if f.BuyerID != "" {
		where = append(where, "o.user_id = ?")
		args = append(args, f.BuyerID)
	}
	if f.StoreID != "" {
		where = append(where, "o.store_id = ?")
		args = append(args, f.StoreID)
	}
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, string(f.Status))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT COUNT(*) FROM orders o`+cond), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + orderFrom + cond + ` ORDER BY o.created_at DESC, o.id DESC`
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

// ============================================
// Ledger
// ============================================

func transactionWhere(f TransactionFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Account.Kind == ledger.AccountStore {
		where = append(where, "store_id = ?")
	} else {
		where = append(where, "user_id = ?")
	}
	args = append(args, f.Account.ID)

	if f.IsUp != nil {
		where = append(where, "is_up = ?")
		args = append(args, *f.IsUp)
	}
	if f.OrderID != "" {
		where = append(where, "order_id = ?")
		args = append(args, f.OrderID)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, f.Until.UTC())
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (s *SQLStore) ListTransactions(ctx context.Context, f TransactionFilter) ([]ledger.Transaction, int, error) {
	if err := f.Account.Validate(); err != nil {
		return nil, 0, err
	}
	cond, args := transactionWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT COUNT(*) FROM transactions`+cond), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT id, user_id, store_id, is_up, amount, code, order_id, created_at
		FROM transactions` + cond + ` ORDER BY created_at DESC, id DESC`
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		var (
			tr              ledger.Transaction
			userID, storeID sql.NullString
			orderID         sql.NullString
		)
		if err := rows.Scan(&tr.ID, &userID, &storeID, &tr.IsUp, &tr.Amount, &tr.Code, &orderID, &tr.CreatedAt); err != nil {
			return nil, 0, err
		}
		if storeID.Valid {
			tr.Account = ledger.Store(storeID.String)
		} else {
			tr.Account = ledger.User(userID.String)
		}
		tr.OrderID = orderID.String
		txs = append(txs, tr)
	}
	return txs, total, rows.Err()
}

func (s *SQLStore) SumTransactions(ctx context.Context, account ledger.AccountRef) (decimal.Decimal, error) {
	if err := account.Validate(); err != nil {
		return decimal.Zero, err
	}
	cond, args := transactionWhere(TransactionFilter{Account: account})

	var sum decimal.NullDecimal
	err := s.db.QueryRowContext(ctx, s.d.rebind(
		`SELECT `+s.d.money(`SUM(CASE WHEN is_up THEN amount ELSE -amount END)`)+` FROM transactions`+cond),
		args...,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (s *SQLStore) GetAccount(ctx context.Context, account ledger.AccountRef) (*ledger.Account, error) {
	table, err := accountTable(account)
	if err != nil {
		return nil, err
	}
	a := &ledger.Account{Ref: account}
	err = s.db.QueryRowContext(ctx, s.d.rebind(
		`SELECT e_wallet, point FROM `+table+` WHERE id = ?`),
		account.ID,
	).Scan(&a.Wallet, &a.Point)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", account, err)
	}
	return a, nil
}

func (s *SQLStore) ListLevels(ctx context.Context) ([]ledger.Level, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, min_point, discount FROM levels ORDER BY min_point ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var levels []ledger.Level
	for rows.Next() {
		var l ledger.Level
		if err := rows.Scan(&l.ID, &l.Name, &l.MinPoint, &l.Discount); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (s *SQLStore) GetContact(ctx context.Context, userID string) (*Contact, error) {
	c := &Contact{UserID: userID}
	err := s.db.QueryRowContext(ctx, s.d.rebind(
		`SELECT name, email FROM users WHERE id = ?`),
		userID,
	).Scan(&c.Name, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, ledger.User(userID))
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	if offset < 0 {
		offset = 0
	}
	return query + ` LIMIT ? OFFSET ?`, append(args, limit, offset)
}
