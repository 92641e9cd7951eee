package query

import (
	"context"
	"log"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

type Handler struct {
	reader store.Reader
}

func NewHandler(reader store.Reader) *Handler {
	return &Handler{reader: reader}
}

func normalizePage(limit, offset int) (int, int, error) {
	if limit < 0 {
		return 0, 0, &order.ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if offset < 0 {
		return 0, 0, &order.ValidationError{Field: "offset", Reason: "must not be negative"}
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return limit, offset, nil
}

func validateAccount(ref ledger.AccountRef) error {
	if err := ref.Validate(); err != nil {
		return &order.ValidationError{Field: "account", Reason: "must name exactly one user or store"}
	}
	return nil
}

// Transactions

// ListTransactions returns one account's wallet log, newest first.
func (h *Handler) ListTransactions(ctx context.Context, ref ledger.AccountRef, f TransactionFilter) (*Page[ledger.Transaction], error) {
	if err := validateAccount(ref); err != nil {
		return nil, err
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && !f.Since.Before(f.Until) {
		return nil, &order.ValidationError{Field: "until", Reason: "must be after since"}
	}
	limit, offset, err := normalizePage(f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}

	txs, total, err := h.reader.ListTransactions(ctx, store.TransactionFilter{
		Account: ref,
		IsUp:    f.IsUp,
		OrderID: f.OrderID,
		Since:   f.Since,
		Until:   f.Until,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		log.Printf("[Query] Error listing transactions of %s: %v", ref, err)
		return nil, err
	}
	return newPage(txs, total, limit, offset), nil
}

// Orders

// canView reports whether actor may read o. Admins see everything.
func canView(o *order.Order, actor order.Actor) bool {
	switch actor.Role {
	case order.RoleBuyer:
		return actor.ID != "" && actor.ID == o.BuyerID
	case order.RoleStore:
		return actor.StoreID != "" && actor.StoreID == o.StoreID
	case order.RoleAdmin:
		return true
	}
	return false
}

// GetOrder returns the order with its items. Orders the actor may not see
// are reported as not found.
func (h *Handler) GetOrder(ctx context.Context, orderID string, actor order.Actor) (*OrderView, error) {
	o, err := h.reader.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(o, actor) {
		return nil, order.ErrOrderNotFound
	}

	items, err := h.reader.ListOrderItems(ctx, orderID)
	if err != nil {
		log.Printf("[Query] Error getting items of order %s: %v", orderID, err)
		return nil, err
	}
	if items == nil {
		items = []order.Item{}
	}
	return &OrderView{Order: *o, Items: items}, nil
}

// ListOrders returns the actor's orders, newest first.
func (h *Handler) ListOrders(ctx context.Context, actor order.Actor, f OrderFilter) (*Page[order.Order], error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, &order.ValidationError{Field: "status", Reason: "is not a known order status"}
	}
	limit, offset, err := normalizePage(f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}

	sf := store.OrderFilter{Status: f.Status, Limit: limit, Offset: offset}
	switch actor.Role {
	case order.RoleBuyer:
		if actor.ID == "" {
			return nil, order.ErrForbidden
		}
		sf.BuyerID = actor.ID
	case order.RoleStore:
		if actor.StoreID == "" {
			return nil, order.ErrForbidden
		}
		sf.StoreID = actor.StoreID
	case order.RoleAdmin:
		sf.BuyerID, sf.StoreID = f.BuyerID, f.StoreID
	default:
		return nil, order.ErrForbidden
	}

	orders, total, err := h.reader.ListOrders(ctx, sf)
	if err != nil {
		log.Printf("[Query] Error listing orders: %v", err)
		return nil, err
	}
	return newPage(orders, total, limit, offset), nil
}

// Accounts

// AccountSummary returns the live counters and the loyalty level they reach.
func (h *Handler) AccountSummary(ctx context.Context, ref ledger.AccountRef) (*AccountSummary, error) {
	if err := validateAccount(ref); err != nil {
		return nil, err
	}
	acct, err := h.reader.GetAccount(ctx, ref)
	if err != nil {
		return nil, err
	}
	levels, err := h.reader.ListLevels(ctx)
	if err != nil {
		log.Printf("[Query] Error listing levels: %v", err)
		return nil, err
	}

	summary := &AccountSummary{Account: ref, Wallet: acct.Wallet, Point: acct.Point}
	if l, ok := ledger.LevelFor(acct.Point, levels); ok {
		summary.Level = &l
	}
	return summary, nil
}

// AuditAccount checks that the wallet counter equals the signed sum of the
// account's transaction log.
func (h *Handler) AuditAccount(ctx context.Context, ref ledger.AccountRef) (*AuditResult, error) {
	if err := validateAccount(ref); err != nil {
		return nil, err
	}
	acct, err := h.reader.GetAccount(ctx, ref)
	if err != nil {
		return nil, err
	}
	sum, err := h.reader.SumTransactions(ctx, ref)
	if err != nil {
		return nil, err
	}

	drift := acct.Wallet.Sub(sum)
	result := &AuditResult{
		Account:  ref,
		Wallet:   acct.Wallet,
		LogSum:   sum,
		Drift:    drift,
		Balanced: drift.IsZero(),
	}
	if !result.Balanced {
		log.Printf("[Query] Audit mismatch on %s: wallet %s, log %s", ref, acct.Wallet, sum)
	}
	return result, nil
}
