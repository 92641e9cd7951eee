package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
)

// Ledger is the slice of the store transaction the applier writes to.
type Ledger interface {
	ListOrderItems(ctx context.Context, orderID string) ([]order.Item, error)
	IncrementPoint(ctx context.Context, account ledger.AccountRef, delta int64) error
	IncrementWallet(ctx context.Context, account ledger.AccountRef, delta decimal.Decimal) error
	AppendTransaction(ctx context.Context, t ledger.Transaction) error
	AdjustInventory(ctx context.Context, productID string, quantityDelta, soldDelta int) error
}

// Applier executes the intents of one accepted order change. It must run
// inside the same database transaction as the status write so that a
// failure here rolls the status back too.
type Applier struct {
	now func() time.Time
}

func NewApplier(now func() time.Time) *Applier {
	if now == nil {
		now = time.Now
	}
	return &Applier{now: now}
}

// Apply runs points, then wallet movements, then inventory. Any failure is
// reported as order.ErrReconciliationFailed wrapping the cause.
func (a *Applier) Apply(ctx context.Context, l Ledger, o *order.Order, in order.Intents) error {
	if in.Empty() {
		return nil
	}
	for _, p := range in.Points {
		if p.Delta == 0 {
			continue
		}
		if err := l.IncrementPoint(ctx, p.Account, p.Delta); err != nil {
			return fail("point "+p.Account.String(), err)
		}
	}

	for _, w := range in.Wallet {
		if w.Amount.IsZero() {
			continue
		}
		// The log entry goes in first so audits never see an unexplained balance.
		t, err := ledger.NewTransaction(w.Account, w.IsUp, w.Amount, o.ID, a.now())
		if err != nil {
			return fail("wallet "+w.Account.String(), err)
		}
		if err := l.AppendTransaction(ctx, t); err != nil {
			return fail("wallet "+w.Account.String(), err)
		}
		if err := l.IncrementWallet(ctx, w.Account, t.Signed()); err != nil {
			return fail("wallet "+w.Account.String(), err)
		}
	}

	if in.Inventory == order.InventoryNone {
		return nil
	}
	items, err := l.ListOrderItems(ctx, o.ID)
	if err != nil {
		return fail("inventory", err)
	}
	for _, it := range items {
		if it.IsDeleted {
			continue
		}
		qty, sold := -it.Count, it.Count
		if in.Inventory == order.InventoryRestock {
			qty, sold = it.Count, -it.Count
		}
		if err := l.AdjustInventory(ctx, it.ProductID, qty, sold); err != nil {
			return fail("inventory "+it.ProductID, err)
		}
	}
	return nil
}

func fail(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", order.ErrReconciliationFailed, step, err)
}
