package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/cart"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

// mockTx works on a private copy of the store state. The parent lock is
// held for its whole lifetime.
type mockTx struct {
	m  *MockStore
	st *state
}

var _ store.Tx = (*mockTx)(nil)

func (t *mockTx) GetCart(ctx context.Context, cartID string) (*cart.Cart, error) {
	c, ok := t.st.carts[cartID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	c.Items = append([]cart.Item(nil), c.Items...)
	return &c, nil
}

func (t *mockTx) DeleteCart(ctx context.Context, cartID string) error {
	c, ok := t.st.carts[cartID]
	if !ok {
		return cart.ErrCartNotFound
	}
	c.IsDeleted = true
	c.Items = nil
	t.st.carts[cartID] = c
	return nil
}

func (t *mockTx) InsertOrder(ctx context.Context, o *order.Order) error {
	if _, exists := t.st.orders[o.ID]; exists {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	t.st.orders[o.ID] = *o
	return nil
}

func (t *mockTx) InsertOrderItems(ctx context.Context, items []order.Item) error {
	for _, it := range items {
		t.st.items[it.OrderID] = append(t.st.items[it.OrderID], it)
	}
	return nil
}

func (t *mockTx) GetOrderForUpdate(ctx context.Context, orderID string) (*order.Order, error) {
	return getOrder(t.st, orderID)
}

func (t *mockTx) ListOrderItems(ctx context.Context, orderID string) ([]order.Item, error) {
	return append([]order.Item(nil), t.st.items[orderID]...), nil
}

func (t *mockTx) CompareAndSetStatus(ctx context.Context, orderID string, from, to order.Status, now time.Time) error {
	if t.m.CompareAndSetStatusErr != nil {
		return t.m.CompareAndSetStatusErr
	}
	o, ok := t.st.orders[orderID]
	if !ok || o.Status != from {
		return order.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = now
	t.st.orders[orderID] = o
	return nil
}

func (t *mockTx) SaveReturnRequest(ctx context.Context, orderID string, req *order.ReturnRequest) error {
	if t.m.SaveReturnRequestErr != nil {
		return t.m.SaveReturnRequestErr
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound
	}
	rr := *req
	o.ReturnRequest = &rr
	t.st.orders[orderID] = o
	return nil
}

func (t *mockTx) IncrementPoint(ctx context.Context, ref ledger.AccountRef, delta int64) error {
	if t.m.IncrementPointErr != nil {
		return t.m.IncrementPointErr
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	accounts := t.st.accounts(ref)
	a, ok := accounts[ref.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, ref)
	}
	a.point += delta
	accounts[ref.ID] = a
	return nil
}

func (t *mockTx) IncrementWallet(ctx context.Context, ref ledger.AccountRef, delta decimal.Decimal) error {
	t.m.WalletCalls = append(t.m.WalletCalls, WalletCall{Account: ref, Delta: delta})
	if t.m.IncrementWalletErr != nil {
		return t.m.IncrementWalletErr
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	accounts := t.st.accounts(ref)
	a, ok := accounts[ref.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, ref)
	}
	a.wallet = a.wallet.Add(delta)
	accounts[ref.ID] = a
	return nil
}

func (t *mockTx) AppendTransaction(ctx context.Context, tr ledger.Transaction) error {
	if t.m.AppendTransactionErr != nil {
		return t.m.AppendTransactionErr
	}
	if !tr.Amount.IsPositive() {
		return ledger.ErrInvalidAmount
	}
	t.st.transactions = append(t.st.transactions, tr)
	return nil
}

func (t *mockTx) AdjustInventory(ctx context.Context, productID string, quantityDelta, soldDelta int) error {
	t.m.InventoryCalls = append(t.m.InventoryCalls, InventoryCall{
		ProductID:     productID,
		QuantityDelta: quantityDelta,
		SoldDelta:     soldDelta,
	})
	if t.m.AdjustInventoryErr != nil {
		return t.m.AdjustInventoryErr
	}
	p, ok := t.st.products[productID]
	if !ok {
		return fmt.Errorf("%w: %s", order.ErrProductNotFound, productID)
	}
	p.Quantity += quantityDelta
	p.Sold += soldDelta
	t.st.products[productID] = p
	return nil
}

func (t *mockTx) AppendEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	t.m.AppendEventCalls = append(t.m.AppendEventCalls, AppendEventCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})
	if t.m.AppendEventErr != nil {
		return nil, t.m.AppendEventErr
	}

	version := 1
	for _, e := range t.st.events {
		if e.AggregateID == aggregateID && e.Version >= version {
			version = e.Version + 1
		}
	}
	event, err := store.NewEvent(aggregateID, aggregateType, eventType, data, version, time.Now())
	if err != nil {
		return nil, err
	}
	t.st.events = append(t.st.events, event)
	return &event, nil
}

func (t *mockTx) PendingEvents(ctx context.Context, limit int) ([]store.Event, error) {
	var pending []store.Event
	for _, e := range t.st.events {
		if e.PublishedAt != nil {
			continue
		}
		pending = append(pending, e)
		if limit > 0 && len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (t *mockTx) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if t.m.MarkPublishedErr != nil {
		return t.m.MarkPublishedErr
	}
	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for i := range t.st.events {
		if marked[t.st.events[i].ID] {
			published := at
			t.st.events[i].PublishedAt = &published
		}
	}
	return nil
}
