package query

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store/mocks"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestQueryHandler() (*Handler, *mocks.MockStore) {
	s := mocks.NewMockStore()
	s.AddUser("buyer-1", "Buyer One", "buyer@example.com")
	s.AddUser("buyer-2", "Buyer Two", "two@example.com")
	s.AddStore("store-1")
	s.AddStore("store-2")
	return NewHandler(s), s
}

func seedTransactions(t *testing.T, s *mocks.MockStore, ref ledger.AccountRef, entries ...ledger.Transaction) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		for _, e := range entries {
			e.Account = ref
			if err := tx.AppendTransaction(context.Background(), e); err != nil {
				return err
			}
			if err := tx.IncrementWallet(context.Background(), ref, e.Signed()); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func entry(id string, isUp bool, amount int64, orderID string, at time.Time) ledger.Transaction {
	return ledger.Transaction{ID: id, IsUp: isUp, Amount: decimal.NewFromInt(amount), OrderID: orderID, CreatedAt: at}
}

func seedOrder(s *mocks.MockStore, id, buyerID, storeID string, status order.Status, createdAt time.Time) {
	s.SetOrder(order.Order{
		ID:        id,
		BuyerID:   buyerID,
		StoreID:   storeID,
		Status:    status,
		CreatedAt: createdAt,
	}, []order.Item{{ID: id + "-item", OrderID: id, ProductID: "product-1", Count: 2}})
}

// ============================================
// Transaction Query Tests
// ============================================

func TestHandler_ListTransactions_NewestFirst(t *testing.T) {
	handler, s := newTestQueryHandler()
	buyer := ledger.User("buyer-1")
	seedTransactions(t, s, buyer,
		entry("tx-1", true, 100, "order-1", testNow.Add(-3*time.Hour)),
		entry("tx-2", false, 40, "order-2", testNow.Add(-2*time.Hour)),
		entry("tx-3", true, 10, "order-3", testNow.Add(-time.Hour)),
	)
	seedTransactions(t, s, ledger.User("buyer-2"), entry("tx-other", true, 5, "order-9", testNow))

	page, err := handler.ListTransactions(context.Background(), buyer, TransactionFilter{})

	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, DefaultPageSize, page.Limit)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "tx-3", page.Items[0].ID)
	assert.Equal(t, "tx-1", page.Items[2].ID)
}

func TestHandler_ListTransactions_Filters(t *testing.T) {
	handler, s := newTestQueryHandler()
	storeRef := ledger.Store("store-1")
	seedTransactions(t, s, storeRef,
		entry("tx-1", true, 100, "order-1", testNow.Add(-3*time.Hour)),
		entry("tx-2", false, 40, "order-1", testNow.Add(-2*time.Hour)),
		entry("tx-3", true, 10, "order-3", testNow.Add(-time.Hour)),
	)
	up := true

	tests := []struct {
		name    string
		filter  TransactionFilter
		wantIDs []string
		total   int
	}{
		{name: "credits only", filter: TransactionFilter{IsUp: &up}, wantIDs: []string{"tx-3", "tx-1"}, total: 2},
		{name: "by order", filter: TransactionFilter{OrderID: "order-1"}, wantIDs: []string{"tx-2", "tx-1"}, total: 2},
		{name: "since", filter: TransactionFilter{Since: testNow.Add(-2 * time.Hour)}, wantIDs: []string{"tx-3", "tx-2"}, total: 2},
		{name: "until is exclusive", filter: TransactionFilter{Until: testNow.Add(-2 * time.Hour)}, wantIDs: []string{"tx-1"}, total: 1},
		{name: "paged", filter: TransactionFilter{Limit: 1, Offset: 1}, wantIDs: []string{"tx-2"}, total: 3},
		{name: "past the end", filter: TransactionFilter{Offset: 10}, wantIDs: []string{}, total: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := handler.ListTransactions(context.Background(), storeRef, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(page.Items))
			for _, tx := range page.Items {
				ids = append(ids, tx.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.total, page.Total)
			assert.NotNil(t, page.Items)
		})
	}
}

func TestHandler_ListTransactions_Validation(t *testing.T) {
	handler, _ := newTestQueryHandler()
	ctx := context.Background()

	tests := []struct {
		name   string
		ref    ledger.AccountRef
		filter TransactionFilter
	}{
		{name: "empty account", ref: ledger.AccountRef{}},
		{name: "unknown kind", ref: ledger.AccountRef{Kind: "bank", ID: "x"}},
		{name: "negative limit", ref: ledger.User("buyer-1"), filter: TransactionFilter{Limit: -1}},
		{name: "negative offset", ref: ledger.User("buyer-1"), filter: TransactionFilter{Offset: -1}},
		{name: "inverted range", ref: ledger.User("buyer-1"), filter: TransactionFilter{Since: testNow, Until: testNow.Add(-time.Hour)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := handler.ListTransactions(ctx, tt.ref, tt.filter)
			assert.ErrorIs(t, err, order.ErrValidation)
			assert.Nil(t, page)
		})
	}
}

func TestHandler_ListTransactions_CapsPageSize(t *testing.T) {
	handler, _ := newTestQueryHandler()

	page, err := handler.ListTransactions(context.Background(), ledger.User("buyer-1"), TransactionFilter{Limit: 1000})

	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Empty(t, page.Items)
}

// ============================================
// Order Query Tests
// ============================================

func TestHandler_GetOrder_Visibility(t *testing.T) {
	handler, s := newTestQueryHandler()
	seedOrder(s, "order-1", "buyer-1", "store-1", order.StatusProcessing, testNow)

	tests := []struct {
		name    string
		actor   order.Actor
		visible bool
	}{
		{name: "owning buyer", actor: order.Buyer("buyer-1"), visible: true},
		{name: "other buyer", actor: order.Buyer("buyer-2")},
		{name: "owning store", actor: order.StoreStaff("staff-1", "store-1"), visible: true},
		{name: "other store", actor: order.StoreStaff("staff-2", "store-2")},
		{name: "admin", actor: order.Admin("admin-1"), visible: true},
		{name: "no role", actor: order.Actor{ID: "buyer-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := handler.GetOrder(context.Background(), "order-1", tt.actor)
			if !tt.visible {
				assert.ErrorIs(t, err, order.ErrOrderNotFound)
				assert.Nil(t, view)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "order-1", view.ID)
			require.Len(t, view.Items, 1)
			assert.Equal(t, 2, view.Items[0].Count)
		})
	}
}

func TestHandler_GetOrder_NotFound(t *testing.T) {
	handler, _ := newTestQueryHandler()

	view, err := handler.GetOrder(context.Background(), "non-existent", order.Admin("admin-1"))

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	assert.Nil(t, view)
}

func TestHandler_ListOrders_ScopedToActor(t *testing.T) {
	handler, s := newTestQueryHandler()
	seedOrder(s, "order-1", "buyer-1", "store-1", order.StatusDelivered, testNow.Add(-2*time.Hour))
	seedOrder(s, "order-2", "buyer-1", "store-2", order.StatusNotProcessed, testNow.Add(-time.Hour))
	seedOrder(s, "order-3", "buyer-2", "store-1", order.StatusNotProcessed, testNow)
	ctx := context.Background()

	page, err := handler.ListOrders(ctx, order.Buyer("buyer-1"), OrderFilter{StoreID: "store-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "buyer filter overrides requested scope")
	assert.Equal(t, "order-2", page.Items[0].ID)

	page, err = handler.ListOrders(ctx, order.StoreStaff("staff-1", "store-1"), OrderFilter{Status: order.StatusNotProcessed})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "order-3", page.Items[0].ID)

	page, err = handler.ListOrders(ctx, order.Admin("admin-1"), OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	page, err = handler.ListOrders(ctx, order.Admin("admin-1"), OrderFilter{BuyerID: "buyer-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = handler.ListOrders(ctx, order.Admin("admin-1"), OrderFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "order-1", page.Items[0].ID)
}

func TestHandler_ListOrders_Errors(t *testing.T) {
	handler, _ := newTestQueryHandler()
	ctx := context.Background()

	_, err := handler.ListOrders(ctx, order.Buyer("buyer-1"), OrderFilter{Status: "Lost"})
	assert.ErrorIs(t, err, order.ErrValidation)

	_, err = handler.ListOrders(ctx, order.StoreStaff("staff-1", ""), OrderFilter{})
	assert.ErrorIs(t, err, order.ErrForbidden)

	_, err = handler.ListOrders(ctx, order.Actor{}, OrderFilter{})
	assert.ErrorIs(t, err, order.ErrForbidden)
}

// ============================================
// Account Query Tests
// ============================================

func TestHandler_AccountSummary(t *testing.T) {
	handler, s := newTestQueryHandler()
	s.AddLevel(ledger.Level{ID: "bronze", Name: "Bronze", MinPoint: 0})
	s.AddLevel(ledger.Level{ID: "silver", Name: "Silver", MinPoint: 5, Discount: decimal.NewFromInt(5)})
	s.AddLevel(ledger.Level{ID: "gold", Name: "Gold", MinPoint: 20, Discount: decimal.NewFromInt(10)})
	s.SetWallet(ledger.User("buyer-1"), decimal.NewFromInt(1500))
	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.IncrementPoint(context.Background(), ledger.User("buyer-1"), 7)
	})
	require.NoError(t, err)

	summary, err := handler.AccountSummary(context.Background(), ledger.User("buyer-1"))

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1500).Equal(summary.Wallet))
	assert.Equal(t, int64(7), summary.Point)
	require.NotNil(t, summary.Level)
	assert.Equal(t, "silver", summary.Level.ID)
}

func TestHandler_AccountSummary_NoLevels(t *testing.T) {
	handler, _ := newTestQueryHandler()

	summary, err := handler.AccountSummary(context.Background(), ledger.Store("store-1"))

	require.NoError(t, err)
	assert.Nil(t, summary.Level)
	assert.True(t, summary.Wallet.IsZero())
}

func TestHandler_AccountSummary_UnknownAccount(t *testing.T) {
	handler, _ := newTestQueryHandler()

	_, err := handler.AccountSummary(context.Background(), ledger.User("ghost"))

	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.Equal(t, order.KindNotFound, order.KindOf(err))
}

func TestHandler_AuditAccount_Balanced(t *testing.T) {
	handler, s := newTestQueryHandler()
	ref := ledger.Store("store-1")
	seedTransactions(t, s, ref,
		entry("tx-1", true, 81000, "order-1", testNow),
		entry("tx-2", false, 90000, "order-1", testNow.Add(time.Minute)),
	)

	result, err := handler.AuditAccount(context.Background(), ref)

	require.NoError(t, err)
	assert.True(t, result.Balanced)
	assert.True(t, decimal.NewFromInt(-9000).Equal(result.Wallet))
	assert.True(t, result.Wallet.Equal(result.LogSum))
	assert.True(t, result.Drift.IsZero())
}

func TestHandler_AuditAccount_Drift(t *testing.T) {
	handler, s := newTestQueryHandler()
	ref := ledger.User("buyer-1")
	seedTransactions(t, s, ref, entry("tx-1", true, 100, "order-1", testNow))
	s.SetWallet(ref, decimal.NewFromInt(250))

	result, err := handler.AuditAccount(context.Background(), ref)

	require.NoError(t, err)
	assert.False(t, result.Balanced)
	assert.True(t, decimal.NewFromInt(150).Equal(result.Drift))
}
