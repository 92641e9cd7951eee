package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
)

// ============================================
// NewReturnRequest Tests
// ============================================

func TestOrder_NewReturnRequest_Success(t *testing.T) {
	o := newTestOrder(StatusDelivered)

	req, err := o.NewReturnRequest(Buyer("buyer-1"), "  wrong size  ", testNow)

	require.NoError(t, err)
	assert.Equal(t, ReturnPending, req.Status)
	assert.Equal(t, "buyer-1", req.CreatedBy)
	assert.Equal(t, "wrong size", req.Reason)
	assert.Equal(t, testNow, req.CreatedAt)
	assert.Nil(t, req.DecidedAt)
	assert.Nil(t, o.ReturnRequest, "request must not be attached until persisted")
}

func TestOrder_NewReturnRequest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		prior   *ReturnRequest
		actor   Actor
		reason  string
		wantErr error
	}{
		{"store cannot request", StatusDelivered, nil, StoreStaff("staff-1", "store-1"), "x", ErrForbidden},
		{"admin cannot request", StatusDelivered, nil, Admin("admin-1"), "x", ErrForbidden},
		{"other buyer", StatusDelivered, nil, Buyer("buyer-2"), "x", ErrForbidden},
		{"blank reason", StatusDelivered, nil, Buyer("buyer-1"), "   ", ErrValidation},
		{"not delivered", StatusShipped, nil, Buyer("buyer-1"), "x", ErrNotDelivered},
		{"already returned", StatusReturned, nil, Buyer("buyer-1"), "x", ErrNotDelivered},
		{"pending exists", StatusDelivered, &ReturnRequest{Status: ReturnPending}, Buyer("buyer-1"), "x", ErrReturnPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(tt.status)
			o.ReturnRequest = tt.prior

			_, err := o.NewReturnRequest(tt.actor, tt.reason, testNow)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOrder_NewReturnRequest_ReplacesRejected(t *testing.T) {
	o := newTestOrder(StatusDelivered)
	decided := testNow.Add(-time.Hour)
	o.ReturnRequest = &ReturnRequest{Status: ReturnRejected, DecidedAt: &decided}

	req, err := o.NewReturnRequest(Buyer("buyer-1"), "still broken", testNow)

	require.NoError(t, err)
	assert.Equal(t, ReturnPending, req.Status)
}

// ============================================
// DecideReturn Tests
// ============================================

func pendingReturnOrder() *Order {
	o := newTestOrder(StatusDelivered)
	o.IsPaidBefore = true
	o.ReturnRequest = &ReturnRequest{
		Status:    ReturnPending,
		CreatedBy: "buyer-1",
		Reason:    "damaged",
		CreatedAt: testNow.Add(-time.Hour),
	}
	return o
}

func TestDecideReturn_Approve(t *testing.T) {
	o := pendingReturnOrder()

	rd, err := DecideReturn(o, ReturnApproved, StoreStaff("staff-1", "store-1"), testNow)

	require.NoError(t, err)
	assert.Equal(t, ReturnApproved, rd.Request.Status)
	assert.Equal(t, "staff-1", rd.Request.DecidedBy)
	require.NotNil(t, rd.Request.DecidedAt)
	assert.Equal(t, testNow, *rd.Request.DecidedAt)
	assert.Equal(t, "damaged", rd.Request.Reason)

	assert.True(t, rd.Decision.Changed)
	assert.Equal(t, StatusDelivered, rd.Decision.From)
	assert.Equal(t, StatusReturned, rd.Decision.To)
	assert.Equal(t, InventoryRestock, rd.Decision.Intents.Inventory)

	// store gives back amountToStore + amountFromStore, buyer gets amountFromUser
	require.Len(t, rd.Decision.Intents.Wallet, 2)
	var storeDebit, buyerCredit WalletIntent
	for _, w := range rd.Decision.Intents.Wallet {
		switch w.Account {
		case ledger.Store("store-1"):
			storeDebit = w
		case ledger.User("buyer-1"):
			buyerCredit = w
		}
	}
	assert.False(t, storeDebit.IsUp)
	assert.True(t, decimal.NewFromInt(90000).Equal(storeDebit.Amount))
	assert.True(t, buyerCredit.IsUp)
	assert.True(t, decimal.NewFromInt(100000).Equal(buyerCredit.Amount))

	assert.ElementsMatch(t, []PointIntent{
		{Account: ledger.User("buyer-1"), Delta: -1},
		{Account: ledger.Store("store-1"), Delta: -1},
	}, rd.Decision.Intents.Points)

	assert.Equal(t, ReturnPending, o.ReturnRequest.Status, "DecideReturn must not mutate the order")
}

func TestDecideReturn_ApprovePayOnDelivery_StillDebitsStore(t *testing.T) {
	o := pendingReturnOrder()
	o.IsPaidBefore = false

	rd, err := DecideReturn(o, ReturnApproved, Admin("admin-1"), testNow)

	require.NoError(t, err)
	assert.Len(t, rd.Decision.Intents.Wallet, 2)
}

func TestDecideReturn_Reject(t *testing.T) {
	o := pendingReturnOrder()

	rd, err := DecideReturn(o, ReturnRejected, Admin("admin-1"), testNow)

	require.NoError(t, err)
	assert.Equal(t, ReturnRejected, rd.Request.Status)
	assert.Equal(t, "admin-1", rd.Request.DecidedBy)
	assert.False(t, rd.Decision.Changed)
	assert.Equal(t, StatusDelivered, rd.Decision.To)
	assert.True(t, rd.Decision.Intents.Empty())
}

func TestDecideReturn_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Order)
		verdict ReturnStatus
		actor   Actor
		wantErr error
	}{
		{"invalid verdict", nil, ReturnPending, Admin("admin-1"), ErrValidation},
		{"buyer cannot decide", nil, ReturnApproved, Buyer("buyer-1"), ErrForbidden},
		{"other store", nil, ReturnApproved, StoreStaff("staff-1", "store-2"), ErrForbidden},
		{"no request", func(o *Order) { o.ReturnRequest = nil }, ReturnApproved, Admin("admin-1"), ErrNoPendingReturn},
		{"already approved", func(o *Order) { o.ReturnRequest.Status = ReturnApproved }, ReturnApproved, Admin("admin-1"), ErrNoPendingReturn},
		{"already rejected", func(o *Order) { o.ReturnRequest.Status = ReturnRejected }, ReturnRejected, Admin("admin-1"), ErrNoPendingReturn},
		{"order no longer delivered", func(o *Order) { o.Status = StatusReturned }, ReturnApproved, Admin("admin-1"), ErrIllegalTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pendingReturnOrder()
			if tt.mutate != nil {
				tt.mutate(o)
			}
			_, err := DecideReturn(o, tt.verdict, tt.actor, testNow)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
