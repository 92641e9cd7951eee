package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
)

// Reader is the read side used by queries and the notifier.
type Reader interface {
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]order.Item, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]order.Order, int, error)

	ListTransactions(ctx context.Context, f TransactionFilter) ([]ledger.Transaction, int, error)
	// SumTransactions is the signed total of the account's transaction log.
	SumTransactions(ctx context.Context, account ledger.AccountRef) (decimal.Decimal, error)
	GetAccount(ctx context.Context, account ledger.AccountRef) (*ledger.Account, error)
	ListLevels(ctx context.Context) ([]ledger.Level, error)

	GetContact(ctx context.Context, userID string) (*Contact, error)
}

// OrderFilter selects orders for one buyer or one store.
type OrderFilter struct {
	BuyerID string
	StoreID string
	Status  order.Status
	Limit   int
	Offset  int
}

// TransactionFilter selects one account's transactions. Zero values mean
// "no constraint".
type TransactionFilter struct {
	Account ledger.AccountRef
	IsUp    *bool
	OrderID string
	Since   time.Time
	Until   time.Time
	Limit   int
	Offset  int
}

// Contact is what the notifier needs to email a user.
type Contact struct {
	UserID string
	Name   string
	Email  string
}
