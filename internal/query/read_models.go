package query

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one slice of a filtered listing. Total counts every match.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newPage[T any](items []T, total, limit, offset int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, Limit: limit, Offset: offset}
}

// TransactionFilter narrows ListTransactions. Zero values mean no constraint;
// Until is exclusive.
type TransactionFilter struct {
	IsUp    *bool
	OrderID string
	Since   time.Time
	Until   time.Time
	Limit   int
	Offset  int
}

// OrderFilter narrows ListOrders. BuyerID and StoreID are honoured for
// admins only; other actors are always scoped to themselves.
type OrderFilter struct {
	BuyerID string
	StoreID string
	Status  order.Status
	Limit   int
	Offset  int
}

type OrderView struct {
	order.Order
	Items []order.Item `json:"items"`
}

type AccountSummary struct {
	Account ledger.AccountRef `json:"account"`
	Wallet  decimal.Decimal   `json:"e_wallet"`
	Point   int64             `json:"point"`
	Level   *ledger.Level     `json:"level,omitempty"`
}

// AuditResult compares the wallet counter with the signed sum of the log.
type AuditResult struct {
	Account  ledger.AccountRef `json:"account"`
	Wallet   decimal.Decimal   `json:"e_wallet"`
	LogSum   decimal.Decimal   `json:"log_sum"`
	Drift    decimal.Decimal   `json:"drift"`
	Balanced bool              `json:"balanced"`
}
