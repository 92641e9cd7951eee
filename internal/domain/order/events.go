package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventReturnRequested    = "ReturnRequested"
	EventReturnDecided      = "ReturnDecided"
)

type OrderCreated struct {
	OrderID        string          `json:"order_id"`
	BuyerID        string          `json:"user_id"`
	StoreID        string          `json:"store_id"`
	ItemCount      int             `json:"item_count"`
	AmountFromUser decimal.Decimal `json:"amount_from_user"`
	IsPaidBefore   bool            `json:"is_paid_before"`
	CreatedAt      time.Time       `json:"created_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	BuyerID   string    `json:"user_id"`
	StoreID   string    `json:"store_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ActorRole Role      `json:"actor_role"`
	ActorID   string    `json:"actor_id"`
	ChangedAt time.Time `json:"changed_at"`
}

type ReturnRequested struct {
	OrderID     string    `json:"order_id"`
	BuyerID     string    `json:"user_id"`
	StoreID     string    `json:"store_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

type ReturnDecided struct {
	OrderID   string       `json:"order_id"`
	BuyerID   string       `json:"user_id"`
	StoreID   string       `json:"store_id"`
	Decision  ReturnStatus `json:"decision"`
	DecidedBy string       `json:"decided_by"`
	DecidedAt time.Time    `json:"decided_at"`
}
