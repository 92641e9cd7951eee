package command

import "github.com/vobaolong/shopify-be-sub001/internal/domain/order"

// Order Commands
type CreateOrder struct {
	CartID  string                `json:"cart_id"`
	BuyerID string                `json:"user_id"`
	Details order.CheckoutDetails `json:"details"`
}

type TransitionOrder struct {
	OrderID string       `json:"order_id"`
	Actor   order.Actor  `json:"-"`
	Target  order.Status `json:"status"`
}

// Return Commands
type RequestReturn struct {
	OrderID string `json:"order_id"`
	BuyerID string `json:"user_id"`
	Reason  string `json:"reason"`
}

type DecideReturn struct {
	OrderID  string             `json:"order_id"`
	Actor    order.Actor        `json:"-"`
	Decision order.ReturnStatus `json:"decision"`
}
