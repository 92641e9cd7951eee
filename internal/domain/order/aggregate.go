package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/cart"
)

const AggregateType = "Order"

type Status string

const (
	StatusNotProcessed Status = "Not processed"
	StatusProcessing   Status = "Processing"
	StatusShipped      Status = "Shipped"
	StatusDelivered    Status = "Delivered"
	StatusCancelled    Status = "Cancelled"
	StatusReturned     Status = "Returned"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNotProcessed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// Role determines which transitions an actor may request.
type Role string

const (
	RoleBuyer Role = "buyer"
	RoleStore Role = "store"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller. StoreID is set when Role is RoleStore.
type Actor struct {
	Role    Role
	ID      string
	StoreID string
}

func Buyer(id string) Actor { return Actor{Role: RoleBuyer, ID: id} }
func StoreStaff(id, storeID string) Actor { return Actor{Role: RoleStore, ID: id, StoreID: storeID} }
func Admin(id string) Actor { return Actor{Role: RoleAdmin, ID: id} }

// Item is an order line captured from the cart. Immutable once created.
type Item struct {
	ID              string   `json:"id"`
	OrderID         string   `json:"order_id"`
	ProductID       string   `json:"product_id"`
	VariantValueIDs []string `json:"variant_value_ids"`
	Count           int      `json:"count"`
	IsDeleted       bool     `json:"is_deleted"`
}

// Order is one checkout. Monetary fields are fixed at creation; only Status
// and ReturnRequest change afterwards.
type Order struct {
	ID               string          `json:"id"`
	BuyerID          string          `json:"user_id"`
	StoreID          string          `json:"store_id"`
	CommissionID     string          `json:"commission_id"`
	Address          string          `json:"address"`
	Phone            string          `json:"phone"`
	AmountFromUser   decimal.Decimal `json:"amount_from_user"`
	AmountFromStore  decimal.Decimal `json:"amount_from_store"`
	AmountToStore    decimal.Decimal `json:"amount_to_store"`
	AmountToPlatform decimal.Decimal `json:"amount_to_platform"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	IsPaidBefore     bool            `json:"is_paid_before"`
	Status           Status          `json:"status"`
	ReturnRequest    *ReturnRequest  `json:"return_request,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CheckoutDetails is what the buyer submits alongside the cart.
type CheckoutDetails struct {
	CommissionID     string          `json:"commission_id"`
	Address          string          `json:"address"`
	Phone            string          `json:"phone"`
	AmountFromUser   decimal.Decimal `json:"amount_from_user"`
	AmountFromStore  decimal.Decimal `json:"amount_from_store"`
	AmountToStore    decimal.Decimal `json:"amount_to_store"`
	AmountToPlatform decimal.Decimal `json:"amount_to_platform"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	IsPaidBefore     bool            `json:"is_paid_before"`
}

func (d CheckoutDetails) Validate() error {
	if strings.TrimSpace(d.Address) == "" {
		return &ValidationError{Field: "address", Reason: "is required"}
	}
	if strings.TrimSpace(d.Phone) == "" {
		return &ValidationError{Field: "phone", Reason: "is required"}
	}

	positive := []struct {
		field string
		value decimal.Decimal
	}{
		{"amount_from_user", d.AmountFromUser},
		{"amount_to_store", d.AmountToStore},
		{"amount_to_platform", d.AmountToPlatform},
	}
	for _, p := range positive {
		if !p.value.IsPositive() {
			return &ValidationError{Field: p.field, Reason: "must be positive"}
		}
	}

	if d.AmountFromStore.IsNegative() {
		return &ValidationError{Field: "amount_from_store", Reason: "must not be negative"}
	}
	if d.ShippingFee.IsNegative() {
		return &ValidationError{Field: "shipping_fee", Reason: "must not be negative"}
	}
	return nil
}

// NewFromCart builds a NotProcessed order and its items from a cart snapshot.
// The cart must already have passed CheckoutBy.
func NewFromCart(c *cart.Cart, d CheckoutDetails, now time.Time) (*Order, []Item) {
	o := &Order{
		ID:               uuid.New().String(),
		BuyerID:          c.UserID,
		StoreID:          c.StoreID,
		CommissionID:     d.CommissionID,
		Address:          strings.TrimSpace(d.Address),
		Phone:            strings.TrimSpace(d.Phone),
		AmountFromUser:   d.AmountFromUser,
		AmountFromStore:  d.AmountFromStore,
		AmountToStore:    d.AmountToStore,
		AmountToPlatform: d.AmountToPlatform,
		ShippingFee:      d.ShippingFee,
		IsPaidBefore:     d.IsPaidBefore,
		Status:           StatusNotProcessed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	items := make([]Item, 0, len(c.Items))
	for _, ci := range c.Items {
		variants := make([]string, len(ci.VariantValueIDs))
		copy(variants, ci.VariantValueIDs)
		items = append(items, Item{
			ID:              uuid.New().String(),
			OrderID:         o.ID,
			ProductID:       ci.ProductID,
			VariantValueIDs: variants,
			Count:           ci.Count,
		})
	}
	return o, items
}

// authorize checks that actor may touch this order at all.
func (o *Order) authorize(actor Actor) error {
	switch actor.Role {
	case RoleBuyer:
		if actor.ID == "" || actor.ID != o.BuyerID {
			return ErrForbidden
		}
	case RoleStore:
		if actor.StoreID == "" || actor.StoreID != o.StoreID {
			return ErrForbidden
		}
	case RoleAdmin:
		if actor.ID == "" {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}
