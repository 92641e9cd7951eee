package cart

import (
	"errors"
)

var (
	ErrCartNotFound          = errors.New("cart not found")
	ErrCartOwnershipMismatch = errors.New("cart does not belong to the buyer")
	ErrEmptyCart             = errors.New("cart must have at least one item")
)

// Item is one (product, variant combination) line of a cart.
type Item struct {
	ID              string   `json:"id"`
	CartID          string   `json:"cart_id"`
	ProductID       string   `json:"product_id"`
	VariantValueIDs []string `json:"variant_value_ids"`
	Count           int      `json:"count"`
}

// Cart is a buyer's basket for a single store, as read at checkout time.
type Cart struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	StoreID   string `json:"store_id"`
	IsDeleted bool   `json:"is_deleted"`
	Items     []Item `json:"items"`
}

// CheckoutBy verifies the cart can be turned into an order by buyerID.
func (c *Cart) CheckoutBy(buyerID string) error {
	if c == nil || c.IsDeleted {
		return ErrCartNotFound
	}
	if c.UserID != buyerID {
		return ErrCartOwnershipMismatch
	}
	if len(c.Items) == 0 {
		return ErrEmptyCart
	}
	return nil
}

// TotalCount returns the number of units across all lines.
func (c *Cart) TotalCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Count
	}
	return total
}
