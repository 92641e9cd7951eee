package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/cart"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
)

// ErrTransient marks failures that are safe to retry from the start of the
// transaction: serialization failures, deadlocks and SQLite busy/locked.
var ErrTransient = errors.New("transient store failure")

// Store is the transactional order and ledger store.
type Store interface {
	Reader

	// WithTx runs fn in one database transaction. The transaction commits
	// only if fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the write side, only reachable inside WithTx.
type Tx interface {
	GetCart(ctx context.Context, cartID string) (*cart.Cart, error)
	// DeleteCart soft-deletes the cart and purges its items.
	DeleteCart(ctx context.Context, cartID string) error

	InsertOrder(ctx context.Context, o *order.Order) error
	InsertOrderItems(ctx context.Context, items []order.Item) error
	// GetOrderForUpdate loads the order and, where the engine supports it,
	// locks the row until the transaction ends.
	GetOrderForUpdate(ctx context.Context, orderID string) (*order.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]order.Item, error)
	// CompareAndSetStatus writes to only if the stored status is still from.
	// It returns order.ErrConflict when no row matched.
	CompareAndSetStatus(ctx context.Context, orderID string, from, to order.Status, now time.Time) error
	SaveReturnRequest(ctx context.Context, orderID string, req *order.ReturnRequest) error

	IncrementPoint(ctx context.Context, account ledger.AccountRef, delta int64) error
	IncrementWallet(ctx context.Context, account ledger.AccountRef, delta decimal.Decimal) error
	AppendTransaction(ctx context.Context, t ledger.Transaction) error
	AdjustInventory(ctx context.Context, productID string, quantityDelta, soldDelta int) error

	// AppendEvent records a lifecycle event in the outbox.
	AppendEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	// PendingEvents returns unpublished outbox rows, oldest first, locking
	// them against other relays where the engine supports it.
	PendingEvents(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}
