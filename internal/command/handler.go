package command

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
	"github.com/vobaolong/shopify-be-sub001/internal/reconcile"
)

const defaultMaxAttempts = 3

type Handler struct {
	store       store.Store
	applier     *reconcile.Applier
	now         func() time.Time
	maxAttempts int
}

type Option func(*Handler)

// WithClock overrides time.Now, mainly for the buyer cancellation window in tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithMaxAttempts bounds how often a transaction that failed transiently is rerun.
func WithMaxAttempts(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxAttempts = n
		}
	}
}

func NewHandler(s store.Store, opts ...Option) *Handler {
	h := &Handler{
		store:       s,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.applier = reconcile.NewApplier(h.now)
	return h
}

// inTx runs fn in a store transaction, rerunning it from scratch while the
// store reports a transient failure. Nothing has committed in that case, so
// the rerun cannot double-apply ledger effects.
func (h *Handler) inTx(ctx context.Context, op string, fn func(tx store.Tx) error) error {
	var err error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		err = h.store.WithTx(ctx, fn)
		if !errors.Is(err, store.ErrTransient) {
			return err
		}
		log.Printf("[Order] %s: transient failure (attempt %d/%d): %v", op, attempt, h.maxAttempts, err)
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// CreateOrder converts the buyer's cart into a NotProcessed order. The
// order, its items and the cart deletion commit together.
func (h *Handler) CreateOrder(ctx context.Context, cmd CreateOrder) (*order.Order, error) {
	if err := cmd.Details.Validate(); err != nil {
		return nil, err
	}

	var (
		created *order.Order
		units   int
	)
	err := h.inTx(ctx, "CreateOrder", func(tx store.Tx) error {
		c, err := tx.GetCart(ctx, cmd.CartID)
		if err != nil {
			return err
		}
		if err := c.CheckoutBy(cmd.BuyerID); err != nil {
			return err
		}

		o, items := order.NewFromCart(c, cmd.Details, h.now())
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.InsertOrderItems(ctx, items); err != nil {
			return err
		}
		if err := tx.DeleteCart(ctx, c.ID); err != nil {
			return err
		}

		_, err = tx.AppendEvent(ctx, o.ID, order.AggregateType, order.EventOrderCreated, order.OrderCreated{
			OrderID:        o.ID,
			BuyerID:        o.BuyerID,
			StoreID:        o.StoreID,
			ItemCount:      len(items),
			AmountFromUser: o.AmountFromUser,
			IsPaidBefore:   o.IsPaidBefore,
			CreatedAt:      o.CreatedAt,
		})
		if err != nil {
			return err
		}
		created, units = o, c.TotalCount()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Order] Created order %s (%d units) from cart %s for buyer %s", created.ID, units, cmd.CartID, created.BuyerID)
	return created, nil
}

// TransitionOrder moves an order to cmd.Target and reconciles the ledgers in
// the same transaction. Requesting the current status again is a no-op.
func (h *Handler) TransitionOrder(ctx context.Context, cmd TransitionOrder) (*order.Order, error) {
	var (
		result  *order.Order
		changed bool
		from    order.Status
	)
	err := h.inTx(ctx, "TransitionOrder", func(tx store.Tx) error {
		now := h.now()
		o, err := tx.GetOrderForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		d, err := order.Decide(o, cmd.Target, cmd.Actor, now)
		if err != nil {
			return err
		}
		from, changed = d.From, d.Changed
		if !d.Changed {
			result = o
			return nil
		}

		if err := tx.CompareAndSetStatus(ctx, o.ID, d.From, d.To, now); err != nil {
			return err
		}
		if err := h.applier.Apply(ctx, tx, o, d.Intents); err != nil {
			return err
		}
		o.Apply(d, now)

		if err := h.appendStatusChanged(ctx, tx, o, d, cmd.Actor, now); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		if kind := order.KindOf(err); kind == order.KindReconciliationFailed || kind == order.KindInternal {
			log.Printf("[Order] Transition of %s to %q failed: %v", cmd.OrderID, cmd.Target, err)
		}
		return nil, err
	}

	if changed {
		log.Printf("[Order] Order %s: %s -> %s by %s %s", result.ID, from, result.Status, cmd.Actor.Role, cmd.Actor.ID)
	}
	return result, nil
}

// RequestReturn opens a return on a delivered order for its buyer.
func (h *Handler) RequestReturn(ctx context.Context, cmd RequestReturn) (*order.ReturnRequest, error) {
	var req *order.ReturnRequest
	err := h.inTx(ctx, "RequestReturn", func(tx store.Tx) error {
		now := h.now()
		o, err := tx.GetOrderForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		r, err := o.NewReturnRequest(order.Buyer(cmd.BuyerID), cmd.Reason, now)
		if err != nil {
			return err
		}
		if err := tx.SaveReturnRequest(ctx, o.ID, r); err != nil {
			return err
		}

		_, err = tx.AppendEvent(ctx, o.ID, order.AggregateType, order.EventReturnRequested, order.ReturnRequested{
			OrderID:     o.ID,
			BuyerID:     o.BuyerID,
			StoreID:     o.StoreID,
			Reason:      r.Reason,
			RequestedAt: now,
		})
		if err != nil {
			return err
		}
		req = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Order] Return requested on order %s by buyer %s", cmd.OrderID, cmd.BuyerID)
	return req, nil
}

// DecideReturn approves or rejects the pending return request. Approval
// reverses inventory and wallets and flips the order to Returned as the last
// write; any failure rolls everything back and leaves the request Pending.
func (h *Handler) DecideReturn(ctx context.Context, cmd DecideReturn) (*order.Order, error) {
	var result *order.Order
	err := h.inTx(ctx, "DecideReturn", func(tx store.Tx) error {
		now := h.now()
		o, err := tx.GetOrderForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		rd, err := order.DecideReturn(o, cmd.Decision, cmd.Actor, now)
		if err != nil {
			return err
		}

		if rd.Decision.Changed {
			if err := h.applier.Apply(ctx, tx, o, rd.Decision.Intents); err != nil {
				return err
			}
		}
		if err := tx.SaveReturnRequest(ctx, o.ID, &rd.Request); err != nil {
			return err
		}
		if rd.Decision.Changed {
			if err := tx.CompareAndSetStatus(ctx, o.ID, rd.Decision.From, rd.Decision.To, now); err != nil {
				return err
			}
		}

		req := rd.Request
		o.ReturnRequest = &req
		o.Apply(rd.Decision, now)

		_, err = tx.AppendEvent(ctx, o.ID, order.AggregateType, order.EventReturnDecided, order.ReturnDecided{
			OrderID:   o.ID,
			BuyerID:   o.BuyerID,
			StoreID:   o.StoreID,
			Decision:  rd.Request.Status,
			DecidedBy: cmd.Actor.ID,
			DecidedAt: now,
		})
		if err != nil {
			return err
		}
		if rd.Decision.Changed {
			if err := h.appendStatusChanged(ctx, tx, o, rd.Decision, cmd.Actor, now); err != nil {
				return err
			}
		}
		result = o
		return nil
	})
	if err != nil {
		if order.KindOf(err) == order.KindReconciliationFailed {
			log.Printf("[Order] Return decision on %s failed: %v", cmd.OrderID, err)
		}
		return nil, err
	}

	log.Printf("[Order] Return on order %s %s by %s %s", result.ID, cmd.Decision, cmd.Actor.Role, cmd.Actor.ID)
	return result, nil
}

func (h *Handler) appendStatusChanged(ctx context.Context, tx store.Tx, o *order.Order, d order.Decision, actor order.Actor, now time.Time) error {
	_, err := tx.AppendEvent(ctx, o.ID, order.AggregateType, order.EventOrderStatusChanged, order.OrderStatusChanged{
		OrderID:   o.ID,
		BuyerID:   o.BuyerID,
		StoreID:   o.StoreID,
		From:      d.From,
		To:        d.To,
		ActorRole: actor.Role,
		ActorID:   actor.ID,
		ChangedAt: now,
	})
	return err
}
