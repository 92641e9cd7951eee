package order

import (
	"errors"
	"fmt"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/cart"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("actor is not allowed to act on this order")
	ErrIllegalTransition    = errors.New("illegal order status transition")
	ErrTimeWindowExpired    = errors.New("order is not within the time allowed for cancellation")
	ErrReconciliationFailed = errors.New("ledger reconciliation failed")
	ErrNotDelivered         = errors.New("order has not been delivered")
	ErrReturnPending        = errors.New("a return request is already pending")
	ErrNoPendingReturn      = errors.New("order has no pending return request")
	ErrConflict             = errors.New("order was modified concurrently")
	ErrProductNotFound      = errors.New("product not found")
)

// ValidationError names the offending checkout field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports the current status so the caller can resync.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition from %q to %q", ErrIllegalTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// Kind is the stable, caller-facing error category.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindForbidden            Kind = "forbidden"
	KindIllegalTransition    Kind = "illegal_transition"
	KindTimeWindowExpired    Kind = "time_window_expired"
	KindReconciliationFailed Kind = "reconciliation_failed"
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindInternal             Kind = "internal"
)

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrReconciliationFailed):
		return KindReconciliationFailed
	case errors.Is(err, ErrValidation), errors.Is(err, cart.ErrEmptyCart):
		return KindValidation
	case errors.Is(err, ErrForbidden), errors.Is(err, cart.ErrCartOwnershipMismatch):
		return KindForbidden
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrNotDelivered),
		errors.Is(err, ErrReturnPending), errors.Is(err, ErrNoPendingReturn):
		return KindIllegalTransition
	case errors.Is(err, ErrTimeWindowExpired):
		return KindTimeWindowExpired
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, ErrProductNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
