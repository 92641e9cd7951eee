package order

import (
	"time"
)

// BuyerCancelWindow is how long after creation a buyer may cancel on their own.
const BuyerCancelWindow = time.Hour

// staffTransitions is the adjacency table for store staff and admins.
// Delivered, Cancelled and Returned have no direct exits.
var staffTransitions = map[Status][]Status{
	StatusNotProcessed: {StatusCancelled, StatusProcessing},
	StatusProcessing:   {StatusCancelled, StatusDelivered, StatusShipped},
	StatusShipped:      {StatusCancelled, StatusProcessing},
	StatusDelivered:    {},
	StatusCancelled:    {},
	StatusReturned:     {},
}

// buyerTransitions is what a buyer may request directly.
var buyerTransitions = map[Status][]Status{
	StatusNotProcessed: {StatusCancelled},
}

func allowed(table map[Status][]Status, from, to Status) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether role may move the order to target,
// ignoring ownership and time guards.
func (o *Order) CanTransitionTo(target Status, role Role) bool {
	switch role {
	case RoleBuyer:
		return allowed(buyerTransitions, o.Status, target)
	case RoleStore, RoleAdmin:
		return allowed(staffTransitions, o.Status, target)
	}
	return false
}

// Decision is the outcome of an accepted transition request.
// Changed is false for an idempotent resubmission of the current status.
type Decision struct {
	From    Status
	To      Status
	Changed bool
	Intents Intents
}

// Decide validates a transition request and computes its side effects.
// It performs no I/O.
func Decide(o *Order, target Status, actor Actor, now time.Time) (Decision, error) {
	if !target.Valid() {
		return Decision{}, &ValidationError{Field: "status", Reason: "is not a known order status"}
	}
	if err := o.authorize(actor); err != nil {
		return Decision{}, err
	}

	if actor.Role == RoleBuyer && target != StatusCancelled {
		return Decision{}, ErrForbidden
	}

	if o.Status == target {
		return Decision{From: o.Status, To: target}, nil
	}

	if !o.CanTransitionTo(target, actor.Role) {
		return Decision{}, &TransitionError{From: o.Status, To: target}
	}

	if actor.Role == RoleBuyer && now.Sub(o.CreatedAt) >= BuyerCancelWindow {
		return Decision{}, ErrTimeWindowExpired
	}

	d := Decision{From: o.Status, To: target, Changed: true}
	switch target {
	case StatusCancelled:
		d.Intents = cancellationIntents(o)
	case StatusDelivered:
		d.Intents = deliveryIntents(o)
	}
	return d, nil
}

// Apply records an accepted decision on the in-memory order.
func (o *Order) Apply(d Decision, now time.Time) {
	if !d.Changed {
		return
	}
	o.Status = d.To
	o.UpdatedAt = now
}
