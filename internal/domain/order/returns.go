package order

import (
	"strings"
	"time"
)

type ReturnStatus string

const (
	ReturnPending  ReturnStatus = "Pending"
	ReturnApproved ReturnStatus = "Approved"
	ReturnRejected ReturnStatus = "Rejected"
)

// ReturnRequest is the single return request an order can carry.
type ReturnRequest struct {
	Status    ReturnStatus `json:"status"`
	CreatedBy string       `json:"created_by"`
	Reason    string       `json:"reason"`
	CreatedAt time.Time    `json:"created_at"`
	DecidedBy string       `json:"decided_by,omitempty"`
	DecidedAt *time.Time   `json:"decided_at,omitempty"`
}

// NewReturnRequest opens a return on a delivered order. A previously rejected
// request is replaced; a pending one blocks a new request.
func (o *Order) NewReturnRequest(actor Actor, reason string, now time.Time) (*ReturnRequest, error) {
	if actor.Role != RoleBuyer {
		return nil, ErrForbidden
	}
	if err := o.authorize(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "is required"}
	}
	if o.Status != StatusDelivered {
		return nil, ErrNotDelivered
	}
	if o.ReturnRequest != nil && o.ReturnRequest.Status == ReturnPending {
		return nil, ErrReturnPending
	}

	return &ReturnRequest{
		Status:    ReturnPending,
		CreatedBy: actor.ID,
		Reason:    reason,
		CreatedAt: now,
	}, nil
}

// ReturnDecision is the outcome of a store or admin ruling on a return.
// Intents are empty for a rejection; Decision carries the Delivered->Returned
// flip for an approval.
type ReturnDecision struct {
	Request  ReturnRequest
	Decision Decision
}

// DecideReturn rules on the pending return request.
func DecideReturn(o *Order, verdict ReturnStatus, actor Actor, now time.Time) (ReturnDecision, error) {
	if verdict != ReturnApproved && verdict != ReturnRejected {
		return ReturnDecision{}, &ValidationError{Field: "decision", Reason: "must be Approved or Rejected"}
	}
	if actor.Role != RoleStore && actor.Role != RoleAdmin {
		return ReturnDecision{}, ErrForbidden
	}
	if err := o.authorize(actor); err != nil {
		return ReturnDecision{}, err
	}
	if o.ReturnRequest == nil || o.ReturnRequest.Status != ReturnPending {
		return ReturnDecision{}, ErrNoPendingReturn
	}

	decided := now
	req := *o.ReturnRequest
	req.Status = verdict
	req.DecidedBy = actor.ID
	req.DecidedAt = &decided

	rd := ReturnDecision{
		Request:  req,
		Decision: Decision{From: o.Status, To: o.Status},
	}
	if verdict == ReturnRejected {
		return rd, nil
	}

	if o.Status != StatusDelivered {
		return ReturnDecision{}, &TransitionError{From: o.Status, To: StatusReturned}
	}
	rd.Decision = Decision{
		From:    StatusDelivered,
		To:      StatusReturned,
		Changed: true,
		Intents: returnIntents(o),
	}
	return rd, nil
}
