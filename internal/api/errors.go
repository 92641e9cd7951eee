package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
)

var kindStatus = map[order.Kind]int{
	order.KindValidation:           http.StatusBadRequest,
	order.KindForbidden:            http.StatusForbidden,
	order.KindIllegalTransition:    http.StatusConflict,
	order.KindTimeWindowExpired:    http.StatusUnprocessableEntity,
	order.KindReconciliationFailed: http.StatusServiceUnavailable,
	order.KindNotFound:             http.StatusNotFound,
	order.KindConflict:             http.StatusConflict,
	order.KindInternal:             http.StatusInternalServerError,
}

type errorResponse struct {
	Error         order.Kind   `json:"error"`
	Message       string       `json:"message"`
	CurrentStatus order.Status `json:"current_status,omitempty"`
}

// respondError maps err to its kind. Internal errors are logged and never
// echoed to the caller.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := order.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		kind, status = order.KindInternal, http.StatusInternalServerError
	}

	body := errorResponse{Error: kind, Message: err.Error()}
	switch kind {
	case order.KindInternal:
		log.Printf("[API] %s %s: %v", r.Method, r.URL.Path, err)
		body.Message = "internal error"
	case order.KindReconciliationFailed:
		log.Printf("[API] %s %s: %v", r.Method, r.URL.Path, err)
		body.Message = "the change could not be applied and was rolled back; retry later"
	}

	var te *order.TransitionError
	if errors.As(err, &te) {
		body.CurrentStatus = te.From
	}

	respondJSON(w, status, body)
}

func badRequest(field, reason string) error {
	return &order.ValidationError{Field: field, Reason: reason}
}
