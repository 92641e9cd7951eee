package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
	"github.com/vobaolong/shopify-be-sub001/internal/email"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

// Sender is satisfied by *email.Service.
type Sender interface {
	Send(to, subject, body string) error
}

// Handler turns order lifecycle events into buyer emails.
type Handler struct {
	sender Sender
	reader store.Reader
}

func NewHandler(sender Sender, reader store.Reader) *Handler {
	return &Handler{
		sender: sender,
		reader: reader,
	}
}

// HandleEvent processes one outbox event delivered through Kafka. Events
// for buyers that no longer exist are dropped; mail failures are returned
// so the consumer logs them.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.EventType {
	case order.EventOrderCreated:
		return h.handleOrderCreated(ctx, event)
	case order.EventOrderStatusChanged:
		return h.handleStatusChanged(ctx, event)
	case order.EventReturnRequested:
		return h.handleReturnRequested(ctx, event)
	case order.EventReturnDecided:
		return h.handleReturnDecided(ctx, event)
	}
	return nil
}

func (h *Handler) handleOrderCreated(ctx context.Context, event store.Event) error {
	var e order.OrderCreated
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderCreated event: %v", err)
		return err
	}

	contact, ok := h.contact(ctx, e.BuyerID)
	if !ok {
		return nil
	}

	data := email.OrderCreatedData{
		BuyerName:    contact.Name,
		OrderID:      e.OrderID,
		Total:        e.AmountFromUser,
		IsPaidBefore: e.IsPaidBefore,
	}
	items, err := h.reader.ListOrderItems(ctx, e.OrderID)
	if err != nil {
		log.Printf("[Notifier] Error loading items of order %s: %v", e.OrderID, err)
	}
	for _, item := range items {
		if item.IsDeleted {
			continue
		}
		data.Lines = append(data.Lines, email.OrderLine{ProductID: item.ProductID, Count: item.Count})
	}

	subject, body, err := email.OrderCreated(data)
	if err != nil {
		return err
	}
	return h.send(contact.Email, subject, body, e.OrderID)
}

func (h *Handler) handleStatusChanged(ctx context.Context, event store.Event) error {
	var e order.OrderStatusChanged
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderStatusChanged event: %v", err)
		return err
	}

	// The buyer already knows about their own cancellation.
	if e.ActorRole == order.RoleBuyer {
		return nil
	}

	contact, ok := h.contact(ctx, e.BuyerID)
	if !ok {
		return nil
	}
	subject, body, err := email.StatusChanged(email.StatusChangedData{
		BuyerName: contact.Name,
		OrderID:   e.OrderID,
		From:      string(e.From),
		To:        string(e.To),
	})
	if err != nil {
		return err
	}
	return h.send(contact.Email, subject, body, e.OrderID)
}

func (h *Handler) handleReturnRequested(ctx context.Context, event store.Event) error {
	var e order.ReturnRequested
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal ReturnRequested event: %v", err)
		return err
	}

	contact, ok := h.contact(ctx, e.BuyerID)
	if !ok {
		return nil
	}
	subject, body, err := email.Return(email.ReturnData{
		BuyerName: contact.Name,
		OrderID:   e.OrderID,
		Reason:    e.Reason,
	})
	if err != nil {
		return err
	}
	return h.send(contact.Email, subject, body, e.OrderID)
}

func (h *Handler) handleReturnDecided(ctx context.Context, event store.Event) error {
	var e order.ReturnDecided
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal ReturnDecided event: %v", err)
		return err
	}

	contact, ok := h.contact(ctx, e.BuyerID)
	if !ok {
		return nil
	}
	subject, body, err := email.Return(email.ReturnData{
		BuyerName: contact.Name,
		OrderID:   e.OrderID,
		Decision:  strings.ToLower(string(e.Decision)),
	})
	if err != nil {
		return err
	}
	return h.send(contact.Email, subject, body, e.OrderID)
}

func (h *Handler) contact(ctx context.Context, userID string) (*store.Contact, bool) {
	c, err := h.reader.GetContact(ctx, userID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		log.Printf("[Notifier] User not found: %s", userID)
		return nil, false
	}
	if err != nil {
		log.Printf("[Notifier] Error getting user %s: %v", userID, err)
		return nil, false
	}
	if c.Email == "" {
		log.Printf("[Notifier] User %s has no email address", userID)
		return nil, false
	}
	return c, true
}

func (h *Handler) send(to, subject, body, orderID string) error {
	if err := h.sender.Send(to, subject, body); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", to, err)
		return err
	}
	log.Printf("[Notifier] Email %q sent to %s for order %s", subject, to, orderID)
	return nil
}
