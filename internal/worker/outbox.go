package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

// Publisher delivers a batch of outbox events to the broker.
type Publisher interface {
	PublishEvents(ctx context.Context, events []store.Event) error
}

// Relay moves committed lifecycle events from the outbox table to the
// broker. Delivery is at least once: a crash between publish and mark
// republishes the batch on the next tick.
type Relay struct {
	store     store.Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewRelay(s store.Store, pub Publisher, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{
		store:     s,
		publisher: pub,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Start polls until ctx is cancelled. A full batch is followed immediately
// by another poll so a backlog drains without waiting for the ticker.
func (r *Relay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("[Relay] Polling outbox every %s (batch %d)", r.interval, r.batchSize)
	for {
		select {
		case <-ctx.Done():
			log.Println("[Relay] Stopped")
			return
		case <-ticker.C:
			for {
				n, err := r.RelayOnce(ctx)
				if err != nil {
					if ctx.Err() == nil {
						log.Printf("[Relay] Batch failed, will retry: %v", err)
					}
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce publishes one batch of pending events and marks them published
// in the same transaction that locked them. It returns the batch size.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var published int
	err := r.store.WithTx(ctx, func(tx store.Tx) error {
		events, err := tx.PendingEvents(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		if err := r.publisher.PublishEvents(ctx, events); err != nil {
			return fmt.Errorf("publish %d events: %w", len(events), err)
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		if err := tx.MarkPublished(ctx, ids, r.now()); err != nil {
			return err
		}
		published = len(events)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if published > 0 {
		log.Printf("[Relay] Published %d events", published)
	}
	return published, nil
}
