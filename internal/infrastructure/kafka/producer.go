package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

// EventTypeHeader carries store.Event.EventType so consumers can filter
// without decoding the body.
const EventTypeHeader = "event_type"

type Producer struct {
	writer *kafka.Writer
}

// NewProducer hashes message keys so every event of one order lands on the
// same partition, in order.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// PublishEvents writes a batch of outbox events keyed by aggregate ID.
// It returns only once the whole batch is acknowledged.
func (p *Producer) PublishEvents(ctx context.Context, events []store.Event) error {
	msgs, err := EventMessages(events)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// EventMessages encodes events as Kafka messages.
func EventMessages(events []store.Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(e.AggregateID),
			Value:   data,
			Time:    e.Timestamp,
			Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte(e.EventType)}},
		})
	}
	return msgs, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
