package kafka

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const defaultRetryBackoff = time.Second

type Consumer struct {
	reader  messageReader
	backoff time.Duration
}

// NewConsumer joins groupID on topic. A group with no committed offset
// starts from the oldest retained event so nothing published before the
// first deploy is skipped.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, backoff: defaultRetryBackoff}
}

// Consume feeds messages to handler until ctx is cancelled or the reader is
// closed. Offsets are committed after the handler returns, whatever it
// returned, so a message that always fails cannot stall its partition.
// Fetch errors are retried after a pause.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				log.Println("[Kafka] Reader closed")
				return err
			}
			log.Printf("[Kafka] Error fetching message, retrying in %s: %v", c.backoff, err)
			if err := c.wait(ctx); err != nil {
				return err
			}
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			log.Printf("[Kafka] Error handling %s %s/%d@%d: %v", eventType(msg), msg.Topic, msg.Partition, msg.Offset, err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Kafka] Error committing offset %d: %v", msg.Offset, err)
		}
	}
}

func (c *Consumer) wait(ctx context.Context) error {
	timer := time.NewTimer(c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == EventTypeHeader {
			return string(h.Value)
		}
	}
	return "message"
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
