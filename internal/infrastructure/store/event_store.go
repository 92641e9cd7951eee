package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one outbox row: a lifecycle event written in the same
// transaction as the state change it describes.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
}

// NewEvent encodes data and stamps a fresh event. version is the
// aggregate's next sequence number.
func NewEvent(aggregateID, aggregateType, eventType string, data any, version int, now time.Time) (Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     now.UTC(),
		Version:       version,
	}, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}
