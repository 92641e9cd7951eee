package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

func TestEventMessages(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e1, err := store.NewEvent("order-1", "Order", "OrderCreated", map[string]string{"order_id": "order-1"}, 1, now)
	require.NoError(t, err)
	e2, err := store.NewEvent("order-2", "Order", "OrderStatusChanged", map[string]string{"to": "Delivered"}, 3, now)
	require.NoError(t, err)

	msgs, err := EventMessages([]store.Event{e1, e2})

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "order-1", string(msgs[0].Key))
	assert.Equal(t, "order-2", string(msgs[1].Key))
	assert.Equal(t, now, msgs[0].Time)
	require.Len(t, msgs[1].Headers, 1)
	assert.Equal(t, EventTypeHeader, msgs[1].Headers[0].Key)
	assert.Equal(t, "OrderStatusChanged", string(msgs[1].Headers[0].Value))

	var decoded store.Event
	require.NoError(t, json.Unmarshal(msgs[1].Value, &decoded))
	assert.Equal(t, e2.ID, decoded.ID)
	assert.Equal(t, 3, decoded.Version)
	assert.JSONEq(t, `{"to":"Delivered"}`, string(decoded.Data))
}

func TestEventMessages_Empty(t *testing.T) {
	msgs, err := EventMessages(nil)

	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestEventType(t *testing.T) {
	e, err := store.NewEvent("order-1", "Order", "ReturnDecided", map[string]string{}, 1, time.Now())
	require.NoError(t, err)
	msgs, err := EventMessages([]store.Event{e})
	require.NoError(t, err)

	assert.Equal(t, "ReturnDecided", eventType(msgs[0]))
	assert.Equal(t, "message", eventType(kafka.Message{Value: []byte("{}")}))
}
