package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves msgs, then returns errs in turn, then tail forever.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	errs      []error
	tail      error
	fetches   int
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		return msg, nil
	}
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	return kafka.Message{}, r.tail
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) fetchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}

// ============================================
// Consumer Tests
// ============================================

func TestConsumer_Consume_CommitsEvenWhenHandlerFails(t *testing.T) {
	r := &fakeReader{
		msgs: []kafka.Message{{Offset: 1, Value: []byte("a")}, {Offset: 2, Value: []byte("b")}},
		tail: io.EOF,
	}
	c := &Consumer{reader: r, backoff: time.Millisecond}
	var seen []string

	err := c.Consume(context.Background(), func(ctx context.Context, key, value []byte) error {
		seen = append(seen, string(value))
		return errors.New("handler failed")
	})

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []int64{1, 2}, r.committed)
}

func TestConsumer_Consume_StopsWhenReaderClosed(t *testing.T) {
	r := &fakeReader{tail: io.EOF}
	c := &Consumer{reader: r, backoff: time.Hour}

	err := c.Consume(context.Background(), func(context.Context, []byte, []byte) error { return nil })

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, r.fetchCount())
}

func TestConsumer_Consume_BacksOffOnFetchErrors(t *testing.T) {
	r := &fakeReader{tail: errors.New("broker unavailable")}
	c := &Consumer{reader: r, backoff: 50 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := c.Consume(ctx, func(context.Context, []byte, []byte) error { return nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, r.fetchCount(), 4, "fetch errors must not spin")
}

func TestConsumer_Consume_RecoversAfterFetchError(t *testing.T) {
	r := &fakeReader{
		errs: []error{errors.New("leader not available")},
		tail: io.EOF,
	}
	c := &Consumer{reader: r, backoff: time.Millisecond}

	err := c.Consume(context.Background(), func(context.Context, []byte, []byte) error { return nil })

	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, r.fetchCount())
}
