// AngelaMos | 2026
// queue_test.go

package queue

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/admin-console/internal/activity"
)

type captureStore struct {
	rows []*activity.Activity
	err  error
}

func (s *captureStore) Create(ctx context.Context, a *activity.Activity) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, a)
	return nil
}

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	failNext  bool
	closed    bool
}

func (c *fakeChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp.Publishing,
) error {
	if c.failNext {
		c.failNext = false
		return errors.New("channel closed")
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func sample() *activity.Activity {
	uid := "user-1"
	return &activity.Activity{
		ID:          "act-1",
		Type:        activity.TypeLogin,
		Description: "User logged in",
		UserID:      &uid,
		Metadata:    activity.Metadata{"email": "a@example.com"},
		Timestamp:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newTestConsumer(store Store) *Consumer {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewConsumer("amqp://unused", "", 0, store, logger)
}

func TestEncodedMessageIsConsumedIntact(t *testing.T) {
	msg, err := Encode(sample())
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "login", msg.Type)

	store := &captureStore{}
	require.NoError(t, newTestConsumer(store).Handle(context.Background(), msg.Body))
	require.Len(t, store.rows, 1)

	got := store.rows[0]
	assert.Equal(t, "act-1", got.ID)
	assert.Equal(t, activity.TypeLogin, got.Type)
	assert.Equal(t, "user-1", *got.UserID)
	assert.Equal(t, "a@example.com", got.Metadata["email"])
	assert.True(t, sample().Timestamp.Equal(got.Timestamp))
}

func TestHandleRejectsBadMessages(t *testing.T) {
	c := newTestConsumer(&captureStore{})

	assert.Error(t, c.Handle(context.Background(), []byte("not json")))
	assert.Error(t, c.Handle(context.Background(), []byte(`{"type":"launch"}`)))
}

func TestHandlePropagatesStoreFailure(t *testing.T) {
	c := newTestConsumer(&captureStore{err: errors.New("db down")})

	msg, err := Encode(sample())
	require.NoError(t, err)
	assert.ErrorContains(t, c.Handle(context.Background(), msg.Body), "db down")
}

func TestConsumerDefaults(t *testing.T) {
	c := newTestConsumer(&captureStore{})
	assert.Equal(t, DefaultQueue, c.queue)
	assert.Equal(t, 50, c.prefetch)
}

func TestPublisherReopensAfterFailure(t *testing.T) {
	var opened []*fakeChannel
	p := NewPublisher("amqp://unused", "")
	p.open = func(url, queue string) (channel, func() error, error) {
		ch := &fakeChannel{}
		opened = append(opened, ch)
		return ch, func() error { return nil }, nil
	}

	ctx := context.Background()
	require.NoError(t, p.Write(ctx, sample()))
	require.Len(t, opened, 1)
	assert.Equal(t, []string{DefaultQueue}, opened[0].keys)

	opened[0].failNext = true
	assert.Error(t, p.Write(ctx, sample()))
	assert.True(t, opened[0].closed)

	require.NoError(t, p.Write(ctx, sample()))
	require.Len(t, opened, 2)
	assert.Len(t, opened[1].published, 1)
}

func TestPublisherDialFailure(t *testing.T) {
	p := NewPublisher("amqp://unused", "custom")
	p.open = func(url, queue string) (channel, func() error, error) {
		assert.Equal(t, "custom", queue)
		return nil, nil, errors.New("connection refused")
	}

	assert.ErrorContains(t, p.Write(context.Background(), sample()), "connection refused")
	assert.ErrorContains(t, p.Ping(context.Background()), "connection refused")
	assert.NoError(t, p.Close())
}

func TestRunStopsOnCancel(t *testing.T) {
	c := newTestConsumer(&captureStore{})
	c.url = "amqp://127.0.0.1:1/"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, c.Run(ctx), context.DeadlineExceeded)
}
