// AngelaMos | 2026
// publisher.go

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/carterperez-dev/admin-console/internal/activity"
)

const DefaultQueue = "activity.recorded"

// Event is the wire form of an activity.
type Event struct {
	ID          string            `json:"id"`
	Type        activity.Type     `json:"type"`
	Description string            `json:"description"`
	UserID      *string           `json:"userId,omitempty"`
	Metadata    activity.Metadata `json:"metadata"`
	Timestamp   time.Time         `json:"timestamp"`
}

func EventFrom(a *activity.Activity) Event {
	return Event{
		ID:          a.ID,
		Type:        a.Type,
		Description: a.Description,
		UserID:      a.UserID,
		Metadata:    a.Metadata,
		Timestamp:   a.Timestamp,
	}
}

func (e Event) Activity() *activity.Activity {
	return &activity.Activity{
		ID:          e.ID,
		Type:        e.Type,
		Description: e.Description,
		UserID:      e.UserID,
		Metadata:    e.Metadata,
		Timestamp:   e.Timestamp,
	}
}

func Encode(a *activity.Activity) (amqp.Publishing, error) {
	body, err := json.Marshal(EventFrom(a))
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal activity event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(a.Type),
		Body:         body,
	}, nil
}

type channel interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

// Publisher is an activity.Sink that pushes events onto a durable queue.
// The channel is opened lazily and reopened after a failed publish.
type Publisher struct {
	url   string
	queue string
	open  func(url, queue string) (channel, func() error, error)

	mu        sync.Mutex
	ch        channel
	closeConn func() error
}

func NewPublisher(url, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{url: url, queue: queue, open: dial}
}

func dial(url, queue string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	return ch, conn.Close, nil
}

func (p *Publisher) Write(ctx context.Context, a *activity.Activity) error {
	msg, err := Encode(a)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensure(); err != nil {
		return err
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}

	return nil
}

func (p *Publisher) ensure() error {
	if p.ch != nil {
		return nil
	}

	ch, closeConn, err := p.open(p.url, p.queue)
	if err != nil {
		return err
	}
	p.ch, p.closeConn = ch, closeConn
	return nil
}

// Ping reports whether the broker can be reached, opening the channel if
// it is not open yet.
func (p *Publisher) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensure()
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeConn != nil {
		_ = p.closeConn()
	}
	p.ch, p.closeConn = nil, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
