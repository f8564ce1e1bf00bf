package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
)

// Event is the message published to the orders queue.
type Event struct {
	Type           string     `json:"type"`
	OrderID        int64      `json:"order_id"`
	UserID         *int64     `json:"user_id,omitempty"`
	Status         Status     `json:"status"`
	PreviousStatus Status     `json:"previous_status,omitempty"`
	Items          []LineItem `json:"items"`
	Total          float64    `json:"total"`
	Payment        string     `json:"payment"`
	RequestID      string     `json:"request_id,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// EventPublisher delivers order events. Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// MessageSender is satisfied by aws.Publisher.
type MessageSender interface {
	Send(ctx context.Context, messageBody string, attributes map[string]string) error
}

// QueuePublisher publishes events as JSON queue messages.
type QueuePublisher struct {
	sender MessageSender
}

func NewQueuePublisher(sender MessageSender) *QueuePublisher {
	return &QueuePublisher{sender: sender}
}

func (p *QueuePublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.sender.Send(ctx, string(body), map[string]string{
		"event_type":     e.Type,
		"order_id":       strconv.FormatInt(e.OrderID, 10),
		"correlation_id": e.RequestID,
	})
}

func newEvent(typ string, o *Order, previous Status, now time.Time) Event {
	return Event{
		Type:           typ,
		OrderID:        o.OrderID,
		UserID:         o.UserID,
		Status:         o.Status,
		PreviousStatus: previous,
		Items:          o.Products,
		Total:          o.Total().InexactFloat64(),
		Payment:        o.Payment,
		OccurredAt:     now,
	}
}
