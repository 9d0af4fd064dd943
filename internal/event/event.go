// Package event defines the domain events emitted by the order
// coordinator and the sinks that consume them. Event delivery is best
// effort: a failing sink never fails the operation that emitted it.
package event

import "context"

// Event names.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderCancelled     = "order.cancelled"
)

// OrderPayload accompanies every order event.
type OrderPayload struct {
	OrderID    int64  `json:"order_id"`
	UserID     int64  `json:"user_id"`
	Status     string `json:"status"`
	PrevStatus string `json:"prev_status,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Total      string `json:"total,omitempty"`
	Items      int    `json:"items,omitempty"`
}

// Sink consumes domain events.
type Sink interface {
	Publish(ctx context.Context, name string, payload OrderPayload) error
}

// Sinks fans an event out to multiple sinks, returning the first error.
type Sinks []Sink

func (s Sinks) Publish(ctx context.Context, name string, payload OrderPayload) error {
	var firstErr error
	for _, sink := range s {
		if err := sink.Publish(ctx, name, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
