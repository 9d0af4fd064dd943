package async

import (
	"context"
	"fmt"

	"github.com/agrofarm/market/internal/event"
	"github.com/agrofarm/market/internal/notifier"
	"github.com/agrofarm/market/internal/repository"
)

// MailSink turns order events into queued customer emails. Delivery
// happens later, when the notification job drains the queue.
type MailSink struct {
	queue      *NotificationQueue
	users      repository.UserRepository
	adminEmail string
}

// NewMailSink wires the queue and the user lookup used for recipients.
func NewMailSink(queue *NotificationQueue, users repository.UserRepository, adminEmail string) *MailSink {
	return &MailSink{queue: queue, users: users, adminEmail: adminEmail}
}

func (s *MailSink) Publish(ctx context.Context, name string, payload event.OrderPayload) error {
	user, err := s.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient for order %d: %w", payload.OrderID, err)
	}

	var subject, body string
	switch name {
	case event.OrderCreated:
		subject = fmt.Sprintf("Order #%d received", payload.OrderID)
		body = fmt.Sprintf("Thanks for your order. We will confirm it shortly. Total: %s.", payload.Total)
	case event.OrderStatusChanged:
		subject = fmt.Sprintf("Order #%d is now %s", payload.OrderID, payload.Status)
		body = fmt.Sprintf("Your order moved from %s to %s.", payload.PrevStatus, payload.Status)
	case event.OrderCancelled:
		subject = fmt.Sprintf("Order #%d cancelled", payload.OrderID)
		body = "Your order was cancelled and any reserved items were returned to stock."
	default:
		return nil
	}

	s.queue.Enqueue(notifier.EmailRequest{
		To:      user.Email,
		Subject: subject,
		Body:    body,
		Variables: map[string]any{
			"order_id": payload.OrderID,
			"status":   payload.Status,
		},
	})

	if name == event.OrderCreated && s.adminEmail != "" {
		s.queue.Enqueue(notifier.EmailRequest{
			To:      s.adminEmail,
			Subject: fmt.Sprintf("New order #%d", payload.OrderID),
			Body:    fmt.Sprintf("Order #%d placed by user %d for %s.", payload.OrderID, payload.UserID, payload.Total),
		})
	}
	return nil
}
