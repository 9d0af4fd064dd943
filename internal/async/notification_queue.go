// Package async holds the in-process queues drained by background jobs.
package async

import (
	"maps"
	"sync"

	"github.com/agrofarm/market/internal/notifier"
)

// NotificationQueue buffers outbound emails for background dispatch.
type NotificationQueue struct {
	mu     sync.Mutex
	emails []notifier.EmailRequest
}

// NewNotificationQueue returns an empty queue.
func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{emails: make([]notifier.EmailRequest, 0)}
}

// Enqueue appends a pending email request.
func (q *NotificationQueue) Enqueue(req notifier.EmailRequest) {
	if req.To == "" {
		return
	}
	q.mu.Lock()
	q.emails = append(q.emails, cloneEmailRequest(req))
	q.mu.Unlock()
}

// Drain returns all pending requests and clears the buffer.
func (q *NotificationQueue) Drain() []notifier.EmailRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.emails
	q.emails = make([]notifier.EmailRequest, 0)
	return drained
}

// Requeue prepends a request for retry on the next drain.
func (q *NotificationQueue) Requeue(req notifier.EmailRequest) {
	if req.To == "" {
		return
	}
	q.mu.Lock()
	q.emails = append([]notifier.EmailRequest{cloneEmailRequest(req)}, q.emails...)
	q.mu.Unlock()
}

// Pending reports buffered requests.
func (q *NotificationQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.emails)
}

func cloneEmailRequest(req notifier.EmailRequest) notifier.EmailRequest {
	cloned := req
	if len(req.Variables) > 0 {
		cloned.Variables = maps.Clone(req.Variables)
	}
	return cloned
}
