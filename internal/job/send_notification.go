package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/agrofarm/market/internal/async"
	"github.com/agrofarm/market/internal/notifier"
)

// SendEmailJob drains the notification queue. Transient delivery
// failures are retried with exponential backoff before the request is
// requeued for the next run.
type SendEmailJob struct {
	Queue    *async.NotificationQueue
	Notifier notifier.Service
	Logger   *slog.Logger
}

// NewSendEmailJob constructs the email dispatch job.
func NewSendEmailJob(queue *async.NotificationQueue, svc notifier.Service, logger *slog.Logger) *SendEmailJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendEmailJob{Queue: queue, Notifier: svc, Logger: logger}
}

func (j *SendEmailJob) Name() string { return "notify.email" }

func (j *SendEmailJob) Run(ctx context.Context) error {
	if j.Queue == nil || j.Notifier == nil {
		return fmt.Errorf("email job dependencies not configured")
	}
	emails := j.Queue.Drain()
	if len(emails) == 0 {
		return nil
	}
	for _, req := range emails {
		if err := j.send(ctx, req); err != nil {
			if errors.Is(err, notifier.ErrNotImplemented) {
				j.Logger.Warn("notification email not delivered", "reason", err)
				continue
			}
			j.Queue.Requeue(req)
			return err
		}
	}
	j.Logger.Debug("email notifications sent", "count", len(emails))
	return nil
}

func (j *SendEmailJob) send(ctx context.Context, req notifier.EmailRequest) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 15 * time.Second

	return backoff.Retry(func() error {
		err := j.Notifier.SendEmail(ctx, req)
		if errors.Is(err, notifier.ErrNotImplemented) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
}
