package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agrofarm/market/internal/order"
	"github.com/agrofarm/market/internal/repository"
)

// StalledOrdersJob flags orders stuck in early lifecycle states:
// pending orders nobody confirmed and processing orders nobody shipped.
// It only reports; resolving a stuck order stays a human decision.
type StalledOrdersJob struct {
	Orders          repository.OrderRepository
	PendingAfter    time.Duration
	ProcessingAfter time.Duration
	Logger          *slog.Logger
}

// NewStalledOrdersJob constructs the stalled order sweep.
func NewStalledOrdersJob(orders repository.OrderRepository, pendingAfter, processingAfter time.Duration, logger *slog.Logger) *StalledOrdersJob {
	if pendingAfter <= 0 {
		pendingAfter = 24 * time.Hour
	}
	if processingAfter <= 0 {
		processingAfter = 48 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StalledOrdersJob{
		Orders:          orders,
		PendingAfter:    pendingAfter,
		ProcessingAfter: processingAfter,
		Logger:          logger,
	}
}

func (j *StalledOrdersJob) Name() string { return "orders.stalled" }

func (j *StalledOrdersJob) Run(ctx context.Context) error {
	if j.Orders == nil {
		return fmt.Errorf("stalled orders job dependencies not configured")
	}
	now := time.Now()
	if err := j.sweep(ctx, order.StatusPending, now.Add(-j.PendingAfter)); err != nil {
		return err
	}
	return j.sweep(ctx, order.StatusProcessing, now.Add(-j.ProcessingAfter))
}

func (j *StalledOrdersJob) sweep(ctx context.Context, status order.Status, cutoff time.Time) error {
	stalled, err := j.Orders.ListStatusOlderThan(ctx, status, cutoff.Unix())
	if err != nil {
		return err
	}
	for _, o := range stalled {
		j.Logger.Warn("order stalled",
			"order_id", o.ID,
			"user_id", o.UserID,
			"status", string(o.Status),
			"since", time.Unix(o.UpdatedAt, 0).UTC().Format(time.RFC3339))
	}
	if len(stalled) > 0 {
		j.Logger.Info("stalled order sweep finished", "status", string(status), "count", len(stalled))
	}
	return nil
}
