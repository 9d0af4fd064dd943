package event

import (
	"context"
	"log/slog"
)

// LogSink writes events to the structured log. It never fails.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With(slog.String("component", "events"))}
}

func (s *LogSink) Publish(ctx context.Context, name string, payload OrderPayload) error {
	s.logger.InfoContext(ctx, name,
		slog.Int64("order_id", payload.OrderID),
		slog.Int64("user_id", payload.UserID),
		slog.String("status", payload.Status),
		slog.String("prev_status", payload.PrevStatus),
	)
	return nil
}
