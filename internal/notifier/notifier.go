// Package notifier abstracts outbound email for order notifications.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// EmailRequest describes one outbound email.
type EmailRequest struct {
	To        string
	Subject   string
	Body      string
	Variables map[string]any
}

// Service delivers notifications.
type Service interface {
	SendEmail(ctx context.Context, req EmailRequest) error
}

// ErrNotImplemented indicates no real delivery channel is configured.
var ErrNotImplemented = errors.New("notifier: not implemented")

// LoggerService logs notification intents instead of delivering them.
// Used in development and when notify.enabled is false.
type LoggerService struct {
	logger *slog.Logger
}

// NewLoggerService creates a log-only notification service.
func NewLoggerService(logger *slog.Logger) *LoggerService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LoggerService{logger: logger}
}

func (s *LoggerService) SendEmail(ctx context.Context, req EmailRequest) error {
	if strings.TrimSpace(req.To) == "" {
		return fmt.Errorf("notifier: recipient is required")
	}
	s.logger.InfoContext(ctx, "email notification", "to", req.To, "subject", req.Subject)
	return ErrNotImplemented
}
