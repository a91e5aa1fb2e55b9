package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/infra/logger"
)

// StubNotifier logs notifications instead of publishing them to Kafka. Useful
// for development environments without a broker.
type StubNotifier struct {
	logger *zap.Logger
}

// NewStubNotifier constructs a development-friendly notification sender.
func NewStubNotifier(log *zap.Logger) *StubNotifier {
	return &StubNotifier{logger: log}
}

// Send logs the notification with the recipient masked.
func (s *StubNotifier) Send(_ context.Context, notification port.Notification) error {
	fields := []zap.Field{
		zap.String("kind", string(notification.Kind)),
		zap.String("recipient", logger.MaskEmail(notification.Recipient)),
	}
	for key := range notification.Context {
		fields = append(fields, zap.String("context_key", key))
	}

	s.logger.Info("Stub notification sent", fields...)
	return nil
}

var _ port.NotificationSender = (*StubNotifier)(nil)
