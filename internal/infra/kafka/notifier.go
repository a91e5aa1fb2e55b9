package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/infra/config"
	"github.com/theranjitkumar/blogger/internal/infra/logger"
)

const schemaVersion = "1.0"

const notificationsTopic = "notifications"

// Notifier implements port.NotificationSender by publishing notification
// requests to Kafka for the downstream mailer to deliver.
type Notifier struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
	now      port.Clock
}

// NewNotifier constructs a Kafka-backed notification sender.
func NewNotifier(producer *Producer, appCfg config.AppSettings, log *zap.Logger) *Notifier {
	return &Notifier{producer: producer, appCfg: appCfg, logger: log, now: port.SystemClock()}
}

// WithClock overrides the notifier clock. Intended for tests.
func (n *Notifier) WithClock(clock port.Clock) *Notifier {
	n.now = clock
	return n
}

type notificationEnvelope struct {
	EventID   string            `json:"event_id"`
	Kind      string            `json:"kind"`
	Recipient string            `json:"recipient"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Context   map[string]string `json:"context,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Send enqueues the notification on the producer input channel. Delivery to
// Kafka is asynchronous; broker errors surface on the producer error channel.
func (n *Notifier) Send(ctx context.Context, notification port.Notification) error {
	if notification.Recipient == "" {
		return fmt.Errorf("notification recipient is empty")
	}

	envelope := notificationEnvelope{
		EventID:   uuid.NewString(),
		Kind:      string(notification.Kind),
		Recipient: notification.Recipient,
		Timestamp: n.now().UTC(),
		Version:   schemaVersion,
		Context:   notification.Context,
		Metadata: map[string]string{
			"service":     n.appCfg.Name,
			"environment": n.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal notification envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: n.producer.TopicName(notificationsTopic),
		Key:   sarama.StringEncoder(notification.Recipient),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case n.producer.Producer().Input() <- message:
		n.logger.Debug("Notification enqueued",
			zap.String("kind", string(notification.Kind)),
			zap.String("recipient", logger.MaskEmail(notification.Recipient)),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ port.NotificationSender = (*Notifier)(nil)
