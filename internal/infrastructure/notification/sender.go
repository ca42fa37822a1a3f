package notification

import (
	"context"

	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogNotificationSender is the default NotificationSender. It records the
// outgoing notification in the structured log; wiring an actual WhatsApp or
// email gateway replaces this implementation behind the same interface.
type LogNotificationSender struct {
	logger *zap.Logger
}

// NewLogNotificationSender creates a new LogNotificationSender
func NewLogNotificationSender(logger *zap.Logger) *LogNotificationSender {
	return &LogNotificationSender{logger: logger.Named("notifications")}
}

// Send logs the notification instead of delivering it
func (s *LogNotificationSender) Send(ctx context.Context, customerID uuid.UUID, channel collections.Channel, template string, payload map[string]string) error {
	s.logger.Info("collection notification",
		zap.String("customer_id", customerID.String()),
		zap.String("channel", string(channel)),
		zap.String("template", template),
		zap.Any("payload", payload),
	)
	return nil
}
