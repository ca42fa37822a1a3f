package collections

import (
	"context"
	"time"

	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/google/uuid"
)

// NotificationSender delivers collection notifications. Sending is
// best-effort and outside the transactional boundary: a delivery failure
// never rolls back the state transition that triggered it.
type NotificationSender interface {
	Send(ctx context.Context, customerID uuid.UUID, channel collections.Channel, template string, payload map[string]string) error
}

// ClientBlockingService applies commercial blocks on a customer
type ClientBlockingService interface {
	Block(ctx context.Context, customerID uuid.UUID, blockType collections.BlockType) error
}

// NotificationLimiter enforces the global per-day notification cap. The
// per-installment cap is tracked on the alert itself.
type NotificationLimiter interface {
	// Allow reserves one slot of the daily global budget for the given day.
	// It returns false once the budget is exhausted; exhausted sends are
	// skipped, not retried.
	Allow(ctx context.Context, day time.Time, limit int) (bool, error)
}
