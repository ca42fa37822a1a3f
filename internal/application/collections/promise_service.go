package collections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PromiseService manages payment promises taken during collection contacts
type PromiseService struct {
	promises collections.PromiseRepository
	alerts   collections.AlertRepository
	contacts collections.ContactRecordRepository
	configs  arrears.ConfigProvider
	logger   *zap.Logger
}

// NewPromiseService creates a new PromiseService
func NewPromiseService(
	promises collections.PromiseRepository,
	alerts collections.AlertRepository,
	contacts collections.ContactRecordRepository,
	configs arrears.ConfigProvider,
	logger *zap.Logger,
) *PromiseService {
	return &PromiseService{
		promises: promises,
		alerts:   alerts,
		contacts: contacts,
		configs:  configs,
		logger:   logger,
	}
}

// RegisterPromise records a payment promise against an open alert. An alert
// carries at most one active promise; the deadline extends the promised date
// by the configured grace days.
func (s *PromiseService) RegisterPromise(ctx context.Context, alertID uuid.UUID, promisedDate time.Time, amount decimal.Decimal, operator *uuid.UUID) (*collections.PaymentPromise, error) {
	alert, err := s.alerts.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !alert.Status.IsOpen() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot register a promise on alert in %s status", alert.Status))
	}

	if _, err := s.promises.FindActiveByAlert(ctx, alertID); err == nil {
		return nil, shared.NewDomainError("PROMISE_EXISTS", "Alert already has an active payment promise")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	cfg, err := s.configs.Current(ctx)
	if err != nil {
		return nil, err
	}
	promise, err := collections.NewPaymentPromise(alertID, alert.CustomerID, promisedDate, amount, cfg.DaysToFulfillPromise)
	if err != nil {
		return nil, err
	}
	if err := s.promises.Save(ctx, promise); err != nil {
		return nil, err
	}

	if alert.Status == collections.AlertStatusPending {
		if err := alert.StartProgress(operator); err == nil {
			if err := s.alerts.SaveWithLock(ctx, alert); err != nil {
				s.logger.Warn("failed to move alert into progress after promise",
					zap.String("alert_id", alertID.String()), zap.Error(err))
			}
		}
	}

	note := fmt.Sprintf("payment promise registered: %s by %s",
		amount.StringFixed(2), promise.Deadline.Format("2006-01-02"))
	if record, noteErr := collections.NewAutomaticNote(alertID, alert.CustomerID, note); noteErr == nil {
		if err := s.contacts.Append(ctx, record); err != nil {
			s.logger.Warn("failed to append promise note", zap.Error(err))
		}
	}
	return promise, nil
}

// MarkFulfilled closes a promise after the promised payment was received
func (s *PromiseService) MarkFulfilled(ctx context.Context, promiseID uuid.UUID, operator *uuid.UUID) (*collections.PaymentPromise, error) {
	promise, err := s.promises.FindByID(ctx, promiseID)
	if err != nil {
		return nil, err
	}
	if err := promise.Fulfill(); err != nil {
		return nil, err
	}
	if err := s.promises.SaveWithLock(ctx, promise); err != nil {
		return nil, err
	}
	if record, noteErr := collections.NewAutomaticNote(promise.AlertID, promise.CustomerID, "payment promise fulfilled"); noteErr == nil {
		if err := s.contacts.Append(ctx, record); err != nil {
			s.logger.Warn("failed to append fulfillment note", zap.Error(err))
		}
	}
	return promise, nil
}

// ExpireDuePromises expires every active promise whose deadline has passed.
// Each expiry escalates the linked alert and leaves an audit note. Failures
// are isolated per promise; the sweep continues and returns how many expired.
func (s *PromiseService) ExpireDuePromises(ctx context.Context, today time.Time) (int, error) {
	active, err := s.promises.FindActive(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range active {
		promise := &active[i]
		if !promise.IsExpired(today) {
			continue
		}
		if err := promise.Expire(); err != nil {
			continue
		}
		if err := s.promises.SaveWithLock(ctx, promise); err != nil {
			s.logger.Warn("failed to expire promise",
				zap.String("promise_id", promise.ID.String()), zap.Error(err))
			continue
		}
		expired++
		s.escalateBrokenPromise(ctx, promise)
	}
	return expired, nil
}

// escalateBrokenPromise raises the linked alert one severity level and
// records the broken promise in the contact trail
func (s *PromiseService) escalateBrokenPromise(ctx context.Context, promise *collections.PaymentPromise) {
	alert, err := s.alerts.FindByID(ctx, promise.AlertID)
	if err != nil {
		s.logger.Warn("broken promise: alert not found",
			zap.String("alert_id", promise.AlertID.String()), zap.Error(err))
		return
	}
	if alert.Status.IsOpen() {
		if err := alert.Escalate(); err == nil {
			if err := s.alerts.SaveWithLock(ctx, alert); err != nil {
				s.logger.Warn("broken promise: escalation not persisted",
					zap.String("alert_id", alert.ID.String()), zap.Error(err))
			}
		}
	}
	note := fmt.Sprintf("payment promise broken: %s was due by %s",
		promise.Amount.StringFixed(2), promise.Deadline.Format("2006-01-02"))
	if record, noteErr := collections.NewAutomaticNote(promise.AlertID, promise.CustomerID, note); noteErr == nil {
		if err := s.contacts.Append(ctx, record); err != nil {
			s.logger.Warn("broken promise: note not persisted", zap.Error(err))
		}
	}
}
