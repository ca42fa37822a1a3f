package collections

import (
	"context"

	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertService exposes the manual collection-alert workflow: listing the
// queue, resolving, ignoring and assigning alerts. Automatic lifecycle
// transitions run through the daily batch instead.
type AlertService struct {
	alerts   collections.AlertRepository
	contacts collections.ContactRecordRepository
	logger   *zap.Logger
}

// NewAlertService creates a new AlertService
func NewAlertService(alerts collections.AlertRepository, contacts collections.ContactRecordRepository, logger *zap.Logger) *AlertService {
	return &AlertService{
		alerts:   alerts,
		contacts: contacts,
		logger:   logger,
	}
}

// List returns alerts matching the filter
func (s *AlertService) List(ctx context.Context, filter collections.AlertFilter) ([]collections.CollectionAlert, error) {
	return s.alerts.FindAll(ctx, filter)
}

// Get returns a single alert by ID
func (s *AlertService) Get(ctx context.Context, id uuid.UUID) (*collections.CollectionAlert, error) {
	return s.alerts.FindByID(ctx, id)
}

// Resolve closes an alert after the debt was settled or handled outside the
// automated workflow
func (s *AlertService) Resolve(ctx context.Context, id uuid.UUID, operator *uuid.UUID) (*collections.CollectionAlert, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := alert.Resolve(operator); err != nil {
		return nil, err
	}
	if err := s.alerts.SaveWithLock(ctx, alert); err != nil {
		return nil, err
	}
	s.appendNote(ctx, alert, "alert resolved manually")
	return alert, nil
}

// Ignore dismisses an alert without resolving the underlying debt
func (s *AlertService) Ignore(ctx context.Context, id uuid.UUID, operator *uuid.UUID) (*collections.CollectionAlert, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := alert.Ignore(operator); err != nil {
		return nil, err
	}
	if err := s.alerts.SaveWithLock(ctx, alert); err != nil {
		return nil, err
	}
	s.appendNote(ctx, alert, "alert ignored manually")
	return alert, nil
}

// AssignManager assigns a collections manager and moves the alert to
// IN_PROGRESS when it is still pending
func (s *AlertService) AssignManager(ctx context.Context, id, managerID uuid.UUID) (*collections.CollectionAlert, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := alert.AssignManager(managerID); err != nil {
		return nil, err
	}
	if alert.Status == collections.AlertStatusPending {
		if err := alert.StartProgress(&managerID); err != nil {
			return nil, err
		}
	}
	if err := s.alerts.SaveWithLock(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) appendNote(ctx context.Context, alert *collections.CollectionAlert, note string) {
	record, err := collections.NewAutomaticNote(alert.ID, alert.CustomerID, note)
	if err != nil {
		return
	}
	if err := s.contacts.Append(ctx, record); err != nil {
		s.logger.Warn("alert note not persisted",
			zap.String("alert_id", alert.ID.String()), zap.Error(err))
	}
}
