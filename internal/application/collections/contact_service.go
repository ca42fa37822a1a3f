package collections

import (
	"context"

	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContactService records manual contact attempts made by collection managers
type ContactService struct {
	contacts collections.ContactRecordRepository
	alerts   collections.AlertRepository
	logger   *zap.Logger
}

// NewContactService creates a new ContactService
func NewContactService(contacts collections.ContactRecordRepository, alerts collections.AlertRepository, logger *zap.Logger) *ContactService {
	return &ContactService{contacts: contacts, alerts: alerts, logger: logger}
}

// RecordContact appends a contact attempt to the alert's audit trail. The
// first contact on a pending alert moves it into active management.
func (s *ContactService) RecordContact(ctx context.Context, alertID uuid.UUID, managerID *uuid.UUID, contactType collections.ContactType, outcome collections.ContactOutcome, notes string) (*collections.ContactRecord, error) {
	alert, err := s.alerts.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	record, err := collections.NewContactRecord(alertID, alert.CustomerID, managerID, contactType, outcome, notes)
	if err != nil {
		return nil, err
	}
	if err := s.contacts.Append(ctx, record); err != nil {
		return nil, err
	}

	if alert.Status == collections.AlertStatusPending {
		if err := alert.StartProgress(managerID); err == nil {
			if err := s.alerts.SaveWithLock(ctx, alert); err != nil {
				s.logger.Warn("contact recorded but alert not moved into progress",
					zap.String("alert_id", alertID.String()), zap.Error(err))
			}
		}
	}
	return record, nil
}

// History lists the contact trail of an alert, oldest first
func (s *ContactService) History(ctx context.Context, alertID uuid.UUID) ([]collections.ContactRecord, error) {
	return s.contacts.FindByAlert(ctx, alertID)
}
