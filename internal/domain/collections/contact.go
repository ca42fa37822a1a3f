package collections

import (
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactType is the channel used to reach the customer
type ContactType string

const (
	ContactCall         ContactType = "CALL"
	ContactWhatsApp     ContactType = "WHATSAPP"
	ContactEmail        ContactType = "EMAIL"
	ContactVisit        ContactType = "VISIT"
	ContactSMS          ContactType = "SMS"
	ContactInternalNote ContactType = "INTERNAL_NOTE"
)

// IsValid checks if the contact type is valid
func (t ContactType) IsValid() bool {
	switch t {
	case ContactCall, ContactWhatsApp, ContactEmail, ContactVisit, ContactSMS, ContactInternalNote:
		return true
	}
	return false
}

// ContactOutcome is the result of a contact attempt
type ContactOutcome string

const (
	OutcomeSucceeded         ContactOutcome = "SUCCEEDED"
	OutcomeNoAnswer          ContactOutcome = "NO_ANSWER"
	OutcomeWrongNumber       ContactOutcome = "WRONG_NUMBER"
	OutcomePromise           ContactOutcome = "PROMISE"
	OutcomeRefusal           ContactOutcome = "REFUSAL"
	OutcomeRequestsAgreement ContactOutcome = "REQUESTS_AGREEMENT"
	OutcomeMessageLeft       ContactOutcome = "MESSAGE_LEFT"
	OutcomePromiseBroken     ContactOutcome = "PROMISE_BROKEN"
	OutcomePaid              ContactOutcome = "PAID"
)

// IsValid checks if the outcome is valid
func (o ContactOutcome) IsValid() bool {
	switch o {
	case OutcomeSucceeded, OutcomeNoAnswer, OutcomeWrongNumber, OutcomePromise,
		OutcomeRefusal, OutcomeRequestsAgreement, OutcomeMessageLeft,
		OutcomePromiseBroken, OutcomePaid:
		return true
	}
	return false
}

// ContactRecord is one customer-contact attempt. Records are append-only:
// they are created, never updated or deleted, and form the audit trail of
// the collections workflow.
type ContactRecord struct {
	shared.BaseEntity
	AlertID    uuid.UUID      `json:"alert_id"`
	CustomerID uuid.UUID      `json:"customer_id"`
	ManagerID  *uuid.UUID     `json:"manager_id"`
	Type       ContactType    `json:"type"`
	Outcome    ContactOutcome `json:"outcome"`
	Notes      string         `json:"notes"`
}

// NewContactRecord creates an audit entry for a contact attempt
func NewContactRecord(alertID, customerID uuid.UUID, managerID *uuid.UUID, contactType ContactType, outcome ContactOutcome, notes string) (*ContactRecord, error) {
	if alertID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ALERT", "Alert ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !contactType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONTACT_TYPE", "Contact type is not valid")
	}
	if !outcome.IsValid() {
		return nil, shared.NewDomainError("INVALID_OUTCOME", "Contact outcome is not valid")
	}
	return &ContactRecord{
		BaseEntity: shared.NewBaseEntity(),
		AlertID:    alertID,
		CustomerID: customerID,
		ManagerID:  managerID,
		Type:       contactType,
		Outcome:    outcome,
		Notes:      notes,
	}, nil
}

// NewAutomaticNote creates an internal-note record written by the automation
func NewAutomaticNote(alertID, customerID uuid.UUID, notes string) (*ContactRecord, error) {
	return NewContactRecord(alertID, customerID, nil, ContactInternalNote, OutcomeSucceeded, notes)
}
