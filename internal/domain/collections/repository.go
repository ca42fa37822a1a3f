package collections

import (
	"context"

	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AlertFilter defines filtering options for alert queries
type AlertFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *AlertStatus
}

// AlertRepository defines the interface for collection-alert persistence
type AlertRepository interface {
	// FindByID finds an alert by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CollectionAlert, error)

	// FindOpenByInstallment finds the open alert for an installment, or
	// shared.ErrNotFound when none is active
	FindOpenByInstallment(ctx context.Context, installmentID uuid.UUID) (*CollectionAlert, error)

	// FindOpen finds all pending or in-progress alerts
	FindOpen(ctx context.Context) ([]CollectionAlert, error)

	// FindAll finds alerts with filtering
	FindAll(ctx context.Context, filter AlertFilter) ([]CollectionAlert, error)

	// Save creates or updates an alert
	Save(ctx context.Context, alert *CollectionAlert) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, alert *CollectionAlert) error
}

// PromiseRepository defines the interface for payment-promise persistence
type PromiseRepository interface {
	// FindByID finds a promise by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentPromise, error)

	// FindActiveByAlert finds the active promise linked to an alert, or
	// shared.ErrNotFound
	FindActiveByAlert(ctx context.Context, alertID uuid.UUID) (*PaymentPromise, error)

	// FindActive finds all active promises
	FindActive(ctx context.Context) ([]PaymentPromise, error)

	// Save creates or updates a promise
	Save(ctx context.Context, promise *PaymentPromise) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, promise *PaymentPromise) error
}

// AgreementRepository defines the interface for payment-agreement persistence
type AgreementRepository interface {
	// FindByID finds an agreement by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentAgreement, error)

	// FindActive finds all active agreements
	FindActive(ctx context.Context) ([]PaymentAgreement, error)

	// FindByCustomer finds all agreements of a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]PaymentAgreement, error)

	// Save creates or updates an agreement
	Save(ctx context.Context, agreement *PaymentAgreement) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, agreement *PaymentAgreement) error
}

// ContactRecordRepository defines the append-only contact audit trail
type ContactRecordRepository interface {
	// Append stores a new contact record. Records are never updated.
	Append(ctx context.Context, record *ContactRecord) error

	// FindByAlert lists the contact history of an alert, oldest first
	FindByAlert(ctx context.Context, alertID uuid.UUID) ([]ContactRecord, error)
}

// TierRepository defines the interface for collection-tier persistence
type TierRepository interface {
	// FindByID finds a tier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CollectionTier, error)

	// FindEnabled lists enabled tiers ordered by priority
	FindEnabled(ctx context.Context) ([]CollectionTier, error)

	// FindAll lists every tier ordered by priority, disabled ones included
	FindAll(ctx context.Context) ([]CollectionTier, error)

	// Save creates or updates a tier
	Save(ctx context.Context, tier *CollectionTier) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, tier *CollectionTier) error
}
