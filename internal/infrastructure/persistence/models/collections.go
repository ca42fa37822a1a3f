package models

import (
	"time"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionAlertModel is the persistence model for collection alerts
type CollectionAlertModel struct {
	AggregateModel
	InstallmentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreditID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	DaysOverdue       int             `gorm:"not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Severity          string          `gorm:"type:varchar(20);not null;index"`
	Status            string          `gorm:"type:varchar(20);not null;index"`
	AssignedManagerID *uuid.UUID      `gorm:"type:uuid"`
	NotifiedOn        *time.Time
	NotifiedCount     int `gorm:"not null;default:0"`
	ResolvedAt        *time.Time
}

// TableName specifies the table name
func (CollectionAlertModel) TableName() string {
	return "collection_alerts"
}

// ToDomain converts the model to a domain alert
func (m *CollectionAlertModel) ToDomain() *collections.CollectionAlert {
	return &collections.CollectionAlert{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InstallmentID:     m.InstallmentID,
		CreditID:          m.CreditID,
		CustomerID:        m.CustomerID,
		DaysOverdue:       m.DaysOverdue,
		Amount:            m.Amount,
		Severity:          arrears.Severity(m.Severity),
		Status:            collections.AlertStatus(m.Status),
		AssignedManagerID: m.AssignedManagerID,
		NotifiedOn:        m.NotifiedOn,
		NotifiedCount:     m.NotifiedCount,
		ResolvedAt:        m.ResolvedAt,
	}
}

// CollectionAlertModelFromDomain converts a domain alert to its model
func CollectionAlertModelFromDomain(a *collections.CollectionAlert) *CollectionAlertModel {
	m := &CollectionAlertModel{
		InstallmentID:     a.InstallmentID,
		CreditID:          a.CreditID,
		CustomerID:        a.CustomerID,
		DaysOverdue:       a.DaysOverdue,
		Amount:            a.Amount,
		Severity:          string(a.Severity),
		Status:            string(a.Status),
		AssignedManagerID: a.AssignedManagerID,
		NotifiedOn:        a.NotifiedOn,
		NotifiedCount:     a.NotifiedCount,
		ResolvedAt:        a.ResolvedAt,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// PaymentPromiseModel is the persistence model for payment promises
type PaymentPromiseModel struct {
	AggregateModel
	AlertID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PromisedDate time.Time       `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Deadline     time.Time       `gorm:"not null;index"`
	Status       string          `gorm:"type:varchar(20);not null;index"`
	FulfilledAt  *time.Time
	ExpiredAt    *time.Time
}

// TableName specifies the table name
func (PaymentPromiseModel) TableName() string {
	return "payment_promises"
}

// ToDomain converts the model to a domain promise
func (m *PaymentPromiseModel) ToDomain() *collections.PaymentPromise {
	return &collections.PaymentPromise{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		AlertID:           m.AlertID,
		CustomerID:        m.CustomerID,
		PromisedDate:      m.PromisedDate,
		Amount:            m.Amount,
		Deadline:          m.Deadline,
		Status:            collections.PromiseStatus(m.Status),
		FulfilledAt:       m.FulfilledAt,
		ExpiredAt:         m.ExpiredAt,
	}
}

// PaymentPromiseModelFromDomain converts a domain promise to its model
func PaymentPromiseModelFromDomain(p *collections.PaymentPromise) *PaymentPromiseModel {
	m := &PaymentPromiseModel{
		AlertID:      p.AlertID,
		CustomerID:   p.CustomerID,
		PromisedDate: p.PromisedDate,
		Amount:       p.Amount,
		Deadline:     p.Deadline,
		Status:       string(p.Status),
		FulfilledAt:  p.FulfilledAt,
		ExpiredAt:    p.ExpiredAt,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// PaymentAgreementModel is the persistence model for payment agreements.
// The installment schedule is stored as JSONB inside the aggregate row.
type PaymentAgreementModel struct {
	AggregateModel
	AlertID         uuid.UUID                         `gorm:"type:uuid;not null;index"`
	CreditID        uuid.UUID                         `gorm:"type:uuid;not null;index"`
	CustomerID      uuid.UUID                         `gorm:"type:uuid;not null;index"`
	OriginalDebt    decimal.Decimal                   `gorm:"type:decimal(20,4);not null"`
	OriginalArrears decimal.Decimal                   `gorm:"type:decimal(20,4);not null"`
	CondonedAmount  decimal.Decimal                   `gorm:"type:decimal(20,4);not null;default:0"`
	InitialPayment  decimal.Decimal                   `gorm:"type:decimal(20,4);not null"`
	TotalAmount     decimal.Decimal                   `gorm:"type:decimal(20,4);not null"`
	Status          string                            `gorm:"type:varchar(20);not null;index"`
	Installments    collections.AgreementInstallments `gorm:"type:jsonb"`
	ActivatedAt     *time.Time
	ClosedAt        *time.Time
}

// TableName specifies the table name
func (PaymentAgreementModel) TableName() string {
	return "payment_agreements"
}

// ToDomain converts the model to a domain agreement
func (m *PaymentAgreementModel) ToDomain() *collections.PaymentAgreement {
	return &collections.PaymentAgreement{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		AlertID:           m.AlertID,
		CreditID:          m.CreditID,
		CustomerID:        m.CustomerID,
		OriginalDebt:      m.OriginalDebt,
		OriginalArrears:   m.OriginalArrears,
		CondonedAmount:    m.CondonedAmount,
		InitialPayment:    m.InitialPayment,
		TotalAmount:       m.TotalAmount,
		Status:            collections.AgreementStatus(m.Status),
		Installments:      m.Installments,
		ActivatedAt:       m.ActivatedAt,
		ClosedAt:          m.ClosedAt,
	}
}

// PaymentAgreementModelFromDomain converts a domain agreement to its model
func PaymentAgreementModelFromDomain(a *collections.PaymentAgreement) *PaymentAgreementModel {
	m := &PaymentAgreementModel{
		AlertID:         a.AlertID,
		CreditID:        a.CreditID,
		CustomerID:      a.CustomerID,
		OriginalDebt:    a.OriginalDebt,
		OriginalArrears: a.OriginalArrears,
		CondonedAmount:  a.CondonedAmount,
		InitialPayment:  a.InitialPayment,
		TotalAmount:     a.TotalAmount,
		Status:          string(a.Status),
		Installments:    a.Installments,
		ActivatedAt:     a.ActivatedAt,
		ClosedAt:        a.ClosedAt,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// ContactRecordModel is the persistence model for the contact audit trail
type ContactRecordModel struct {
	BaseModel
	AlertID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ManagerID  *uuid.UUID `gorm:"type:uuid"`
	Type       string     `gorm:"type:varchar(20);not null"`
	Outcome    string     `gorm:"type:varchar(30);not null"`
	Notes      string     `gorm:"type:text"`
}

// TableName specifies the table name
func (ContactRecordModel) TableName() string {
	return "contact_records"
}

// ToDomain converts the model to a domain contact record
func (m *ContactRecordModel) ToDomain() *collections.ContactRecord {
	return &collections.ContactRecord{
		BaseEntity: m.BaseModel.ToDomain(),
		AlertID:    m.AlertID,
		CustomerID: m.CustomerID,
		ManagerID:  m.ManagerID,
		Type:       collections.ContactType(m.Type),
		Outcome:    collections.ContactOutcome(m.Outcome),
		Notes:      m.Notes,
	}
}

// ContactRecordModelFromDomain converts a domain contact record to its model
func ContactRecordModelFromDomain(r *collections.ContactRecord) *ContactRecordModel {
	m := &ContactRecordModel{
		AlertID:    r.AlertID,
		CustomerID: r.CustomerID,
		ManagerID:  r.ManagerID,
		Type:       string(r.Type),
		Outcome:    string(r.Outcome),
		Notes:      r.Notes,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// CollectionTierModel is the persistence model for collection tiers
type CollectionTierModel struct {
	AggregateModel
	Name     string                  `gorm:"type:varchar(100);not null"`
	FromDay  int                     `gorm:"not null"`
	ToDay    *int
	Priority int                     `gorm:"not null;default:0;index"`
	Enabled  bool                    `gorm:"not null;default:true"`
	Actions  collections.TierActions `gorm:"type:jsonb"`
}

// TableName specifies the table name
func (CollectionTierModel) TableName() string {
	return "collection_tiers"
}

// ToDomain converts the model to a domain tier
func (m *CollectionTierModel) ToDomain() *collections.CollectionTier {
	return &collections.CollectionTier{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		FromDay:           m.FromDay,
		ToDay:             m.ToDay,
		Priority:          m.Priority,
		Enabled:           m.Enabled,
		Actions:           m.Actions,
	}
}

// CollectionTierModelFromDomain converts a domain tier to its model
func CollectionTierModelFromDomain(t *collections.CollectionTier) *CollectionTierModel {
	m := &CollectionTierModel{
		Name:     t.Name,
		FromDay:  t.FromDay,
		ToDay:    t.ToDay,
		Priority: t.Priority,
		Enabled:  t.Enabled,
		Actions:  t.Actions,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}
