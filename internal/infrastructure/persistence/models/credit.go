package models

import (
	"time"

	"github.com/crediretail/backend/internal/domain/credit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentModel is the persistence model for credit installments
type InstallmentModel struct {
	AggregateModel
	CreditID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number     int             `gorm:"not null"`
	Capital    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Interest   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	DueDate    time.Time       `gorm:"not null;index"`
	Status     string          `gorm:"type:varchar(20);not null;index"`
}

// TableName specifies the table name
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the model to a domain installment
func (m *InstallmentModel) ToDomain() *credit.Installment {
	return &credit.Installment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CreditID:          m.CreditID,
		CustomerID:        m.CustomerID,
		Number:            m.Number,
		Capital:           m.Capital,
		Interest:          m.Interest,
		PaidAmount:        m.PaidAmount,
		DueDate:           m.DueDate,
		Status:            credit.InstallmentStatus(m.Status),
	}
}

// InstallmentModelFromDomain converts a domain installment to its model
func InstallmentModelFromDomain(i *credit.Installment) *InstallmentModel {
	m := &InstallmentModel{
		CreditID:   i.CreditID,
		CustomerID: i.CustomerID,
		Number:     i.Number,
		Capital:    i.Capital,
		Interest:   i.Interest,
		PaidAmount: i.PaidAmount,
		DueDate:    i.DueDate,
		Status:     string(i.Status),
	}
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	return m
}
