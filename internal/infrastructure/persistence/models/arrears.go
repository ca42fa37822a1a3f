package models

import (
	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/shopspring/decimal"
)

// ArrearsConfigModel is the persistence model for the arrears policy
// singleton. Threshold and policy lists are stored as JSONB.
type ArrearsConfigModel struct {
	AggregateModel
	RateType             string                     `gorm:"type:varchar(20);not null"`
	BaseRate             decimal.Decimal            `gorm:"type:decimal(12,8);not null;default:0"`
	CalculationBase      string                     `gorm:"type:varchar(30);not null"`
	GraceDays            int                        `gorm:"not null;default:0"`
	EscalationEnabled    bool                       `gorm:"not null;default:false"`
	MonthOneRate         decimal.Decimal            `gorm:"type:decimal(12,8);not null;default:0"`
	MonthTwoRate         decimal.Decimal            `gorm:"type:decimal(12,8);not null;default:0"`
	MonthThreePlusRate   decimal.Decimal            `gorm:"type:decimal(12,8);not null;default:0"`
	CapEnabled           bool                       `gorm:"not null;default:false"`
	CapType              string                     `gorm:"type:varchar(20);not null"`
	CapValue             decimal.Decimal            `gorm:"type:decimal(20,4);not null;default:0"`
	MinimumFee           decimal.Decimal            `gorm:"type:decimal(20,4);not null;default:0"`
	Thresholds           arrears.SeverityThresholds `gorm:"type:jsonb"`
	Automation           arrears.AutomationPolicy   `gorm:"type:jsonb"`
	Agreements           arrears.AgreementPolicy    `gorm:"type:jsonb"`
	DaysToFulfillPromise int                        `gorm:"not null;default:0"`
}

// TableName specifies the table name
func (ArrearsConfigModel) TableName() string {
	return "arrears_configs"
}

// ToDomain converts the model to the domain configuration
func (m *ArrearsConfigModel) ToDomain() *arrears.Config {
	return &arrears.Config{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		RateType:             arrears.RateType(m.RateType),
		BaseRate:             m.BaseRate,
		CalculationBase:      arrears.CalculationBase(m.CalculationBase),
		GraceDays:            m.GraceDays,
		EscalationEnabled:    m.EscalationEnabled,
		MonthOneRate:         m.MonthOneRate,
		MonthTwoRate:         m.MonthTwoRate,
		MonthThreePlusRate:   m.MonthThreePlusRate,
		CapEnabled:           m.CapEnabled,
		CapType:              arrears.CapType(m.CapType),
		CapValue:             m.CapValue,
		MinimumFee:           m.MinimumFee,
		Thresholds:           m.Thresholds,
		Automation:           m.Automation,
		Agreements:           m.Agreements,
		DaysToFulfillPromise: m.DaysToFulfillPromise,
	}
}

// ArrearsConfigModelFromDomain converts a domain configuration to its model
func ArrearsConfigModelFromDomain(c *arrears.Config) *ArrearsConfigModel {
	m := &ArrearsConfigModel{
		RateType:             string(c.RateType),
		BaseRate:             c.BaseRate,
		CalculationBase:      string(c.CalculationBase),
		GraceDays:            c.GraceDays,
		EscalationEnabled:    c.EscalationEnabled,
		MonthOneRate:         c.MonthOneRate,
		MonthTwoRate:         c.MonthTwoRate,
		MonthThreePlusRate:   c.MonthThreePlusRate,
		CapEnabled:           c.CapEnabled,
		CapType:              string(c.CapType),
		CapValue:             c.CapValue,
		MinimumFee:           c.MinimumFee,
		Thresholds:           c.Thresholds,
		Automation:           c.Automation,
		Agreements:           c.Agreements,
		DaysToFulfillPromise: c.DaysToFulfillPromise,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
