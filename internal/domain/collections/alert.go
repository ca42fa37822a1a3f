package collections

import (
	"fmt"
	"time"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertStatus represents the workflow state of a collection alert
type AlertStatus string

const (
	AlertStatusPending    AlertStatus = "PENDING"
	AlertStatusInProgress AlertStatus = "IN_PROGRESS"
	AlertStatusResolved   AlertStatus = "RESOLVED"
	AlertStatusIgnored    AlertStatus = "IGNORED"
)

// IsValid checks if the status is a valid AlertStatus
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusPending, AlertStatusInProgress, AlertStatusResolved, AlertStatusIgnored:
		return true
	}
	return false
}

// String returns the string representation of AlertStatus
func (s AlertStatus) String() string {
	return string(s)
}

// IsOpen returns true if the alert is still being worked
func (s AlertStatus) IsOpen() bool {
	return s == AlertStatusPending || s == AlertStatusInProgress
}

// CollectionAlert tracks one overdue installment through the collections
// workflow. DaysOverdue and Amount are snapshots refreshed by the daily
// batch; severity stays consistent with the thresholds that were configured
// at classification time.
type CollectionAlert struct {
	shared.BaseAggregateRoot
	InstallmentID     uuid.UUID        `json:"installment_id"`
	CreditID          uuid.UUID        `json:"credit_id"`
	CustomerID        uuid.UUID        `json:"customer_id"`
	DaysOverdue       int              `json:"days_overdue"`
	Amount            decimal.Decimal  `json:"amount"`
	Severity          arrears.Severity `json:"severity"`
	Status            AlertStatus      `json:"status"`
	AssignedManagerID *uuid.UUID       `json:"assigned_manager_id"`
	NotifiedOn        *time.Time       `json:"notified_on"`
	NotifiedCount     int              `json:"notified_count"` // notifications sent on NotifiedOn's calendar day
	ResolvedAt        *time.Time       `json:"resolved_at"`
}

// NewCollectionAlert creates a pending alert for an overdue installment
func NewCollectionAlert(installmentID, creditID, customerID uuid.UUID, daysOverdue int, amount decimal.Decimal, severity arrears.Severity) (*CollectionAlert, error) {
	if installmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT", "Installment ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if daysOverdue <= 0 {
		return nil, shared.NewDomainError("INVALID_DAYS", "An alert requires at least one day overdue")
	}
	if !severity.IsValid() {
		return nil, shared.NewDomainError("INVALID_SEVERITY", "Severity is not valid")
	}
	return &CollectionAlert{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InstallmentID:     installmentID,
		CreditID:          creditID,
		CustomerID:        customerID,
		DaysOverdue:       daysOverdue,
		Amount:            amount,
		Severity:          severity,
		Status:            AlertStatusPending,
	}, nil
}

// RefreshSnapshot updates the overdue-days and amount snapshots and
// reclassifies severity. Severity never de-escalates below a level the
// workflow already escalated to.
func (a *CollectionAlert) RefreshSnapshot(daysOverdue int, amount decimal.Decimal, severity arrears.Severity) error {
	if !a.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refresh alert in %s status", a.Status))
	}
	a.DaysOverdue = daysOverdue
	a.Amount = amount
	if severity.Rank() > a.Severity.Rank() {
		a.Severity = severity
	}
	a.Touch(nil)
	a.IncrementVersion()
	return nil
}

// Escalate raises severity by one level, capped at Critical. Escalating an
// already-critical alert is a no-op, not an error.
func (a *CollectionAlert) Escalate() error {
	if !a.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot escalate alert in %s status", a.Status))
	}
	next := a.Severity.Next()
	if next == a.Severity {
		return nil
	}
	a.Severity = next
	a.Touch(nil)
	a.IncrementVersion()
	return nil
}

// StartProgress moves a pending alert into active management
func (a *CollectionAlert) StartProgress(manager *uuid.UUID) error {
	if a.Status != AlertStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start progress on alert in %s status", a.Status))
	}
	a.Status = AlertStatusInProgress
	if manager != nil {
		a.AssignedManagerID = manager
	}
	a.Touch(manager)
	a.IncrementVersion()
	return nil
}

// Resolve closes the alert after the position is settled or renegotiated
func (a *CollectionAlert) Resolve(operator *uuid.UUID) error {
	if !a.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot resolve alert in %s status", a.Status))
	}
	now := time.Now()
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
	a.Touch(operator)
	a.IncrementVersion()
	return nil
}

// Ignore closes the alert without action (manual decision)
func (a *CollectionAlert) Ignore(operator *uuid.UUID) error {
	if !a.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot ignore alert in %s status", a.Status))
	}
	a.Status = AlertStatusIgnored
	a.Touch(operator)
	a.IncrementVersion()
	return nil
}

// AssignManager sets or replaces the responsible collections manager
func (a *CollectionAlert) AssignManager(managerID uuid.UUID) error {
	if !a.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot assign manager on alert in %s status", a.Status))
	}
	if managerID == uuid.Nil {
		return shared.NewDomainError("INVALID_MANAGER", "Manager ID cannot be empty")
	}
	a.AssignedManagerID = &managerID
	a.Touch(nil)
	a.IncrementVersion()
	return nil
}

// NotificationsSentOn returns how many notifications went out for this alert
// on the given calendar day
func (a *CollectionAlert) NotificationsSentOn(day time.Time) int {
	if a.NotifiedOn == nil || !sameDay(*a.NotifiedOn, day) {
		return 0
	}
	return a.NotifiedCount
}

// RecordNotification counts a sent notification against the per-installment
// daily cap
func (a *CollectionAlert) RecordNotification(day time.Time) {
	if a.NotifiedOn == nil || !sameDay(*a.NotifiedOn, day) {
		a.NotifiedCount = 0
	}
	d := day
	a.NotifiedOn = &d
	a.NotifiedCount++
	a.Touch(nil)
	a.IncrementVersion()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
