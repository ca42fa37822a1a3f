package collections

import (
	"fmt"
	"time"

	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromiseStatus represents the lifecycle state of a payment promise
type PromiseStatus string

const (
	PromiseStatusActive    PromiseStatus = "ACTIVE"
	PromiseStatusFulfilled PromiseStatus = "FULFILLED"
	PromiseStatusExpired   PromiseStatus = "EXPIRED"
)

// IsValid checks if the status is a valid PromiseStatus
func (s PromiseStatus) IsValid() bool {
	return s == PromiseStatusActive || s == PromiseStatusFulfilled || s == PromiseStatusExpired
}

// IsTerminal returns true for fulfilled or expired promises. Transitions are
// one-directional: a terminal promise is never resurrected.
func (s PromiseStatus) IsTerminal() bool {
	return s == PromiseStatusFulfilled || s == PromiseStatusExpired
}

// PaymentPromise records a customer's commitment to pay, taken during a
// contact. The deadline extends the promised date by the configured grace.
type PaymentPromise struct {
	shared.BaseAggregateRoot
	AlertID      uuid.UUID       `json:"alert_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	PromisedDate time.Time       `json:"promised_date"`
	Amount       decimal.Decimal `json:"amount"`
	Deadline     time.Time       `json:"deadline"`
	Status       PromiseStatus   `json:"status"`
	FulfilledAt  *time.Time      `json:"fulfilled_at"`
	ExpiredAt    *time.Time      `json:"expired_at"`
}

// NewPaymentPromise creates an active promise. graceDays comes from the
// arrears configuration (days_to_fulfill_promise).
func NewPaymentPromise(alertID, customerID uuid.UUID, promisedDate time.Time, amount decimal.Decimal, graceDays int) (*PaymentPromise, error) {
	if alertID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ALERT", "Alert ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Promised amount must be positive")
	}
	if graceDays < 0 {
		return nil, shared.NewDomainError("INVALID_GRACE", "Promise grace days cannot be negative")
	}
	return &PaymentPromise{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AlertID:           alertID,
		CustomerID:        customerID,
		PromisedDate:      promisedDate,
		Amount:            amount,
		Deadline:          promisedDate.AddDate(0, 0, graceDays),
		Status:            PromiseStatusActive,
	}, nil
}

// IsExpired reports whether an active promise has outlived its deadline on
// the given date. The deadline day itself still counts as active.
func (p *PaymentPromise) IsExpired(today time.Time) bool {
	return p.Status == PromiseStatusActive && truncateDay(today).After(truncateDay(p.Deadline))
}

// Fulfill closes the promise after the promised payment was detected
func (p *PaymentPromise) Fulfill() error {
	if p.Status != PromiseStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fulfill promise in %s status", p.Status))
	}
	now := time.Now()
	p.Status = PromiseStatusFulfilled
	p.FulfilledAt = &now
	p.Touch(nil)
	p.IncrementVersion()
	return nil
}

// Expire closes the promise after the deadline passed without payment
func (p *PaymentPromise) Expire() error {
	if p.Status != PromiseStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot expire promise in %s status", p.Status))
	}
	now := time.Now()
	p.Status = PromiseStatusExpired
	p.ExpiredAt = &now
	p.Touch(nil)
	p.IncrementVersion()
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
