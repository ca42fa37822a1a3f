package credit

import (
	"fmt"
	"time"

	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/crediretail/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the lifecycle state of a credit installment
type InstallmentStatus string

const (
	InstallmentStatusPending       InstallmentStatus = "PENDING"
	InstallmentStatusPaid          InstallmentStatus = "PAID"
	InstallmentStatusOverdue       InstallmentStatus = "OVERDUE"
	InstallmentStatusPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentStatusCancelled     InstallmentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPaid, InstallmentStatusOverdue,
		InstallmentStatusPartiallyPaid, InstallmentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the installment is in a terminal state
func (s InstallmentStatus) IsTerminal() bool {
	return s == InstallmentStatusPaid || s == InstallmentStatusCancelled
}

// IsOpen returns true if the installment can still accrue arrears
func (s InstallmentStatus) IsOpen() bool {
	return !s.IsTerminal()
}

// Installment represents one scheduled payment of a credit. Capital and
// interest hold the original scheduled amounts; arrears are always derived
// from them, never accrued onto the row. The arrears engine mutates status
// only, payment postings mutate the paid amount.
type Installment struct {
	shared.BaseAggregateRoot
	CreditID   uuid.UUID         `json:"credit_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	Number     int               `json:"number"`
	Capital    decimal.Decimal   `json:"capital"`
	Interest   decimal.Decimal   `json:"interest"`
	PaidAmount decimal.Decimal   `json:"paid_amount"`
	DueDate    time.Time         `json:"due_date"`
	Status     InstallmentStatus `json:"status"`
}

// NewInstallment creates a pending installment for a credit
func NewInstallment(creditID, customerID uuid.UUID, number int, capital, interest valueobject.Money, dueDate time.Time) (*Installment, error) {
	if creditID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CREDIT", "Credit ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if number <= 0 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Installment number must be positive")
	}
	if capital.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment capital must be positive")
	}
	if interest.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment interest cannot be negative")
	}
	return &Installment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CreditID:          creditID,
		CustomerID:        customerID,
		Number:            number,
		Capital:           capital.Amount(),
		Interest:          interest.Amount(),
		PaidAmount:        decimal.Zero,
		DueDate:           dueDate,
		Status:            InstallmentStatusPending,
	}, nil
}

// OutstandingBalance returns capital + interest - paid. It is always derived,
// never stored.
func (i *Installment) OutstandingBalance() decimal.Decimal {
	return i.Capital.Add(i.Interest).Sub(i.PaidAmount)
}

// DaysLate returns whole calendar days between the due date and asOf, floored
// at zero. Partial days do not count: an installment due today is not late.
func (i *Installment) DaysLate(asOf time.Time) int {
	due := truncateToDay(i.DueDate)
	on := truncateToDay(asOf)
	days := int(on.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// IsOverdue reports whether the installment is open and past due on asOf
func (i *Installment) IsOverdue(asOf time.Time) bool {
	return i.Status.IsOpen() && i.DaysLate(asOf) > 0 && i.OutstandingBalance().IsPositive()
}

// MarkOverdue flips an open installment to OVERDUE. Used by the collections
// automation; amounts are untouched.
func (i *Installment) MarkOverdue() error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark installment in %s status as overdue", i.Status))
	}
	if i.Status == InstallmentStatusOverdue {
		return nil
	}
	i.Status = InstallmentStatusOverdue
	i.Touch(nil)
	i.IncrementVersion()
	return nil
}

// RegisterPayment applies a posted payment amount to the installment and
// derives the resulting status
func (i *Installment) RegisterPayment(amount valueobject.Money, operator *uuid.UUID) error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to installment in %s status", i.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(i.OutstandingBalance()) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", "Payment amount exceeds outstanding balance")
	}

	i.PaidAmount = i.PaidAmount.Add(amount.Amount())
	if i.OutstandingBalance().IsZero() {
		i.Status = InstallmentStatusPaid
	} else {
		i.Status = InstallmentStatusPartiallyPaid
	}
	i.Touch(operator)
	i.IncrementVersion()
	return nil
}

// Cancel voids an unpaid installment (credit restructuring, agreement intake)
func (i *Installment) Cancel() error {
	if i.Status == InstallmentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a paid installment")
	}
	if i.Status == InstallmentStatusCancelled {
		return nil
	}
	i.Status = InstallmentStatusCancelled
	i.Touch(nil)
	i.IncrementVersion()
	return nil
}

// truncateToDay pins the calendar date to midnight UTC. Local midnights would
// make DST-shortened days floor to zero in the division above.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
