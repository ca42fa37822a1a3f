package collections

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgreementStatus represents the lifecycle state of a payment agreement
type AgreementStatus string

const (
	AgreementStatusDraft     AgreementStatus = "DRAFT"
	AgreementStatusActive    AgreementStatus = "ACTIVE"
	AgreementStatusFulfilled AgreementStatus = "FULFILLED"
	AgreementStatusBroken    AgreementStatus = "BROKEN"
	AgreementStatusCancelled AgreementStatus = "CANCELLED"
)

// IsValid checks if the status is a valid AgreementStatus
func (s AgreementStatus) IsValid() bool {
	switch s {
	case AgreementStatusDraft, AgreementStatusActive, AgreementStatusFulfilled,
		AgreementStatusBroken, AgreementStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for fulfilled, broken or cancelled agreements
func (s AgreementStatus) IsTerminal() bool {
	return s == AgreementStatusFulfilled || s == AgreementStatusBroken || s == AgreementStatusCancelled
}

// AgreementInstallmentStatus is the state of one agreement installment
type AgreementInstallmentStatus string

const (
	AgreementInstallmentPending AgreementInstallmentStatus = "PENDING"
	AgreementInstallmentPaid    AgreementInstallmentStatus = "PAID"
)

// AgreementInstallment is one scheduled payment of a negotiated agreement.
// The schedule is independent of the original credit installments. Stored as
// a JSONB value-object list within the agreement aggregate.
type AgreementInstallment struct {
	Number  int                        `json:"number"`
	DueDate time.Time                  `json:"due_date"`
	Amount  decimal.Decimal            `json:"amount"`
	Status  AgreementInstallmentStatus `json:"status"`
	PaidAt  *time.Time                 `json:"paid_at,omitempty"`
}

// AgreementInstallments implements GORM Scanner/Valuer for JSONB storage
type AgreementInstallments []AgreementInstallment

// Value implements driver.Valuer for JSONB storage
func (a AgreementInstallments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB storage
func (a *AgreementInstallments) Scan(value interface{}) error {
	if value == nil {
		*a = AgreementInstallments{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan AgreementInstallments: unsupported type")
	}
	if len(bytes) == 0 {
		*a = AgreementInstallments{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// PaymentAgreement is a negotiated restructuring of an overdue position.
// Amounts are frozen at creation; on breach the agreement is marked Broken
// and payments already made remain applied (the original debt is not
// reinstated).
type PaymentAgreement struct {
	shared.BaseAggregateRoot
	AlertID         uuid.UUID             `json:"alert_id"`
	CreditID        uuid.UUID             `json:"credit_id"`
	CustomerID      uuid.UUID             `json:"customer_id"`
	OriginalDebt    decimal.Decimal       `json:"original_debt"`
	OriginalArrears decimal.Decimal       `json:"original_arrears"`
	CondonedAmount  decimal.Decimal       `json:"condoned_amount"`
	InitialPayment  decimal.Decimal       `json:"initial_payment"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	Status          AgreementStatus       `json:"status"`
	Installments    AgreementInstallments `json:"installments"`
	ActivatedAt     *time.Time            `json:"activated_at"`
	ClosedAt        *time.Time            `json:"closed_at"`
}

// NewPaymentAgreement validates the negotiated terms against policy and
// builds the draft with its installment schedule. Validation is fail-fast and
// reports every offending field; nothing is written on failure.
func NewPaymentAgreement(
	alertID, creditID, customerID uuid.UUID,
	originalDebt, originalArrears, condonedAmount, initialPayment decimal.Decimal,
	installmentCount int,
	firstInstallmentDate time.Time,
	policy arrears.AgreementPolicy,
) (*PaymentAgreement, error) {
	verr := shared.NewValidationError()

	if alertID == uuid.Nil {
		verr.Add("alert_id", "cannot be empty")
	}
	if customerID == uuid.Nil {
		verr.Add("customer_id", "cannot be empty")
	}
	if originalDebt.IsNegative() {
		verr.Add("original_debt", "cannot be negative")
	}
	if originalArrears.IsNegative() {
		verr.Add("original_arrears", "cannot be negative")
	}

	grossDebt := originalDebt.Add(originalArrears)
	if condonedAmount.IsPositive() {
		if !policy.CondonationAllowed {
			verr.Add("condoned_amount", "condonation is not allowed by policy")
		} else if condonedAmount.GreaterThan(grossDebt.Mul(policy.MaxCondonationPct)) {
			verr.Add("condoned_amount", fmt.Sprintf("exceeds the allowed %s%% of the debt", policy.MaxCondonationPct.Mul(decimal.NewFromInt(100)).StringFixed(0)))
		}
	} else if condonedAmount.IsNegative() {
		verr.Add("condoned_amount", "cannot be negative")
	}

	totalAmount := grossDebt.Sub(condonedAmount)
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		verr.Add("total_amount", "must be positive after condonation")
	}

	minInitial := totalAmount.Mul(policy.MinInitialPaymentPct)
	if initialPayment.LessThan(minInitial) {
		verr.Add("initial_payment", fmt.Sprintf("must be at least %s", minInitial.StringFixed(2)))
	}
	if initialPayment.GreaterThan(totalAmount) {
		verr.Add("initial_payment", "cannot exceed the total amount")
	}

	if installmentCount <= 0 {
		verr.Add("installment_count", "must be positive")
	} else if policy.MaxInstallments > 0 && installmentCount > policy.MaxInstallments {
		verr.Add("installment_count", fmt.Sprintf("cannot exceed %d", policy.MaxInstallments))
	}

	if verr.HasErrors() {
		return nil, verr
	}

	financed := totalAmount.Sub(initialPayment)
	return &PaymentAgreement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AlertID:           alertID,
		CreditID:          creditID,
		CustomerID:        customerID,
		OriginalDebt:      originalDebt,
		OriginalArrears:   originalArrears,
		CondonedAmount:    condonedAmount,
		InitialPayment:    initialPayment,
		TotalAmount:       totalAmount,
		Status:            AgreementStatusDraft,
		Installments:      buildSchedule(financed, installmentCount, firstInstallmentDate),
	}, nil
}

// buildSchedule splits the financed amount into equal monthly installments.
// Amounts are rounded to cents; the last installment absorbs the remainder so
// the schedule sums exactly to the financed amount.
func buildSchedule(financed decimal.Decimal, count int, firstDate time.Time) AgreementInstallments {
	per := financed.Div(decimal.NewFromInt(int64(count))).Round(2)
	installments := make(AgreementInstallments, count)
	allocated := decimal.Zero
	for i := 0; i < count; i++ {
		amount := per
		if i == count-1 {
			amount = financed.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		installments[i] = AgreementInstallment{
			Number:  i + 1,
			DueDate: firstDate.AddDate(0, i, 0),
			Amount:  amount,
			Status:  AgreementInstallmentPending,
		}
	}
	return installments
}

// Activate confirms a draft agreement
func (ag *PaymentAgreement) Activate() error {
	if ag.Status != AgreementStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot activate agreement in %s status", ag.Status))
	}
	now := time.Now()
	ag.Status = AgreementStatusActive
	ag.ActivatedAt = &now
	ag.Touch(nil)
	ag.IncrementVersion()
	return nil
}

// Cancel voids the agreement. Only drafts and active agreements can be
// cancelled; this is a manual operation.
func (ag *PaymentAgreement) Cancel(operator *uuid.UUID) error {
	if ag.Status != AgreementStatusDraft && ag.Status != AgreementStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel agreement in %s status", ag.Status))
	}
	now := time.Now()
	ag.Status = AgreementStatusCancelled
	ag.ClosedAt = &now
	ag.Touch(operator)
	ag.IncrementVersion()
	return nil
}

// RegisterInstallmentPayment marks one agreement installment as paid. When
// the last one is paid the agreement becomes Fulfilled.
func (ag *PaymentAgreement) RegisterInstallmentPayment(number int) error {
	if ag.Status != AgreementStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot register payment on agreement in %s status", ag.Status))
	}
	idx := -1
	for i := range ag.Installments {
		if ag.Installments[i].Number == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NewDomainError("INVALID_INSTALLMENT", fmt.Sprintf("Agreement has no installment %d", number))
	}
	if ag.Installments[idx].Status == AgreementInstallmentPaid {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Installment %d is already paid", number))
	}

	now := time.Now()
	ag.Installments[idx].Status = AgreementInstallmentPaid
	ag.Installments[idx].PaidAt = &now

	if ag.allPaid() {
		ag.Status = AgreementStatusFulfilled
		ag.ClosedAt = &now
	}
	ag.Touch(nil)
	ag.IncrementVersion()
	return nil
}

// IsBroken reports whether any unpaid installment is past its due date by
// more than toleranceDays on the given date
func (ag *PaymentAgreement) IsBroken(today time.Time, toleranceDays int) bool {
	if ag.Status != AgreementStatusActive {
		return false
	}
	limit := truncateDay(today)
	for _, inst := range ag.Installments {
		if inst.Status == AgreementInstallmentPaid {
			continue
		}
		deadline := truncateDay(inst.DueDate).AddDate(0, 0, toleranceDays)
		if limit.After(deadline) {
			return true
		}
	}
	return false
}

// MarkBroken closes an active agreement after a breach. Payments already made
// stay applied; the pre-agreement debt is not reinstated.
func (ag *PaymentAgreement) MarkBroken() error {
	if ag.Status != AgreementStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot break agreement in %s status", ag.Status))
	}
	now := time.Now()
	ag.Status = AgreementStatusBroken
	ag.ClosedAt = &now
	ag.Touch(nil)
	ag.IncrementVersion()
	return nil
}

// OutstandingAmount returns the sum of unpaid agreement installments
func (ag *PaymentAgreement) OutstandingAmount() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range ag.Installments {
		if inst.Status != AgreementInstallmentPaid {
			total = total.Add(inst.Amount)
		}
	}
	return total
}

func (ag *PaymentAgreement) allPaid() bool {
	for _, inst := range ag.Installments {
		if inst.Status != AgreementInstallmentPaid {
			return false
		}
	}
	return true
}
