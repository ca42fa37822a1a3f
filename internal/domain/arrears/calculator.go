package arrears

import (
	"time"

	"github.com/crediretail/backend/internal/domain/credit"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// daysPerMonth is the proration divisor for monthly rates and the width of
// one escalation bucket.
const daysPerMonth = 30

// FeeDetail is the full breakdown of one late-fee calculation. It is derived
// purely from (installment, asOf, config) and is never stored as accrued
// state.
type FeeDetail struct {
	InstallmentID  uuid.UUID       `json:"installment_id"`
	DaysLate       int             `json:"days_late"`
	EffectiveDays  int             `json:"effective_days"`
	Base           decimal.Decimal `json:"base"`
	RateApplied    decimal.Decimal `json:"rate_applied"`
	RawFee         decimal.Decimal `json:"raw_fee"`
	FinalFee       decimal.Decimal `json:"final_fee"`
	CapApplied     bool            `json:"cap_applied"`
	MinimumApplied bool            `json:"minimum_applied"`
	TotalDue       decimal.Decimal `json:"total_due"`
	Severity       Severity        `json:"severity"`
}

// CalculateFee computes the late fee for a single installment as of the given
// date. Pure and deterministic: no side effects, identical inputs produce
// identical output.
//
// The grace period dominates: within grace the fee is zero and neither the
// minimum nor the cap applies. The base uses the original capital/interest
// amounts, independent of what has already been paid.
func CalculateFee(installment *credit.Installment, asOf time.Time, cfg *Config) (*FeeDetail, error) {
	if installment == nil {
		return nil, shared.NewComputationError("installment is nil")
	}
	if cfg == nil {
		return nil, shared.NewComputationError("arrears configuration is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, shared.NewComputationError("malformed arrears configuration: %v", err)
	}

	outstanding := installment.OutstandingBalance()
	daysLate := installment.DaysLate(asOf)
	effectiveDays := daysLate - cfg.GraceDays
	if effectiveDays < 0 {
		effectiveDays = 0
	}

	detail := &FeeDetail{
		InstallmentID: installment.ID,
		DaysLate:      daysLate,
		EffectiveDays: effectiveDays,
		RawFee:        decimal.Zero,
		FinalFee:      decimal.Zero,
		TotalDue:      outstanding,
		Severity:      cfg.Classify(daysLate, outstanding),
	}
	if effectiveDays == 0 {
		return detail, nil
	}

	base := installment.Capital
	if cfg.CalculationBase == BaseCapitalInterest {
		base = base.Add(installment.Interest)
	}
	detail.Base = base

	rate := selectRate(cfg, effectiveDays)
	detail.RateApplied = rate

	days := decimal.NewFromInt(int64(effectiveDays))
	switch cfg.RateType {
	case RateTypeDaily:
		detail.RawFee = base.Mul(rate).Mul(days)
	case RateTypeMonthly:
		detail.RawFee = base.Mul(rate).Mul(days.Div(decimal.NewFromInt(daysPerMonth)))
	}

	detail.FinalFee = detail.RawFee
	if cfg.CapEnabled {
		cap := cfg.CapValue
		if cfg.CapType == CapTypePercentage {
			cap = base.Mul(cfg.CapValue)
		}
		if detail.RawFee.GreaterThan(cap) {
			detail.FinalFee = cap
			detail.CapApplied = true
		}
	}
	if detail.FinalFee.IsPositive() && detail.FinalFee.LessThan(cfg.MinimumFee) {
		detail.FinalFee = cfg.MinimumFee
		detail.MinimumApplied = true
	}

	detail.TotalDue = outstanding.Add(detail.FinalFee)
	return detail, nil
}

// selectRate picks the applicable rate. With escalation enabled the rate for
// the bucket containing the current effective day applies to the whole
// period; rates are never blended across buckets.
func selectRate(cfg *Config, effectiveDays int) decimal.Decimal {
	if !cfg.EscalationEnabled {
		return cfg.BaseRate
	}
	switch {
	case effectiveDays <= daysPerMonth:
		return cfg.MonthOneRate
	case effectiveDays <= 2*daysPerMonth:
		return cfg.MonthTwoRate
	default:
		return cfg.MonthThreePlusRate
	}
}
