package arrears

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RateType determines how the configured rate is applied over time
type RateType string

const (
	RateTypeDaily   RateType = "DAILY"
	RateTypeMonthly RateType = "MONTHLY"
)

// IsValid checks if the rate type is valid
func (r RateType) IsValid() bool {
	return r == RateTypeDaily || r == RateTypeMonthly
}

// CalculationBase determines the amount the fee rate is applied to
type CalculationBase string

const (
	BaseCapital         CalculationBase = "CAPITAL"
	BaseCapitalInterest CalculationBase = "CAPITAL_INTEREST"
)

// IsValid checks if the calculation base is valid
func (b CalculationBase) IsValid() bool {
	return b == BaseCapital || b == BaseCapitalInterest
}

// CapType determines how the fee ceiling is computed
type CapType string

const (
	CapTypePercentage CapType = "PERCENTAGE" // fraction of the calculation base
	CapTypeFixed      CapType = "FIXED"      // absolute amount
)

// IsValid checks if the cap type is valid
func (c CapType) IsValid() bool {
	return c == CapTypePercentage || c == CapTypeFixed
}

// Severity classifies how serious an overdue position is
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank returns the ordering of the severity, Low first
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Next returns the severity one level up, capped at Critical
func (s Severity) Next() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	case SeverityHigh, SeverityCritical:
		return SeverityCritical
	}
	return s
}

// SeverityThreshold defines the entry conditions for one severity level.
// Both conditions must hold for the level to apply.
type SeverityThreshold struct {
	Severity  Severity        `json:"severity"`
	MinDays   int             `json:"min_days"`
	MinAmount decimal.Decimal `json:"min_amount"`
}

// SeverityThresholds is stored as JSONB on the configuration row
type SeverityThresholds []SeverityThreshold

// Value implements driver.Valuer for JSONB storage
func (t SeverityThresholds) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for JSONB storage
func (t *SeverityThresholds) Scan(value interface{}) error {
	return scanJSON(value, t)
}

// AutomationPolicy controls the daily collections batch and its notifications
type AutomationPolicy struct {
	DailyRunHour                  int  `json:"daily_run_hour"`   // 0-23, local time of the daily batch
	QuietHoursStart               int  `json:"quiet_hours_start"` // inclusive hour, notifications suppressed
	QuietHoursEnd                 int  `json:"quiet_hours_end"`   // exclusive hour
	SuppressWeekends              bool `json:"suppress_weekends"`
	MaxDailyNotifications         int  `json:"max_daily_notifications"`          // global cap per calendar day, 0 = unlimited
	MaxNotificationsPerInstallment int `json:"max_notifications_per_installment"` // per installment per day, 0 = unlimited
}

// Value implements driver.Valuer for JSONB storage
func (p AutomationPolicy) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage
func (p *AutomationPolicy) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// AgreementPolicy bounds negotiated payment agreements
type AgreementPolicy struct {
	MinInitialPaymentPct decimal.Decimal `json:"min_initial_payment_pct"` // fraction of total, 0.20 = 20%
	MaxInstallments      int             `json:"max_installments"`
	CondonationAllowed   bool            `json:"condonation_allowed"`
	MaxCondonationPct    decimal.Decimal `json:"max_condonation_pct"` // fraction of debt+arrears
	BrokenToleranceDays  int             `json:"broken_tolerance_days"`
}

// Value implements driver.Valuer for JSONB storage
func (p AgreementPolicy) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage
func (p *AgreementPolicy) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// Config is the arrears and collections policy. It is a singleton row,
// centrally administered and read-only for the engine.
type Config struct {
	shared.BaseAggregateRoot
	RateType           RateType           `json:"rate_type"`
	BaseRate           decimal.Decimal    `json:"base_rate"` // per day or per month, as fraction
	CalculationBase    CalculationBase    `json:"calculation_base"`
	GraceDays          int                `json:"grace_days"`
	EscalationEnabled  bool               `json:"escalation_enabled"`
	MonthOneRate       decimal.Decimal    `json:"month_one_rate"`
	MonthTwoRate       decimal.Decimal    `json:"month_two_rate"`
	MonthThreePlusRate decimal.Decimal    `json:"month_three_plus_rate"`
	CapEnabled         bool               `json:"cap_enabled"`
	CapType            CapType            `json:"cap_type"`
	CapValue           decimal.Decimal    `json:"cap_value"`
	MinimumFee         decimal.Decimal    `json:"minimum_fee"`
	Thresholds         SeverityThresholds `json:"thresholds"`
	Automation         AutomationPolicy   `json:"automation"`
	Agreements         AgreementPolicy    `json:"agreements"`
	DaysToFulfillPromise int              `json:"days_to_fulfill_promise"`
}

// DefaultConfig returns a safe zero-rate configuration used when no
// configuration row exists yet. Zero rates mean no fees accrue until an
// administrator sets the policy.
func DefaultConfig() *Config {
	return &Config{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		RateType:           RateTypeDaily,
		BaseRate:           decimal.Zero,
		CalculationBase:    BaseCapital,
		GraceDays:          0,
		EscalationEnabled:  false,
		MonthOneRate:       decimal.Zero,
		MonthTwoRate:       decimal.Zero,
		MonthThreePlusRate: decimal.Zero,
		CapEnabled:         false,
		CapType:            CapTypePercentage,
		CapValue:           decimal.Zero,
		MinimumFee:         decimal.Zero,
		Thresholds: SeverityThresholds{
			{Severity: SeverityLow, MinDays: 1, MinAmount: decimal.Zero},
		},
		Automation: AutomationPolicy{
			DailyRunHour: 6,
		},
		Agreements: AgreementPolicy{
			MinInitialPaymentPct: decimal.Zero,
			MaxInstallments:      12,
			CondonationAllowed:   false,
			MaxCondonationPct:    decimal.Zero,
			BrokenToleranceDays:  0,
		},
		DaysToFulfillPromise: 0,
	}
}

// Classify returns the severity for an overdue position. The highest level
// whose day and amount thresholds are both met wins; positions matching no
// configured threshold classify as Low.
func (c *Config) Classify(daysLate int, amount decimal.Decimal) Severity {
	result := SeverityLow
	for _, t := range c.Thresholds {
		if daysLate >= t.MinDays && amount.GreaterThanOrEqual(t.MinAmount) && t.Severity.Rank() > result.Rank() {
			result = t.Severity
		}
	}
	return result
}

// Validate checks the configuration for values the calculator cannot work
// with. It reports every offending field.
func (c *Config) Validate() error {
	verr := shared.NewValidationError()
	if !c.RateType.IsValid() {
		verr.Add("rate_type", "must be DAILY or MONTHLY")
	}
	if !c.CalculationBase.IsValid() {
		verr.Add("calculation_base", "must be CAPITAL or CAPITAL_INTEREST")
	}
	if c.BaseRate.IsNegative() {
		verr.Add("base_rate", "cannot be negative")
	}
	if c.GraceDays < 0 {
		verr.Add("grace_days", "cannot be negative")
	}
	if c.EscalationEnabled {
		if c.MonthOneRate.IsNegative() || c.MonthTwoRate.IsNegative() || c.MonthThreePlusRate.IsNegative() {
			verr.Add("escalation_rates", "cannot be negative")
		}
	}
	if c.CapEnabled {
		if !c.CapType.IsValid() {
			verr.Add("cap_type", "must be PERCENTAGE or FIXED")
		}
		if c.CapValue.IsNegative() {
			verr.Add("cap_value", "cannot be negative")
		}
	}
	if c.MinimumFee.IsNegative() {
		verr.Add("minimum_fee", "cannot be negative")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSON column: unsupported type")
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}
