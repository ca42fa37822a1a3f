package handler

import (
	"time"

	apparrears "github.com/crediretail/backend/internal/application/arrears"
	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ArrearsHandler handles arrears configuration and fee calculation endpoints
type ArrearsHandler struct {
	BaseHandler
	configService *apparrears.ConfigService
	feeService    *apparrears.FeeService
}

// NewArrearsHandler creates a new ArrearsHandler
func NewArrearsHandler(configService *apparrears.ConfigService, feeService *apparrears.FeeService) *ArrearsHandler {
	return &ArrearsHandler{
		configService: configService,
		feeService:    feeService,
	}
}

// SeverityThresholdRequest defines one severity entry condition
type SeverityThresholdRequest struct {
	Severity  string  `json:"severity" binding:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	MinDays   int     `json:"min_days" binding:"min=0"`
	MinAmount float64 `json:"min_amount" binding:"min=0"`
}

// AutomationPolicyRequest configures the daily collections batch
type AutomationPolicyRequest struct {
	DailyRunHour                   int  `json:"daily_run_hour" binding:"min=0,max=23"`
	QuietHoursStart                int  `json:"quiet_hours_start" binding:"min=0,max=23"`
	QuietHoursEnd                  int  `json:"quiet_hours_end" binding:"min=0,max=23"`
	SuppressWeekends               bool `json:"suppress_weekends"`
	MaxDailyNotifications          int  `json:"max_daily_notifications" binding:"min=0"`
	MaxNotificationsPerInstallment int  `json:"max_notifications_per_installment" binding:"min=0"`
}

// AgreementPolicyRequest bounds negotiated payment agreements
type AgreementPolicyRequest struct {
	MinInitialPaymentPct float64 `json:"min_initial_payment_pct" binding:"min=0,max=1"`
	MaxInstallments      int     `json:"max_installments" binding:"required,min=1"`
	CondonationAllowed   bool    `json:"condonation_allowed"`
	MaxCondonationPct    float64 `json:"max_condonation_pct" binding:"min=0,max=1"`
	BrokenToleranceDays  int     `json:"broken_tolerance_days" binding:"min=0"`
}

// UpdateConfigRequest replaces the arrears and collections policy
type UpdateConfigRequest struct {
	RateType             string                     `json:"rate_type" binding:"required,oneof=DAILY MONTHLY"`
	BaseRate             float64                    `json:"base_rate" binding:"min=0"`
	CalculationBase      string                     `json:"calculation_base" binding:"required,oneof=CAPITAL CAPITAL_INTEREST"`
	GraceDays            int                        `json:"grace_days" binding:"min=0"`
	EscalationEnabled    bool                       `json:"escalation_enabled"`
	MonthOneRate         float64                    `json:"month_one_rate" binding:"min=0"`
	MonthTwoRate         float64                    `json:"month_two_rate" binding:"min=0"`
	MonthThreePlusRate   float64                    `json:"month_three_plus_rate" binding:"min=0"`
	CapEnabled           bool                       `json:"cap_enabled"`
	CapType              string                     `json:"cap_type" binding:"omitempty,oneof=PERCENTAGE FIXED"`
	CapValue             float64                    `json:"cap_value" binding:"min=0"`
	MinimumFee           float64                    `json:"minimum_fee" binding:"min=0"`
	Thresholds           []SeverityThresholdRequest `json:"thresholds" binding:"required,min=1,dive"`
	Automation           AutomationPolicyRequest    `json:"automation"`
	Agreements           AgreementPolicyRequest     `json:"agreements"`
	DaysToFulfillPromise int                        `json:"days_to_fulfill_promise" binding:"min=0"`
}

// SimulateFeeRequest asks for a what-if fee calculation without persistence
type SimulateFeeRequest struct {
	CapitalAmount  float64 `json:"capital_amount" binding:"required,gt=0"`
	InterestAmount float64 `json:"interest_amount" binding:"min=0"`
	PaidAmount     float64 `json:"paid_amount" binding:"min=0"`
	DueDate        string  `json:"due_date" binding:"required,datetime=2006-01-02"`
	AsOf           string  `json:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// GetConfig godoc returns the active arrears configuration
func (h *ArrearsHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// UpdateConfig replaces the policy after validating it as a whole
func (h *ArrearsHandler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	cfg, err := h.configService.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	applyConfigRequest(cfg, &req)
	cfg.Touch(getOperatorID(c))
	cfg.IncrementVersion()

	if err := h.configService.Update(c.Request.Context(), cfg); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// Simulate runs the fee calculator against hypothetical installment values
func (h *ArrearsHandler) Simulate(c *gin.Context) {
	var req SimulateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due_date")
		return
	}
	asOf := time.Now()
	if req.AsOf != "" {
		if asOf, err = time.Parse("2006-01-02", req.AsOf); err != nil {
			h.BadRequest(c, "Invalid as_of")
			return
		}
	}

	detail, err := h.feeService.Simulate(
		c.Request.Context(),
		toDecimal(req.CapitalAmount),
		toDecimal(req.InterestAmount),
		toDecimal(req.PaidAmount),
		dueDate,
		asOf,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// Refresh recalculates arrears for every overdue installment right now
func (h *ArrearsHandler) Refresh(c *gin.Context) {
	result, err := h.feeService.RefreshArrears(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterRoutes registers all arrears routes
func (h *ArrearsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/arrears")
	{
		group.GET("/config", h.GetConfig)
		group.PUT("/config", h.UpdateConfig)
		group.POST("/simulate", h.Simulate)
		group.POST("/refresh", h.Refresh)
	}
}

func applyConfigRequest(cfg *arrears.Config, req *UpdateConfigRequest) {
	cfg.RateType = arrears.RateType(req.RateType)
	cfg.BaseRate = toDecimal(req.BaseRate)
	cfg.CalculationBase = arrears.CalculationBase(req.CalculationBase)
	cfg.GraceDays = req.GraceDays
	cfg.EscalationEnabled = req.EscalationEnabled
	cfg.MonthOneRate = toDecimal(req.MonthOneRate)
	cfg.MonthTwoRate = toDecimal(req.MonthTwoRate)
	cfg.MonthThreePlusRate = toDecimal(req.MonthThreePlusRate)
	cfg.CapEnabled = req.CapEnabled
	if req.CapType != "" {
		cfg.CapType = arrears.CapType(req.CapType)
	}
	cfg.CapValue = toDecimal(req.CapValue)
	cfg.MinimumFee = toDecimal(req.MinimumFee)

	thresholds := make(arrears.SeverityThresholds, 0, len(req.Thresholds))
	for _, t := range req.Thresholds {
		thresholds = append(thresholds, arrears.SeverityThreshold{
			Severity:  arrears.Severity(t.Severity),
			MinDays:   t.MinDays,
			MinAmount: toDecimal(t.MinAmount),
		})
	}
	cfg.Thresholds = thresholds

	cfg.Automation = arrears.AutomationPolicy{
		DailyRunHour:                   req.Automation.DailyRunHour,
		QuietHoursStart:                req.Automation.QuietHoursStart,
		QuietHoursEnd:                  req.Automation.QuietHoursEnd,
		SuppressWeekends:               req.Automation.SuppressWeekends,
		MaxDailyNotifications:          req.Automation.MaxDailyNotifications,
		MaxNotificationsPerInstallment: req.Automation.MaxNotificationsPerInstallment,
	}
	cfg.Agreements = arrears.AgreementPolicy{
		MinInitialPaymentPct: decimal.NewFromFloat(req.Agreements.MinInitialPaymentPct),
		MaxInstallments:      req.Agreements.MaxInstallments,
		CondonationAllowed:   req.Agreements.CondonationAllowed,
		MaxCondonationPct:    decimal.NewFromFloat(req.Agreements.MaxCondonationPct),
		BrokenToleranceDays:  req.Agreements.BrokenToleranceDays,
	}
	cfg.DaysToFulfillPromise = req.DaysToFulfillPromise
}
