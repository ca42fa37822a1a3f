package handler

import (
	"strconv"
	"time"

	appcollections "github.com/crediretail/backend/internal/application/collections"
	"github.com/crediretail/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AgreementHandler handles payment-agreement endpoints
type AgreementHandler struct {
	BaseHandler
	agreementService *appcollections.AgreementService
}

// NewAgreementHandler creates a new AgreementHandler
func NewAgreementHandler(agreementService *appcollections.AgreementService) *AgreementHandler {
	return &AgreementHandler{agreementService: agreementService}
}

// CreateAgreementRequest carries the negotiated terms of a new agreement
type CreateAgreementRequest struct {
	AlertID              string  `json:"alert_id" binding:"required,uuid"`
	OriginalDebt         float64 `json:"original_debt" binding:"required,gt=0"`
	OriginalArrears      float64 `json:"original_arrears" binding:"min=0"`
	CondonedAmount       float64 `json:"condoned_amount" binding:"min=0"`
	InitialPayment       float64 `json:"initial_payment" binding:"min=0"`
	InstallmentCount     int     `json:"installment_count" binding:"required,min=1"`
	FirstInstallmentDate string  `json:"first_installment_date" binding:"required,datetime=2006-01-02"`
}

// Create validates the negotiated terms against policy and stores a draft
func (h *AgreementHandler) Create(c *gin.Context) {
	var req CreateAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	alertID, err := uuid.Parse(req.AlertID)
	if err != nil {
		h.BadRequest(c, "Invalid alert_id")
		return
	}
	firstDate, err := time.Parse("2006-01-02", req.FirstInstallmentDate)
	if err != nil {
		h.BadRequest(c, "Invalid first_installment_date")
		return
	}

	agreement, err := h.agreementService.CreateAgreement(c.Request.Context(), appcollections.CreateAgreementCommand{
		AlertID:              alertID,
		OriginalDebt:         toDecimal(req.OriginalDebt),
		OriginalArrears:      toDecimal(req.OriginalArrears),
		CondonedAmount:       toDecimal(req.CondonedAmount),
		InitialPayment:       toDecimal(req.InitialPayment),
		InstallmentCount:     req.InstallmentCount,
		FirstInstallmentDate: firstDate,
		Operator:             getOperatorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, agreement)
}

// Confirm activates a draft agreement once the initial payment cleared
func (h *AgreementHandler) Confirm(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	agreement, err := h.agreementService.Confirm(c.Request.Context(), id, getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agreement)
}

// Cancel cancels a draft or active agreement
func (h *AgreementHandler) Cancel(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	agreement, err := h.agreementService.Cancel(c.Request.Context(), id, getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agreement)
}

// PayInstallment registers the payment of one scheduled installment
func (h *AgreementHandler) PayInstallment(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		h.BadRequest(c, "Invalid installment number")
		return
	}
	agreement, err := h.agreementService.RegisterInstallmentPayment(c.Request.Context(), id, number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agreement)
}

// ListByCustomer returns all agreements of a customer, newest first
func (h *AgreementHandler) ListByCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer_id")
		return
	}
	agreements, err := h.agreementService.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agreements)
}

// Get returns a single agreement with its schedule
func (h *AgreementHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	agreement, err := h.agreementService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agreement)
}

// RegisterRoutes registers all agreement routes
func (h *AgreementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/collections/agreements")
	{
		group.POST("", h.Create)
		group.GET("", h.ListByCustomer)
		group.GET("/:id", h.Get)
		group.POST("/:id/confirm", h.Confirm)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/installments/:number/pay", h.PayInstallment)
	}
}

func (h *AgreementHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid agreement ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid agreement ID")
		return uuid.Nil, false
	}
	return id, true
}
