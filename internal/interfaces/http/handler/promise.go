package handler

import (
	"time"

	appcollections "github.com/crediretail/backend/internal/application/collections"
	"github.com/crediretail/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PromiseHandler handles payment-promise endpoints
type PromiseHandler struct {
	BaseHandler
	promiseService *appcollections.PromiseService
}

// NewPromiseHandler creates a new PromiseHandler
func NewPromiseHandler(promiseService *appcollections.PromiseService) *PromiseHandler {
	return &PromiseHandler{promiseService: promiseService}
}

// RegisterPromiseRequest records a customer's promise to pay
type RegisterPromiseRequest struct {
	AlertID      string  `json:"alert_id" binding:"required,uuid"`
	PromisedDate string  `json:"promised_date" binding:"required,datetime=2006-01-02"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
}

// Register records a new promise against an open alert
func (h *PromiseHandler) Register(c *gin.Context) {
	var req RegisterPromiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	alertID, err := uuid.Parse(req.AlertID)
	if err != nil {
		h.BadRequest(c, "Invalid alert_id")
		return
	}
	promisedDate, err := time.Parse("2006-01-02", req.PromisedDate)
	if err != nil {
		h.BadRequest(c, "Invalid promised_date")
		return
	}

	promise, err := h.promiseService.RegisterPromise(
		c.Request.Context(), alertID, promisedDate, toDecimal(req.Amount), getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, promise)
}

// Fulfill marks a promise as kept
func (h *PromiseHandler) Fulfill(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid promise ID")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid promise ID")
		return
	}

	promise, err := h.promiseService.MarkFulfilled(c.Request.Context(), id, getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, promise)
}

// ExpireDue expires every overdue promise and escalates the linked alerts.
// The daily batch does this automatically; the endpoint exists for manual
// catch-up after an outage.
func (h *PromiseHandler) ExpireDue(c *gin.Context) {
	count, err := h.promiseService.ExpireDuePromises(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"expired": count})
}

// RegisterRoutes registers all promise routes
func (h *PromiseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/collections/promises")
	{
		group.POST("", h.Register)
		group.POST("/:id/fulfill", h.Fulfill)
		group.POST("/expire-due", h.ExpireDue)
	}
}
