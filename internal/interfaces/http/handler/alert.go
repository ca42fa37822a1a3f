package handler

import (
	appcollections "github.com/crediretail/backend/internal/application/collections"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/crediretail/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AlertHandler handles collection-alert endpoints, including the contact
// trail that hangs off each alert
type AlertHandler struct {
	BaseHandler
	alertService   *appcollections.AlertService
	contactService *appcollections.ContactService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(alertService *appcollections.AlertService, contactService *appcollections.ContactService) *AlertHandler {
	return &AlertHandler{
		alertService:   alertService,
		contactService: contactService,
	}
}

// ListAlertsRequest filters the alert queue
type ListAlertsRequest struct {
	dto.ListRequest
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS RESOLVED IGNORED"`
}

// AssignManagerRequest assigns a collections manager to an alert
type AssignManagerRequest struct {
	ManagerID string `json:"manager_id" binding:"required,uuid"`
}

// RecordContactRequest logs one contact attempt with the customer
type RecordContactRequest struct {
	Type    string `json:"type" binding:"required,oneof=CALL WHATSAPP EMAIL VISIT SMS INTERNAL_NOTE"`
	Outcome string `json:"outcome" binding:"required,oneof=SUCCEEDED NO_ANSWER WRONG_NUMBER PROMISE REFUSAL REQUESTS_AGREEMENT MESSAGE_LEFT PROMISE_BROKEN PAID"`
	Notes   string `json:"notes" binding:"max=2000"`
}

// List returns alerts matching the query filters
func (h *AlertHandler) List(c *gin.Context) {
	var req ListAlertsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.Normalize()

	filter := collections.AlertFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		},
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id")
			return
		}
		filter.CustomerID = &id
	}
	if req.Status != "" {
		status := collections.AlertStatus(req.Status)
		filter.Status = &status
	}

	alerts, err := h.alertService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alerts)
}

// Get returns a single alert
func (h *AlertHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	alert, err := h.alertService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}

// Resolve closes an alert manually
func (h *AlertHandler) Resolve(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	alert, err := h.alertService.Resolve(c.Request.Context(), id, getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}

// Ignore dismisses an alert without resolving the debt
func (h *AlertHandler) Ignore(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	alert, err := h.alertService.Ignore(c.Request.Context(), id, getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}

// Assign assigns a collections manager to the alert
func (h *AlertHandler) Assign(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	managerID, err := uuid.Parse(req.ManagerID)
	if err != nil {
		h.BadRequest(c, "Invalid manager_id")
		return
	}
	alert, err := h.alertService.AssignManager(c.Request.Context(), id, managerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}

// RecordContact appends a contact attempt to the alert's trail
func (h *AlertHandler) RecordContact(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req RecordContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	record, err := h.contactService.RecordContact(
		c.Request.Context(),
		id,
		getOperatorID(c),
		collections.ContactType(req.Type),
		collections.ContactOutcome(req.Outcome),
		req.Notes,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// ContactHistory lists the alert's contact trail, oldest first
func (h *AlertHandler) ContactHistory(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	records, err := h.contactService.History(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// RegisterRoutes registers all alert routes
func (h *AlertHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/collections/alerts")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("/:id/resolve", h.Resolve)
		group.POST("/:id/ignore", h.Ignore)
		group.POST("/:id/assign", h.Assign)
		group.POST("/:id/contacts", h.RecordContact)
		group.GET("/:id/contacts", h.ContactHistory)
	}
}

func (h *AlertHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid alert ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid alert ID")
		return uuid.Nil, false
	}
	return id, true
}
