package handler

import (
	appcollections "github.com/crediretail/backend/internal/application/collections"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TierHandler handles collection-tier configuration endpoints
type TierHandler struct {
	BaseHandler
	tierService *appcollections.TierService
}

// NewTierHandler creates a new TierHandler
func NewTierHandler(tierService *appcollections.TierService) *TierHandler {
	return &TierHandler{tierService: tierService}
}

// TierActionRequest defines one automation step inside a tier
type TierActionRequest struct {
	Type      string `json:"type" binding:"required,oneof=GENERATE_ALERT SEND_NOTIFICATION ESCALATE_PRIORITY CHANGE_INSTALLMENT_STATUS BLOCK_CLIENT RECORD_NOTE ASSIGN_MANAGER MARK_PROMISE_BROKEN"`
	DayOffset int    `json:"day_offset" binding:"min=0"`
	Channel   string `json:"channel" binding:"omitempty,oneof=WHATSAPP EMAIL BOTH"`
	Template  string `json:"template" binding:"max=200"`
	BlockType string `json:"block_type" binding:"omitempty,oneof=NEW_CREDIT_ONLY ALL_OPERATIONS CREDIT_SALES_ONLY"`
	ManagerID string `json:"manager_id" binding:"omitempty,uuid"`
	Note      string `json:"note" binding:"max=2000"`
}

// CreateTierRequest defines a new day-band tier
type CreateTierRequest struct {
	Name     string              `json:"name" binding:"required,min=1,max=100"`
	FromDay  int                 `json:"from_day" binding:"min=0"`
	ToDay    *int                `json:"to_day" binding:"omitempty,min=0"`
	Priority int                 `json:"priority" binding:"min=0"`
	Actions  []TierActionRequest `json:"actions" binding:"required,min=1,dive"`
}

// List returns every configured tier ordered by priority
func (h *TierHandler) List(c *gin.Context) {
	tiers, err := h.tierService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tiers)
}

// Create stores a new tier
func (h *TierHandler) Create(c *gin.Context) {
	var req CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	actions := make(collections.TierActions, 0, len(req.Actions))
	for _, a := range req.Actions {
		actions = append(actions, collections.TierAction{
			Type:      collections.ActionType(a.Type),
			DayOffset: a.DayOffset,
			Channel:   collections.Channel(a.Channel),
			Template:  a.Template,
			BlockType: collections.BlockType(a.BlockType),
			ManagerID: a.ManagerID,
			Note:      a.Note,
		})
	}

	tier, err := h.tierService.Create(c.Request.Context(), req.Name, req.FromDay, req.ToDay, req.Priority, actions)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tier)
}

// Enable switches a tier back into the automation run
func (h *TierHandler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

// Disable takes a tier out of the automation run without deleting it
func (h *TierHandler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

func (h *TierHandler) setEnabled(c *gin.Context, enabled bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid tier ID")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid tier ID")
		return
	}
	tier, err := h.tierService.SetEnabled(c.Request.Context(), id, enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tier)
}

// RegisterRoutes registers all tier routes
func (h *TierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/collections/tiers")
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.POST("/:id/enable", h.Enable)
		group.POST("/:id/disable", h.Disable)
	}
}
