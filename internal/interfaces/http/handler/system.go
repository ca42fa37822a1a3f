package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/crediretail/backend/internal/infrastructure/persistence"
	"github.com/crediretail/backend/internal/infrastructure/scheduler"
	"github.com/crediretail/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles health and operational endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	scheduler *scheduler.DailyRunScheduler
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database, sched *scheduler.DailyRunScheduler) *SystemHandler {
	return &SystemHandler{
		db:        db,
		scheduler: sched,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic process information
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "crediretail-backend",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	h.Success(c, info)
}

// Health reports readiness: the process is up and the database answers
func (h *SystemHandler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeUnavailable, "database unreachable"))
		return
	}
	h.Success(c, gin.H{"status": "ok"})
}

// RunStatus returns the daily batch scheduler status
func (h *SystemHandler) RunStatus(c *gin.Context) {
	h.Success(c, h.scheduler.GetStatus())
}

// TriggerRun starts an immediate collections run in the background
func (h *SystemHandler) TriggerRun(c *gin.Context) {
	if err := h.scheduler.TriggerManualRun(c.Request.Context()); err != nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"status": "started"}))
}

// RegisterRoutes registers all system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/system")
	{
		group.GET("/info", h.GetSystemInfo)
		group.GET("/health", h.Health)
	}

	runs := rg.Group("/collections/run")
	{
		runs.GET("/status", h.RunStatus)
		runs.POST("", h.TriggerRun)
	}
}
