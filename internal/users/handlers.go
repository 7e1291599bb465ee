package users

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/auth"
	"github.com/jimdaga/pomodo/internal/respond"
	"github.com/jimdaga/pomodo/internal/store"
	"gorm.io/datatypes"
)

// Handlers serves the current user's profile, settings and selections.
type Handlers struct {
	store     *store.Store
	validator *SettingsValidator
}

// NewHandlers creates the user handlers.
func NewHandlers(s *store.Store, validator *SettingsValidator) *Handlers {
	return &Handlers{store: s, validator: validator}
}

// Register mounts the user routes on g.
func (h *Handlers) Register(g *gin.RouterGroup) {
	g.GET("/me", h.Me)
	g.PUT("/me/settings", h.UpdateSettings)
	g.GET("/currentTask", h.GetCurrentTask)
	g.PUT("/currentTask", h.SetCurrentTask)
	g.GET("/currentMode", h.GetCurrentMode)
	g.POST("/currentMode", h.SetCurrentMode)
}

// Me returns the authenticated user.
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateSettings replaces the settings document after schema validation.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var settings map[string]interface{}
	if err := c.ShouldBindJSON(&settings); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}
	if err := h.validator.Validate(settings); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		respond.Error(c, fmt.Errorf("encode settings: %w", err))
		return
	}

	user, err := h.store.UpdateSettings(c.Request.Context(), auth.UserID(c), datatypes.JSON(raw))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type currentTaskRequest struct {
	ID *uint `json:"id"`
}

// GetCurrentTask returns {"id": current task id or null}.
func (h *Handlers) GetCurrentTask(c *gin.Context) {
	id, err := h.store.CurrentTaskID(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// SetCurrentTask selects one of the user's tasks; {"id": null} clears it.
func (h *Handlers) SetCurrentTask(c *gin.Context) {
	var req currentTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}

	id, err := h.store.SetCurrentTask(c.Request.Context(), auth.UserID(c), req.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type currentModeRequest struct {
	ModeID uint `json:"mode_id"`
}

// GetCurrentMode returns the selected mode, 404 when none is selected.
func (h *Handlers) GetCurrentMode(c *gin.Context) {
	mode, err := h.store.CurrentMode(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mode)
}

// SetCurrentMode selects one of the user's modes.
func (h *Handlers) SetCurrentMode(c *gin.Context) {
	var req currentModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}
	if req.ModeID == 0 {
		respond.BadRequest(c, "mode_id is required")
		return
	}

	mode, err := h.store.SetCurrentMode(c.Request.Context(), auth.UserID(c), req.ModeID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mode)
}
