package modes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/auth"
	"github.com/jimdaga/pomodo/internal/respond"
	"github.com/jimdaga/pomodo/internal/store"
)

// Handlers serves CRUD for pomodoro timing modes.
type Handlers struct {
	store *store.Store
}

// NewHandlers creates the mode handlers.
func NewHandlers(s *store.Store) *Handlers {
	return &Handlers{store: s}
}

// Register mounts the mode routes on g.
func (h *Handlers) Register(g *gin.RouterGroup) {
	g.GET("/modes", h.List)
	g.POST("/modes", h.Create)
	g.GET("/modes/:id", h.Get)
	g.PUT("/modes/:id", h.Update)
	g.DELETE("/modes/:id", h.Delete)
}

func (h *Handlers) List(c *gin.Context) {
	modes, err := h.store.ListModes(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, modes)
}

func (h *Handlers) Create(c *gin.Context) {
	var in store.ModeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}
	mode, err := h.store.CreateMode(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, mode)
}

func (h *Handlers) Get(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}
	mode, err := h.store.GetMode(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mode)
}

func (h *Handlers) Update(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}
	var in store.ModeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}
	mode, err := h.store.UpdateMode(c.Request.Context(), auth.UserID(c), id, in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mode)
}

func (h *Handlers) Delete(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteMode(c.Request.Context(), auth.UserID(c), id); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
