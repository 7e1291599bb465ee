package tags

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/auth"
	"github.com/jimdaga/pomodo/internal/respond"
	"github.com/jimdaga/pomodo/internal/store"
)

// Handlers serves the /tags and /tagInfo routes.
type Handlers struct {
	store *store.Store
}

// NewHandlers creates the tag handlers.
func NewHandlers(s *store.Store) *Handlers {
	return &Handlers{store: s}
}

// Register mounts the tag routes on g.
func (h *Handlers) Register(g *gin.RouterGroup) {
	g.GET("/tags", h.List)
	g.GET("/tags/:id", h.Get)
	g.DELETE("/tags/:id", h.Delete)
	g.GET("/tagInfo/:name", h.Tasks)
}

// List returns the user's tags.
func (h *Handlers) List(c *gin.Context) {
	tags, err := h.store.ListTags(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// Get returns one tag.
func (h *Handlers) Get(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}
	tag, err := h.store.GetTag(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// Delete removes a tag from every task and deletes it.
func (h *Handlers) Delete(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteTag(c.Request.Context(), auth.UserID(c), id); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Tasks lists the tasks carrying the named tag.
func (h *Handlers) Tasks(c *gin.Context) {
	tasks, err := h.store.TasksByTagName(c.Request.Context(), auth.UserID(c), c.Param("name"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}
