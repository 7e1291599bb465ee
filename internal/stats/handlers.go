package stats

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/auth"
	"github.com/jimdaga/pomodo/internal/models"
	"github.com/jimdaga/pomodo/internal/respond"
	"github.com/jimdaga/pomodo/internal/store"
)

// Handlers serves the daily usage counters.
type Handlers struct {
	store *store.Store
	now   func() time.Time
}

// NewHandlers creates the stats handlers.
func NewHandlers(s *store.Store) *Handlers {
	return &Handlers{store: s, now: time.Now}
}

// Register mounts the stats routes on g.
func (h *Handlers) Register(g *gin.RouterGroup) {
	g.GET("/stats", h.List)
	g.POST("/stats", h.Record)
}

type recordRequest struct {
	Day string `json:"day" form:"day"`
}

// List returns the user's counters ordered by day.
func (h *Handlers) List(c *gin.Context) {
	stats, err := h.store.ListStats(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Record counts one finished chore on the given day (today, UTC, when
// omitted). The answer is 201 whether the row was created or incremented.
func (h *Handlers) Record(c *gin.Context) {
	var req recordRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			respond.BadRequest(c, "Invalid request body")
			return
		}
	}
	if req.Day == "" {
		req.Day = h.now().UTC().Format(models.DayLayout)
	}

	day, err := models.ParseDay(req.Day)
	if err != nil {
		respond.BadRequest(c, "day must be formatted YYYY-MM-DD")
		return
	}

	stats, err := h.store.RecordDay(c.Request.Context(), auth.UserID(c), day)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, stats)
}
