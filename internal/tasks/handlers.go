package tasks

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/auth"
	"github.com/jimdaga/pomodo/internal/pagination"
	"github.com/jimdaga/pomodo/internal/respond"
	"github.com/jimdaga/pomodo/internal/store"
	"github.com/jimdaga/pomodo/internal/streams"
)

// DefaultPageSize is the page size of GET /tasks without page_size.
const DefaultPageSize = 4

// Handlers serves the /tasks routes.
type Handlers struct {
	store      *store.Store
	events     streams.EventPublisher
	dispatcher *Dispatcher
}

// NewHandlers creates the task handlers.
func NewHandlers(s *store.Store, events streams.EventPublisher, strictMutations bool) *Handlers {
	return &Handlers{
		store:      s,
		events:     events,
		dispatcher: NewDispatcher(s, events, strictMutations),
	}
}

// Register mounts the task routes on g.
func (h *Handlers) Register(g *gin.RouterGroup) {
	g.GET("/tasks", h.List)
	g.POST("/tasks", h.Create)
	g.GET("/tasks/:id", h.Get)
	g.PUT("/tasks/:id", h.Update)
	g.PATCH("/tasks/:id", h.Mutate)
	g.DELETE("/tasks/:id", h.Delete)
}

// List returns the user's standalone tasks, newest first, paginated.
func (h *Handlers) List(c *gin.Context) {
	page, err := pagination.Parse(c.Request.URL.Query(), DefaultPageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}

	tasks, total, err := h.store.ListTasks(c.Request.Context(), auth.UserID(c), page.Offset(), page.Size)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := page.Check(total); err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Build(c.Request, page, total, tasks))
}

// Create stores a task with its tags and subtasks.
func (h *Handlers) Create(c *gin.Context) {
	var in store.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.store.CreateTask(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Get returns one task.
func (h *Handlers) Get(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update changes title, description and estimate.
func (h *Handlers) Update(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}

	var patch store.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.store.UpdateTask(c.Request.Context(), auth.UserID(c), id, patch)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Mutate applies an {obj, action} mutation.
func (h *Handlers) Mutate(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}

	var req MutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), auth.UserID(c), id, req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if res.Body == nil {
		c.Status(res.Status)
		return
	}
	c.JSON(res.Status, res.Body)
}

// Delete removes a task.
func (h *Handlers) Delete(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}

	userID := auth.UserID(c)
	if err := h.store.DeleteTask(c.Request.Context(), userID, id); err != nil {
		respond.Error(c, err)
		return
	}
	streams.Emit(c.Request.Context(), h.events, streams.Event{Type: streams.EventTaskDeleted, UserID: userID, TaskID: id})
	c.Status(http.StatusNoContent)
}
