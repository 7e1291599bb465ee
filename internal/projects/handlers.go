package projects

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/auth"
	"github.com/jimdaga/pomodo/internal/pagination"
	"github.com/jimdaga/pomodo/internal/respond"
	"github.com/jimdaga/pomodo/internal/store"
	"github.com/jimdaga/pomodo/internal/streams"
)

// DefaultPageSize is the page size of GET /projects without page_size.
const DefaultPageSize = 2

// Project actions accepted by PATCH /projects/{id}[/{action}].
const (
	ActionModifyTitle  = "modify_title"
	ActionAddNewTask   = "add_new_task"
	ActionAddToProject = "add_to_project"
	ActionUpdateTask   = "update_task"
	ActionDeleteTask   = "delete_task"
	ActionTaskDone     = "task_done"
)

var actionAliases = map[string]string{
	"add_new":     ActionAddNewTask,
	"toggle_done": ActionTaskDone,
}

// Handlers serves the /projects routes.
type Handlers struct {
	store  *store.Store
	events streams.EventPublisher
	strict bool
}

// NewHandlers creates the project handlers.
func NewHandlers(s *store.Store, events streams.EventPublisher, strictMutations bool) *Handlers {
	return &Handlers{store: s, events: events, strict: strictMutations}
}

// Register mounts the project routes on g.
func (h *Handlers) Register(g *gin.RouterGroup) {
	g.GET("/projects", h.List)
	g.POST("/projects", h.Create)
	g.GET("/projects/:id", h.Get)
	g.PATCH("/projects/:id", h.Mutate)
	g.PATCH("/projects/:id/:action", h.Mutate)
	g.DELETE("/projects/:id", h.Delete)
}

type createRequest struct {
	Name  string            `json:"name"`
	Tasks []store.TaskInput `json:"tasks"`
}

// taskPayload is a task sent along with a project action. ID selects the
// member task for update_task.
type taskPayload struct {
	ID          uint                 `json:"id"`
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Estimated   *int                 `json:"estimated"`
	Tags        []store.TagInput     `json:"tags"`
	Subtasks    []store.SubtaskInput `json:"subtasks"`
}

func (p *taskPayload) input() store.TaskInput {
	in := store.TaskInput{Tags: p.Tags, Subtasks: p.Subtasks}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Estimated != nil {
		in.Estimated = *p.Estimated
	}
	return in
}

func (p *taskPayload) patch() store.TaskPatch {
	return store.TaskPatch{Title: p.Title, Description: p.Description, Estimated: p.Estimated}
}

// MutationRequest is the body of PATCH /projects/{id}.
type MutationRequest struct {
	Obj    string       `json:"obj"`
	Action string       `json:"action"`
	Name   string       `json:"name"`
	TaskID uint         `json:"task_id"`
	Task   *taskPayload `json:"task"`
	// Subtask is the legacy key update_task used for the task payload.
	Subtask *taskPayload `json:"subtask"`
}

func (r MutationRequest) payload() *taskPayload {
	if r.Task != nil {
		return r.Task
	}
	return r.Subtask
}

// memberID picks the target task id from task_id or the payload's id.
func (r MutationRequest) memberID() uint {
	if r.TaskID != 0 {
		return r.TaskID
	}
	if p := r.payload(); p != nil {
		return p.ID
	}
	return 0
}

// List returns the user's projects, newest first, paginated.
func (h *Handlers) List(c *gin.Context) {
	page, err := pagination.Parse(c.Request.URL.Query(), DefaultPageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}

	projects, total, err := h.store.ListProjects(c.Request.Context(), auth.UserID(c), page.Offset(), page.Size)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := page.Check(total); err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Build(c.Request, page, total, projects))
}

// Create stores a project together with its own tasks.
func (h *Handlers) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.store.CreateProject(c.Request.Context(), auth.UserID(c), req.Name, req.Tasks)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Get returns one project with its tasks.
func (h *Handlers) Get(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}

	project, err := h.store.GetProject(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Mutate runs a project action. The action comes from the path when present,
// otherwise from the body together with obj "project".
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

	action := c.Param("action")
	if action == "" {
		if req.Obj != "project" {
			h.unknown(c)
			return
		}
		action = req.Action
	}
	if alias, ok := actionAliases[action]; ok {
		action = alias
	}

	ctx := c.Request.Context()
	userID := auth.UserID(c)

	switch action {
	case ActionModifyTitle:
		project, err := h.store.RenameProject(ctx, userID, id, req.Name)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, project)

	case ActionAddNewTask:
		p := req.payload()
		if p == nil {
			respond.BadRequest(c, "task is required")
			return
		}
		task, err := h.store.AddNewProjectTask(ctx, userID, id, p.input())
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, task)

	case ActionAddToProject:
		task, err := h.store.AddExistingProjectTask(ctx, userID, id, req.memberID())
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, task)

	case ActionUpdateTask:
		p := req.payload()
		if p == nil {
			respond.BadRequest(c, "task is required")
			return
		}
		task, err := h.store.UpdateProjectTask(ctx, userID, id, req.memberID(), p.patch())
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, task)

	case ActionDeleteTask:
		if err := h.store.RemoveProjectTask(ctx, userID, id, req.memberID()); err != nil {
			respond.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)

	case ActionTaskDone:
		taskID := req.memberID()
		done, err := h.store.ToggleProjectTaskDone(ctx, userID, id, taskID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		value := 0
		if done {
			value = 1
		}
		streams.Emit(ctx, h.events, streams.Event{Type: streams.EventTaskDone, UserID: userID, TaskID: taskID, ProjectID: id, Value: value})
		c.JSON(http.StatusOK, gin.H{"done": done})

	default:
		h.unknown(c)
	}
}

// Delete removes the project and its own tasks.
func (h *Handlers) Delete(c *gin.Context) {
	id, ok := respond.ID(c, "id")
	if !ok {
		return
	}

	userID := auth.UserID(c)
	if err := h.store.DeleteProject(c.Request.Context(), userID, id); err != nil {
		respond.Error(c, err)
		return
	}
	streams.Emit(c.Request.Context(), h.events, streams.Event{Type: streams.EventProjectDeleted, UserID: userID, ProjectID: id})
	c.Status(http.StatusNoContent)
}

func (h *Handlers) unknown(c *gin.Context) {
	status := http.StatusOK
	if h.strict {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"message": "error"})
}
