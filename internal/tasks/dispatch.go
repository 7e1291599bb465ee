package tasks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/store"
	"github.com/jimdaga/pomodo/internal/streams"
)

// ObjectKind is the "obj" half of a task mutation.
type ObjectKind int

const (
	ObjectUnknown ObjectKind = iota
	ObjectTag
	ObjectSubtask
	ObjectTask
)

// ActionKind is the "action" half of a task mutation.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionAdd
	ActionRemove
	ActionUpdate
	ActionDone
	ActionIncrementGoneThrough
)

var objectKinds = map[string]ObjectKind{
	"tag":     ObjectTag,
	"subtask": ObjectSubtask,
	"task":    ObjectTask,
}

var actionKinds = map[string]ActionKind{
	"add":                    ActionAdd,
	"remove":                 ActionRemove,
	"update":                 ActionUpdate,
	"done":                   ActionDone,
	"increment_gone_through": ActionIncrementGoneThrough,
}

// Mutation is a parsed {obj, action} pair.
type Mutation struct {
	Object ObjectKind
	Action ActionKind
}

// ParseMutation maps the wire strings to a Mutation; unknown strings map to
// the Unknown kinds.
func ParseMutation(obj, action string) Mutation {
	return Mutation{Object: objectKinds[obj], Action: actionKinds[action]}
}

// MutationRequest is the body of PATCH /tasks/{id}.
type MutationRequest struct {
	Obj       string              `json:"obj"`
	Action    string              `json:"action"`
	TagName   string              `json:"tag_name"`
	TagID     uint                `json:"tag_id"`
	SubtaskID uint                `json:"subtask_id"`
	Subtask   *store.SubtaskInput `json:"subtask"`
}

// Result is the HTTP answer to a mutation. A nil Body means no content.
type Result struct {
	Status int
	Body   interface{}
}

// Dispatcher applies task mutations on behalf of a user.
type Dispatcher struct {
	store  *store.Store
	events streams.EventPublisher
	strict bool
}

// NewDispatcher creates a Dispatcher. With strict set, unknown mutations are
// answered with 400 instead of 200.
func NewDispatcher(s *store.Store, events streams.EventPublisher, strict bool) *Dispatcher {
	return &Dispatcher{store: s, events: events, strict: strict}
}

// Dispatch runs one mutation against the user's task. The task is looked up
// first, so a foreign or missing task is ErrNotFound whatever the mutation.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, taskID uint, req MutationRequest) (Result, error) {
	if err := d.store.CheckTask(ctx, userID, taskID); err != nil {
		return Result{}, err
	}

	switch m := ParseMutation(req.Obj, req.Action); m {
	case Mutation{ObjectTag, ActionAdd}:
		res, err := d.store.AttachTagByName(ctx, userID, taskID, req.TagName)
		if err != nil {
			return Result{}, err
		}
		switch res.Status {
		case store.TagNew:
			return Result{http.StatusCreated, gin.H{"message": "new", "tag": res.Tag}}, nil
		case store.TagDuplicate:
			return Result{http.StatusOK, gin.H{"message": "tag already exists in task"}}, nil
		default:
			return Result{http.StatusOK, gin.H{"tag": res.Tag}}, nil
		}

	case Mutation{ObjectTag, ActionRemove}:
		if err := d.store.DetachTag(ctx, userID, taskID, req.TagID); err != nil {
			return Result{}, err
		}
		return Result{http.StatusOK, gin.H{"message": "tag removed"}}, nil

	case Mutation{ObjectSubtask, ActionAdd}:
		if req.Subtask == nil {
			return Result{}, fmt.Errorf("subtask is required: %w", store.ErrValidation)
		}
		subtask, err := d.store.AddSubtask(ctx, userID, taskID, *req.Subtask)
		if err != nil {
			return Result{}, err
		}
		return Result{http.StatusCreated, subtask}, nil

	case Mutation{ObjectSubtask, ActionRemove}:
		if err := d.store.RemoveSubtask(ctx, userID, taskID, req.SubtaskID); err != nil {
			return Result{}, err
		}
		return Result{Status: http.StatusNoContent}, nil

	case Mutation{ObjectSubtask, ActionUpdate}:
		if req.Subtask == nil {
			return Result{}, fmt.Errorf("subtask is required: %w", store.ErrValidation)
		}
		if _, err := d.store.UpdateSubtask(ctx, userID, taskID, *req.Subtask); err != nil {
			return Result{}, err
		}
		return Result{http.StatusOK, gin.H{"message": "updated"}}, nil

	case Mutation{ObjectSubtask, ActionDone}:
		done, err := d.store.ToggleSubtaskDone(ctx, userID, taskID, req.SubtaskID)
		if err != nil {
			return Result{}, err
		}
		return Result{http.StatusOK, gin.H{"done": done}}, nil

	case Mutation{ObjectTask, ActionDone}:
		done, err := d.store.ToggleTaskDone(ctx, userID, taskID)
		if err != nil {
			return Result{}, err
		}
		streams.Emit(ctx, d.events, streams.Event{Type: streams.EventTaskDone, UserID: userID, TaskID: taskID, Value: boolToInt(done)})
		return Result{http.StatusOK, gin.H{"done": done}}, nil

	case Mutation{ObjectTask, ActionIncrementGoneThrough}:
		count, err := d.store.IncrementGoneThrough(ctx, userID, taskID)
		if err != nil {
			return Result{}, err
		}
		streams.Emit(ctx, d.events, streams.Event{Type: streams.EventTaskCycle, UserID: userID, TaskID: taskID, Value: count})
		return Result{http.StatusOK, count}, nil

	default:
		return d.unknown(), nil
	}
}

func (d *Dispatcher) unknown() Result {
	status := http.StatusOK
	if d.strict {
		status = http.StatusBadRequest
	}
	return Result{status, gin.H{"message": "error"}}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
