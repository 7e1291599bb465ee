package streams

import "time"

// Stream name constants
const (
	StreamActivity = "pomodo:activity"
)

// Consumer group constants
const (
	GroupActivityWorkers = "activity-workers"
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// Activity event types
const (
	EventTaskDone       = "task.done"
	EventTaskCycle      = "task.cycle"
	EventTaskDeleted    = "task.deleted"
	EventProjectDeleted = "project.deleted"
)

// Event is one user activity published on the activity stream.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	TaskID     uint      `json:"task_id,omitempty"`
	ProjectID  uint      `json:"project_id,omitempty"`
	Value      int       `json:"value,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
