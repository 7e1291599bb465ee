package streams

import (
	"context"
	"fmt"
	"log/slog"
)

// LogActivity returns a handler that writes every activity event to the
// audit log.
func LogActivity(logger *slog.Logger) func(context.Context, Event) error {
	return func(ctx context.Context, e Event) error {
		if e.Type == "" || e.UserID == 0 {
			return fmt.Errorf("malformed event %q", e.ID)
		}

		attrs := []any{
			"event_id", e.ID,
			"type", e.Type,
			"user_id", e.UserID,
			"occurred_at", e.OccurredAt,
		}
		if e.TaskID != 0 {
			attrs = append(attrs, "task_id", e.TaskID)
		}
		if e.ProjectID != 0 {
			attrs = append(attrs, "project_id", e.ProjectID)
		}
		if e.Type == EventTaskCycle || e.Type == EventTaskDone {
			attrs = append(attrs, "value", e.Value)
		}

		logger.InfoContext(ctx, "Activity", attrs...)
		return nil
	}
}
