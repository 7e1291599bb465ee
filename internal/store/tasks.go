package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jimdaga/pomodo/internal/models"
	"gorm.io/gorm"
)

// TaskInput describes a task to create, optionally with tags and subtasks.
type TaskInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Estimated   int            `json:"estimated"`
	Tags        []TagInput     `json:"tags"`
	Subtasks    []SubtaskInput `json:"subtasks"`
}

// TagInput names a tag to attach.
type TagInput struct {
	Name string `json:"name"`
}

// TaskPatch is a partial task update; nil fields are left alone.
type TaskPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Estimated   *int    `json:"estimated"`
}

func (in TaskInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("task title is required")
	}
	if in.Estimated < 0 {
		return invalid("estimated must not be negative")
	}
	for _, st := range in.Subtasks {
		if err := st.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p TaskPatch) validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("task title must not be empty")
	}
	if p.Estimated != nil && *p.Estimated < 0 {
		return invalid("estimated must not be negative")
	}
	return nil
}

func (p TaskPatch) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.Title != nil {
		updates["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Estimated != nil {
		updates["estimated"] = *p.Estimated
	}
	return updates
}

// CreateTask creates a standalone task with its tags and subtasks.
func (s *Store) CreateTask(ctx context.Context, userID uint, in TaskInput) (*models.Task, error) {
	var task *models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		created, err := createTask(tx, userID, in, false)
		if err != nil {
			return err
		}
		task, err = findTask(tx, userID, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask loads a task with its tags, subtasks and project ids.
func (s *Store) GetTask(ctx context.Context, userID, taskID uint) (*models.Task, error) {
	return findTask(s.conn(ctx), userID, taskID)
}

// CheckTask reports ErrNotFound unless the task exists and belongs to the user.
func (s *Store) CheckTask(ctx context.Context, userID, taskID uint) error {
	_, err := findTaskRow(s.conn(ctx), userID, taskID)
	return err
}

// ListTasks pages through the user's standalone tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, userID uint, offset, limit int) ([]models.Task, int64, error) {
	db := s.conn(ctx)
	scope := db.Model(&models.Task{}).Where("user_id = ? AND in_project = ?", userID, false)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	tasks := []models.Task{}
	err := withTaskRelations(db).
		Where("user_id = ? AND in_project = ?", userID, false).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// UpdateTask applies a partial update to one of the user's tasks.
func (s *Store) UpdateTask(ctx context.Context, userID, taskID uint, patch TaskPatch) (*models.Task, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		task, err = updateTask(tx, userID, taskID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task, its subtasks and its tag/project links.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		task, err := findTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		return deleteTask(tx, task)
	})
}

// ToggleTaskDone flips the done flag and returns the new value.
func (s *Store) ToggleTaskDone(ctx context.Context, userID, taskID uint) (bool, error) {
	var done bool
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		done, err = toggleTaskDone(tx, userID, taskID)
		return err
	})
	return done, err
}

// IncrementGoneThrough records one more finished work cycle on the task and
// returns the new count.
func (s *Store) IncrementGoneThrough(ctx context.Context, userID, taskID uint) (int, error) {
	var count int
	err := s.tx(ctx, func(tx *gorm.DB) error {
		task, err := findTaskRow(tx, userID, taskID)
		if err != nil {
			return err
		}
		if err := tx.Model(task).UpdateColumn("gone_through", gorm.Expr("gone_through + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to increment gone_through: %w", err)
		}
		if err := tx.First(task, task.ID).Error; err != nil {
			return fmt.Errorf("failed to reload task %d: %w", task.ID, err)
		}
		count = task.GoneThrough
		return nil
	})
	return count, err
}

func findTask(tx *gorm.DB, userID, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := withTaskRelations(tx).Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("task %d", taskID))
	}
	return &task, nil
}

// findTaskRow loads the bare task row, without relations.
func findTaskRow(tx *gorm.DB, userID, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := tx.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("task %d", taskID))
	}
	return &task, nil
}

func createTask(tx *gorm.DB, userID uint, in TaskInput, inProject bool) (*models.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Estimated:   in.Estimated,
		InProject:   inProject,
	}
	if err := tx.Omit("Tags", "Subtasks", "Projects").Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	for _, t := range in.Tags {
		if _, err := attachTagByName(tx, userID, task, t.Name); err != nil {
			return nil, err
		}
	}
	for _, st := range in.Subtasks {
		if _, err := addSubtask(tx, task.ID, st); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func updateTask(tx *gorm.DB, userID, taskID uint, patch TaskPatch) (*models.Task, error) {
	task, err := findTaskRow(tx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if updates := patch.updates(); len(updates) > 0 {
		if err := tx.Model(task).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update task %d: %w", taskID, err)
		}
	}
	return findTask(tx, userID, taskID)
}

func toggleTaskDone(tx *gorm.DB, userID, taskID uint) (bool, error) {
	task, err := findTaskRow(tx, userID, taskID)
	if err != nil {
		return false, err
	}
	done := !task.Done
	if err := tx.Model(task).Update("done", done).Error; err != nil {
		return false, fmt.Errorf("failed to toggle task %d: %w", taskID, err)
	}
	return done, nil
}

// deleteTask hard-deletes a task. Link rows and the users.current_task_id
// reference are cleared explicitly so SQLite behaves like Postgres.
func deleteTask(tx *gorm.DB, task *models.Task) error {
	if err := tx.Model(&models.User{}).
		Where("current_task_id = ?", task.ID).
		Update("current_task_id", nil).Error; err != nil {
		return fmt.Errorf("failed to clear current task: %w", err)
	}
	if err := tx.Model(task).Association("Tags").Clear(); err != nil {
		return fmt.Errorf("failed to unlink tags of task %d: %w", task.ID, err)
	}
	if err := tx.Model(task).Association("Projects").Clear(); err != nil {
		return fmt.Errorf("failed to unlink projects of task %d: %w", task.ID, err)
	}
	if err := tx.Where("task_id = ?", task.ID).Delete(&models.Subtask{}).Error; err != nil {
		return fmt.Errorf("failed to delete subtasks of task %d: %w", task.ID, err)
	}
	if err := tx.Delete(&models.Task{}, task.ID).Error; err != nil {
		return fmt.Errorf("failed to delete task %d: %w", task.ID, err)
	}
	return nil
}
