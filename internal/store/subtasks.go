package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jimdaga/pomodo/internal/models"
	"gorm.io/gorm"
)

// SubtaskInput carries subtask fields. On update, nil fields are left alone;
// on create, Title is required.
type SubtaskInput struct {
	ID          uint    `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (in SubtaskInput) validate() error {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return invalid("subtask title is required")
	}
	return nil
}

// AddSubtask appends a new, not-done subtask to the task.
func (s *Store) AddSubtask(ctx context.Context, userID, taskID uint, in SubtaskInput) (*models.Subtask, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var subtask *models.Subtask
	err := s.tx(ctx, func(tx *gorm.DB) error {
		task, err := findTaskRow(tx, userID, taskID)
		if err != nil {
			return err
		}
		subtask, err = addSubtask(tx, task.ID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

// RemoveSubtask deletes a subtask of the task.
func (s *Store) RemoveSubtask(ctx context.Context, userID, taskID, subtaskID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		subtask, err := findSubtask(tx, userID, taskID, subtaskID)
		if err != nil {
			return err
		}
		if err := tx.Delete(subtask).Error; err != nil {
			return fmt.Errorf("failed to delete subtask %d: %w", subtaskID, err)
		}
		return nil
	})
}

// UpdateSubtask changes the title and/or description of a subtask.
func (s *Store) UpdateSubtask(ctx context.Context, userID, taskID uint, in SubtaskInput) (*models.Subtask, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, invalid("subtask title must not be empty")
	}

	var subtask *models.Subtask
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		subtask, err = findSubtask(tx, userID, taskID, in.ID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(subtask).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update subtask %d: %w", in.ID, err)
		}
		return tx.First(subtask, subtask.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

// ToggleSubtaskDone flips the done flag of a subtask and returns the new value.
func (s *Store) ToggleSubtaskDone(ctx context.Context, userID, taskID, subtaskID uint) (bool, error) {
	var done bool
	err := s.tx(ctx, func(tx *gorm.DB) error {
		subtask, err := findSubtask(tx, userID, taskID, subtaskID)
		if err != nil {
			return err
		}
		done = !subtask.Done
		if err := tx.Model(subtask).Update("done", done).Error; err != nil {
			return fmt.Errorf("failed to toggle subtask %d: %w", subtaskID, err)
		}
		return nil
	})
	return done, err
}

func addSubtask(tx *gorm.DB, taskID uint, in SubtaskInput) (*models.Subtask, error) {
	subtask := &models.Subtask{TaskID: taskID, Title: strings.TrimSpace(*in.Title)}
	if in.Description != nil {
		subtask.Description = *in.Description
	}
	if err := tx.Create(subtask).Error; err != nil {
		return nil, fmt.Errorf("failed to create subtask: %w", err)
	}
	return subtask, nil
}

// findSubtask loads a subtask that belongs to one of the user's tasks.
func findSubtask(tx *gorm.DB, userID, taskID, subtaskID uint) (*models.Subtask, error) {
	if _, err := findTaskRow(tx, userID, taskID); err != nil {
		return nil, err
	}
	var subtask models.Subtask
	if err := tx.Where("id = ? AND task_id = ?", subtaskID, taskID).First(&subtask).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("subtask %d", subtaskID))
	}
	return &subtask, nil
}
