package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jimdaga/pomodo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttachStatus reports what AttachTagByName did.
type AttachStatus int

const (
	// TagNew means the tag did not exist and was created and attached.
	TagNew AttachStatus = iota
	// TagExisting means an existing tag was attached to the task.
	TagExisting
	// TagDuplicate means the task already carried the tag; nothing changed.
	TagDuplicate
)

func (s AttachStatus) String() string {
	switch s {
	case TagNew:
		return "new"
	case TagExisting:
		return "existing"
	case TagDuplicate:
		return "duplicate"
	}
	return fmt.Sprintf("AttachStatus(%d)", int(s))
}

// AttachResult is the outcome of AttachTagByName.
type AttachResult struct {
	Status AttachStatus
	Tag    models.Tag
}

// AttachTagByName gets or creates the user's tag called name and links it to
// the task. Attaching a tag the task already has is a no-op.
func (s *Store) AttachTagByName(ctx context.Context, userID, taskID uint, name string) (AttachResult, error) {
	var res AttachResult
	err := s.tx(ctx, func(tx *gorm.DB) error {
		task, err := findTaskRow(tx, userID, taskID)
		if err != nil {
			return err
		}
		res, err = attachTagByName(tx, userID, task, name)
		return err
	})
	return res, err
}

// DetachTag unlinks a tag from a task. The tag itself is kept.
func (s *Store) DetachTag(ctx context.Context, userID, taskID, tagID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		task, err := findTaskRow(tx, userID, taskID)
		if err != nil {
			return err
		}
		linked, err := tagLinked(tx, task.ID, tagID)
		if err != nil {
			return err
		}
		if !linked {
			return fmt.Errorf("tag %d on task %d: %w", tagID, taskID, ErrNotFound)
		}
		if err := tx.Where("task_id = ? AND tag_id = ?", task.ID, tagID).Delete(&taskTag{}).Error; err != nil {
			return fmt.Errorf("failed to detach tag %d: %w", tagID, err)
		}
		return nil
	})
}

// ListTags returns the user's tags ordered by id.
func (s *Store) ListTags(ctx context.Context, userID uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns one of the user's tags.
func (s *Store) GetTag(ctx context.Context, userID, tagID uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.conn(ctx).Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("tag %d", tagID))
	}
	return &tag, nil
}

// DeleteTag removes a tag and every link to it.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
			return notFound(err, fmt.Sprintf("tag %d", tagID))
		}
		if err := tx.Model(&tag).Association("Tasks").Clear(); err != nil {
			return fmt.Errorf("failed to unlink tag %d: %w", tagID, err)
		}
		if err := tx.Delete(&tag).Error; err != nil {
			return fmt.Errorf("failed to delete tag %d: %w", tagID, err)
		}
		return nil
	})
}

// TasksByTagName returns the user's tasks carrying the named tag. An unknown
// name is ErrNotFound; a known tag without tasks yields an empty slice.
func (s *Store) TasksByTagName(ctx context.Context, userID uint, name string) ([]models.Task, error) {
	db := s.conn(ctx)

	var tag models.Tag
	if err := db.Where("user_id = ? AND name = ?", userID, strings.TrimSpace(name)).First(&tag).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("tag %q", name))
	}

	tasks := []models.Task{}
	err := withTaskRelations(db).
		Joins("JOIN task_tags ON task_tags.task_id = tasks.id").
		Where("task_tags.tag_id = ? AND tasks.user_id = ?", tag.ID, userID).
		Order("tasks.id").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for tag %q: %w", name, err)
	}
	return tasks, nil
}

func attachTagByName(tx *gorm.DB, userID uint, task *models.Task, name string) (AttachResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return AttachResult{}, invalid("tag name is required")
	}

	tag, created, err := getOrCreateTag(tx, userID, name)
	if err != nil {
		return AttachResult{}, err
	}

	if !created {
		linked, err := tagLinked(tx, task.ID, tag.ID)
		if err != nil {
			return AttachResult{}, err
		}
		if linked {
			return AttachResult{Status: TagDuplicate, Tag: *tag}, nil
		}
	}

	link := taskTag{TaskID: task.ID, TagID: tag.ID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return AttachResult{}, fmt.Errorf("failed to attach tag %q: %w", name, err)
	}

	status := TagExisting
	if created {
		status = TagNew
	}
	return AttachResult{Status: status, Tag: *tag}, nil
}

// getOrCreateTag relies on the (user_id, name) unique index: when a
// concurrent request inserts the same name first, the row is re-read.
func getOrCreateTag(tx *gorm.DB, userID uint, name string) (*models.Tag, bool, error) {
	var tag models.Tag
	err := tx.Where("user_id = ? AND name = ?", userID, name).Take(&tag).Error
	if err == nil {
		return &tag, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}

	tag = models.Tag{UserID: userID, Name: name}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Tasks").Create(&tag).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	if tag.ID != 0 {
		return &tag, true, nil
	}

	if err := tx.Where("user_id = ? AND name = ?", userID, name).Take(&tag).Error; err != nil {
		return nil, false, fmt.Errorf("failed to re-read tag %q: %w", name, err)
	}
	return &tag, false, nil
}

// taskTag maps the task_tags join table.
type taskTag struct {
	TaskID uint
	TagID  uint
}

func (taskTag) TableName() string {
	return "task_tags"
}

func tagLinked(tx *gorm.DB, taskID, tagID uint) (bool, error) {
	var n int64
	if err := tx.Model(&taskTag{}).Where("task_id = ? AND tag_id = ?", taskID, tagID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check tag link: %w", err)
	}
	return n > 0, nil
}
