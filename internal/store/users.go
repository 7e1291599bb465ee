package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jimdaga/pomodo/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateUser stores a new account. passwordHash must already be hashed.
// A taken username is ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return nil, invalid("username and password are required")
	}

	user := &models.User{
		Username: username,
		Password: passwordHash,
		Settings: datatypes.JSON(`{}`),
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("user %q: %w", username, ErrConflict)
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("user %q: %w", username, ErrConflict)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserByUsername looks up an account for login.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("user %q", username))
	}
	return &user, nil
}

// GetUser loads an account by id.
func (s *Store) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", userID))
	}
	return &user, nil
}

// UpdateSettings replaces the user's settings document. The caller validates
// its shape.
func (s *Store) UpdateSettings(ctx context.Context, userID uint, settings datatypes.JSON) (*models.User, error) {
	var user *models.User
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, userID).Error; err != nil {
			return notFound(err, fmt.Sprintf("user %d", userID))
		}
		if err := tx.Model(&u).Update("settings", settings).Error; err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}
		u.Settings = settings
		user = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetCurrentTask points the user at one of their tasks, or clears the
// pointer when taskID is nil.
func (s *Store) SetCurrentTask(ctx context.Context, userID uint, taskID *uint) (*uint, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if taskID != nil {
			if _, err := findTaskRow(tx, userID, *taskID); err != nil {
				return err
			}
		}
		return updateUserColumn(tx, userID, "current_task_id", taskID)
	})
	if err != nil {
		return nil, err
	}
	return taskID, nil
}

// CurrentTaskID returns the user's current task id, nil when unset.
func (s *Store) CurrentTaskID(ctx context.Context, userID uint) (*uint, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.CurrentTaskID, nil
}

// SetCurrentMode selects one of the user's modes.
func (s *Store) SetCurrentMode(ctx context.Context, userID, modeID uint) (*models.Mode, error) {
	var mode *models.Mode
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		mode, err = findMode(tx, userID, modeID)
		if err != nil {
			return err
		}
		return updateUserColumn(tx, userID, "current_mode_id", mode.ID)
	})
	if err != nil {
		return nil, err
	}
	return mode, nil
}

// CurrentMode returns the user's selected mode; ErrNotFound when none is set.
func (s *Store) CurrentMode(ctx context.Context, userID uint) (*models.Mode, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CurrentModeID == nil {
		return nil, fmt.Errorf("current mode: %w", ErrNotFound)
	}
	return s.GetMode(ctx, userID, *user.CurrentModeID)
}

func updateUserColumn(tx *gorm.DB, userID uint, column string, value interface{}) error {
	res := tx.Model(&models.User{}).Where("id = ?", userID).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}
