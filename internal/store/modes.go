package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jimdaga/pomodo/internal/models"
	"gorm.io/gorm"
)

// ModeInput holds the fields of a timing preset.
type ModeInput struct {
	Name       string `json:"name"`
	Pomo       int    `json:"pomo"`
	ShortBreak int    `json:"short_break"`
	LongBreak  int    `json:"long_break"`
}

func (in ModeInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("mode name is required")
	}
	if in.Pomo <= 0 || in.ShortBreak <= 0 || in.LongBreak <= 0 {
		return invalid("mode durations must be positive")
	}
	return nil
}

// ListModes returns the user's modes ordered by id.
func (s *Store) ListModes(ctx context.Context, userID uint) ([]models.Mode, error) {
	modes := []models.Mode{}
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("id").Find(&modes).Error; err != nil {
		return nil, fmt.Errorf("failed to list modes: %w", err)
	}
	return modes, nil
}

// CreateMode stores a new mode.
func (s *Store) CreateMode(ctx context.Context, userID uint, in ModeInput) (*models.Mode, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	mode := &models.Mode{
		UserID:     userID,
		Name:       strings.TrimSpace(in.Name),
		Pomo:       in.Pomo,
		ShortBreak: in.ShortBreak,
		LongBreak:  in.LongBreak,
	}
	if err := s.conn(ctx).Create(mode).Error; err != nil {
		return nil, fmt.Errorf("failed to create mode: %w", err)
	}
	return mode, nil
}

// GetMode returns one of the user's modes.
func (s *Store) GetMode(ctx context.Context, userID, modeID uint) (*models.Mode, error) {
	return findMode(s.conn(ctx), userID, modeID)
}

// UpdateMode replaces every field of a mode.
func (s *Store) UpdateMode(ctx context.Context, userID, modeID uint, in ModeInput) (*models.Mode, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var mode *models.Mode
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		mode, err = findMode(tx, userID, modeID)
		if err != nil {
			return err
		}
		mode.Name = strings.TrimSpace(in.Name)
		mode.Pomo = in.Pomo
		mode.ShortBreak = in.ShortBreak
		mode.LongBreak = in.LongBreak
		if err := tx.Save(mode).Error; err != nil {
			return fmt.Errorf("failed to update mode %d: %w", modeID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mode, nil
}

// DeleteMode removes a mode and clears it as anyone's current mode.
func (s *Store) DeleteMode(ctx context.Context, userID, modeID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		mode, err := findMode(tx, userID, modeID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("current_mode_id = ?", mode.ID).
			Update("current_mode_id", nil).Error; err != nil {
			return fmt.Errorf("failed to clear current mode: %w", err)
		}
		if err := tx.Delete(mode).Error; err != nil {
			return fmt.Errorf("failed to delete mode %d: %w", modeID, err)
		}
		return nil
	})
}

func findMode(tx *gorm.DB, userID, modeID uint) (*models.Mode, error) {
	var mode models.Mode
	if err := tx.Where("id = ? AND user_id = ?", modeID, userID).First(&mode).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("mode %d", modeID))
	}
	return &mode, nil
}
