package store

import (
	"context"
	"fmt"

	"github.com/jimdaga/pomodo/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordDay counts one finished chore for the user on day. The first call for
// a day creates the row with chores_done=1; later calls increment it in the
// same statement, so concurrent calls never lose a count.
func (s *Store) RecordDay(ctx context.Context, userID uint, day datatypes.Date) (*models.Stats, error) {
	var stats models.Stats
	err := s.tx(ctx, func(tx *gorm.DB) error {
		row := models.Stats{UserID: userID, Day: day, ChoresDone: 1}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"chores_done": gorm.Expr("stats.chores_done + 1"),
			}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to record stats: %w", err)
		}
		return tx.Where("user_id = ? AND day = ?", userID, day).Take(&stats).Error
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListStats returns the user's daily counters ordered by day.
func (s *Store) ListStats(ctx context.Context, userID uint) ([]models.Stats, error) {
	stats := []models.Stats{}
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("day").Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	return stats, nil
}
