package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is an account owning tasks, projects, tags, modes and stats.
// CurrentTaskID and CurrentModeID are weak references: the database nulls
// them when the referenced row goes away.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Username      string         `gorm:"uniqueIndex;not null" json:"username"`
	Password      string         `gorm:"not null" json:"-"` // bcrypt hash
	CurrentTaskID *uint          `gorm:"index" json:"current_task_id"`
	CurrentModeID *uint          `gorm:"index" json:"current_mode_id"`
	Settings      datatypes.JSON `json:"settings"`
	CreatedAt     time.Time      `json:"-"`
	UpdatedAt     time.Time      `json:"-"`
}
