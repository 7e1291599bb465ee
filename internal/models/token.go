package models

import "time"

// RefreshToken records an issued refresh token by its JTI so it can be
// rotated and revoked.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	JTI       string    `gorm:"column:jti;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Mode{},
		&Task{},
		&Subtask{},
		&Tag{},
		&Project{},
		&Stats{},
		&RefreshToken{},
	}
}
