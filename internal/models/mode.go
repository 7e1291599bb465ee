package models

// Mode is a named pomodoro timing preset. Durations are in minutes.
type Mode struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"-"`
	Name       string `gorm:"not null" json:"name"`
	Pomo       int    `gorm:"not null" json:"pomo"`
	ShortBreak int    `gorm:"not null" json:"short_break"`
	LongBreak  int    `gorm:"not null" json:"long_break"`
}
