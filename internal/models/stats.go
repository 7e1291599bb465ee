package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DayLayout is the wire format of Stats.Day.
const DayLayout = "2006-01-02"

// Stats counts completed work cycles of one user on one calendar day.
type Stats struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_stats_user_day" json:"-"`
	Day        datatypes.Date `gorm:"not null;uniqueIndex:idx_stats_user_day" json:"day"`
	ChoresDone int            `gorm:"not null;default:1" json:"chores_done"`
}

func (Stats) TableName() string {
	return "stats"
}

func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         uint   `json:"id"`
		Day        string `json:"day"`
		ChoresDone int    `json:"chores_done"`
	}{
		ID:         s.ID,
		Day:        time.Time(s.Day).Format(DayLayout),
		ChoresDone: s.ChoresDone,
	})
}

// ParseDay parses a YYYY-MM-DD string into a UTC date.
func ParseDay(s string) (datatypes.Date, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}
