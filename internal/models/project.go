package models

import (
	"encoding/json"
	"time"
)

// Project groups tasks of one user.
type Project struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Tasks     []Task    `gorm:"many2many:project_tasks;" json:"tasks"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (p Project) MarshalJSON() ([]byte, error) {
	type alias Project

	tasks := p.Tasks
	if tasks == nil {
		tasks = []Task{}
	}
	return json.Marshal(struct {
		alias
		Tasks []Task `json:"tasks"`
	}{
		alias: alias(p),
		Tasks: tasks,
	})
}
