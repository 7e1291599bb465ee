package models

import (
	"encoding/json"
	"time"
)

// Task is a unit of work owned by a single user.
//
// InProject marks tasks created by (and owned by) a project: deleting the
// project deletes them. Tasks attached to a project after the fact keep
// InProject=false and are only detached.
type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Estimated   int       `gorm:"not null;default:0" json:"estimated"`
	Done        bool      `gorm:"not null;default:false" json:"done"`
	GoneThrough int       `gorm:"not null;default:0" json:"gone_through"`
	InProject   bool      `gorm:"not null;default:false;index" json:"in_project"`
	Tags        []Tag     `gorm:"many2many:task_tags;" json:"tags"`
	Subtasks    []Subtask `gorm:"constraint:OnDelete:CASCADE;" json:"subtasks"`
	Projects    []Project `gorm:"many2many:project_tasks;" json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// MarshalJSON renders empty relations as [] and exposes the ids of the
// projects the task belongs to as project_tasks.
func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task

	tags := t.Tags
	if tags == nil {
		tags = []Tag{}
	}
	subtasks := t.Subtasks
	if subtasks == nil {
		subtasks = []Subtask{}
	}
	projectIDs := make([]uint, 0, len(t.Projects))
	for _, p := range t.Projects {
		projectIDs = append(projectIDs, p.ID)
	}

	return json.Marshal(struct {
		alias
		Tags         []Tag     `json:"tags"`
		Subtasks     []Subtask `json:"subtasks"`
		ProjectTasks []uint    `json:"project_tasks"`
	}{
		alias:        alias(t),
		Tags:         tags,
		Subtasks:     subtasks,
		ProjectTasks: projectIDs,
	})
}

// Subtask is a checklist item of a task; it lives and dies with the task.
type Subtask struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TaskID      uint   `gorm:"not null;index" json:"-"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	Done        bool   `gorm:"not null;default:false" json:"done"`
}
