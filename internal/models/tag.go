package models

// Tag is a user-scoped label; the name is unique per user.
// Tags outlive their links to tasks and are reused by name.
type Tag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_tags_user_name" json:"-"`
	Name   string `gorm:"not null;uniqueIndex:idx_tags_user_name" json:"name"`
	Tasks  []Task `gorm:"many2many:task_tags;" json:"-"`
}
