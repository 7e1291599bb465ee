// Package store holds the ownership-scoped persistence operations. Every
// method takes the id of the acting user; rows belonging to anyone else are
// reported as ErrNotFound.
package store

import (
	"context"

	"gorm.io/gorm"
)

// Store wraps a GORM handle.
type Store struct {
	db *gorm.DB
}

// New creates a Store on top of db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// tx runs fn in one transaction bound to ctx. fn must only use the handle it
// is given.
func (s *Store) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func orderBy(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column)
	}
}

// withTaskRelations preloads everything a serialized task shows.
func withTaskRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", orderBy("tags.id")).
		Preload("Subtasks", orderBy("subtasks.id")).
		Preload("Projects", orderBy("projects.id"))
}

func withProjectRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tasks", orderBy("tasks.id")).
		Preload("Tasks.Tags", orderBy("tags.id")).
		Preload("Tasks.Subtasks", orderBy("subtasks.id")).
		Preload("Tasks.Projects", orderBy("projects.id"))
}
