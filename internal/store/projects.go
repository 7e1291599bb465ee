package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jimdaga/pomodo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateProject creates a project together with its own tasks, kept in input
// order. Those tasks are marked InProject and die with the project.
func (s *Store) CreateProject(ctx context.Context, userID uint, name string, tasks []TaskInput) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("project name is required")
	}

	var project *models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p := &models.Project{UserID: userID, Name: name}
		if err := tx.Omit("Tasks").Create(p).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		for _, in := range tasks {
			task, err := createTask(tx, userID, in, true)
			if err != nil {
				return err
			}
			if err := linkProjectTask(tx, p.ID, task.ID); err != nil {
				return err
			}
		}
		var err error
		project, err = findProject(tx, userID, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject loads a project with its member tasks.
func (s *Store) GetProject(ctx context.Context, userID, projectID uint) (*models.Project, error) {
	return findProject(s.conn(ctx), userID, projectID)
}

// ListProjects pages through the user's projects, newest first.
func (s *Store) ListProjects(ctx context.Context, userID uint, offset, limit int) ([]models.Project, int64, error) {
	db := s.conn(ctx)

	var total int64
	if err := db.Model(&models.Project{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	projects := []models.Project{}
	err := withProjectRelations(db).
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// RenameProject changes the project's name.
func (s *Store) RenameProject(ctx context.Context, userID, projectID uint, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("project name is required")
	}

	var project *models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := findProjectRow(tx, userID, projectID)
		if err != nil {
			return err
		}
		if err := tx.Model(p).Update("name", name).Error; err != nil {
			return fmt.Errorf("failed to rename project %d: %w", projectID, err)
		}
		project, err = findProject(tx, userID, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// AddNewProjectTask creates a project-owned task and appends it to the project.
func (s *Store) AddNewProjectTask(ctx context.Context, userID, projectID uint, in TaskInput) (*models.Task, error) {
	var task *models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := findProjectRow(tx, userID, projectID)
		if err != nil {
			return err
		}
		created, err := createTask(tx, userID, in, true)
		if err != nil {
			return err
		}
		if err := linkProjectTask(tx, p.ID, created.ID); err != nil {
			return err
		}
		task, err = findTask(tx, userID, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// AddExistingProjectTask attaches one of the user's tasks to the project.
// The task keeps its InProject flag, so deleting the project only detaches it.
func (s *Store) AddExistingProjectTask(ctx context.Context, userID, projectID, taskID uint) (*models.Task, error) {
	var task *models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := findProjectRow(tx, userID, projectID)
		if err != nil {
			return err
		}
		row, err := findTaskRow(tx, userID, taskID)
		if err != nil {
			return err
		}
		if err := linkProjectTask(tx, p.ID, row.ID); err != nil {
			return err
		}
		task, err = findTask(tx, userID, row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateProjectTask applies a partial update to a member task.
func (s *Store) UpdateProjectTask(ctx context.Context, userID, projectID, taskID uint, patch TaskPatch) (*models.Task, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireMember(tx, userID, projectID, taskID); err != nil {
			return err
		}
		var err error
		task, err = updateTask(tx, userID, taskID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// RemoveProjectTask deletes a project-owned member task, or only detaches a
// task that was added from outside the project.
func (s *Store) RemoveProjectTask(ctx context.Context, userID, projectID, taskID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireMember(tx, userID, projectID, taskID); err != nil {
			return err
		}
		task, err := findTaskRow(tx, userID, taskID)
		if err != nil {
			return err
		}
		if task.InProject {
			return deleteTask(tx, task)
		}
		return unlinkProjectTask(tx, projectID, taskID)
	})
}

// ToggleProjectTaskDone flips the done flag of a member task.
func (s *Store) ToggleProjectTaskDone(ctx context.Context, userID, projectID, taskID uint) (bool, error) {
	var done bool
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireMember(tx, userID, projectID, taskID); err != nil {
			return err
		}
		var err error
		done, err = toggleTaskDone(tx, userID, taskID)
		return err
	})
	return done, err
}

// DeleteProject deletes the project and its InProject tasks. Members added
// from outside are only detached.
func (s *Store) DeleteProject(ctx context.Context, userID, projectID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		project, err := findProject(tx, userID, projectID)
		if err != nil {
			return err
		}
		for i := range project.Tasks {
			task := &project.Tasks[i]
			if !task.InProject {
				continue
			}
			if err := deleteTask(tx, task); err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&projectTask{}).Error; err != nil {
			return fmt.Errorf("failed to detach tasks of project %d: %w", project.ID, err)
		}
		if err := tx.Delete(&models.Project{}, project.ID).Error; err != nil {
			return fmt.Errorf("failed to delete project %d: %w", project.ID, err)
		}
		return nil
	})
}

// projectTask maps the project_tasks join table.
type projectTask struct {
	ProjectID uint
	TaskID    uint
}

func (projectTask) TableName() string {
	return "project_tasks"
}

func findProject(tx *gorm.DB, userID, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := withProjectRelations(tx).Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("project %d", projectID))
	}
	return &project, nil
}

func findProjectRow(tx *gorm.DB, userID, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := tx.Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("project %d", projectID))
	}
	return &project, nil
}

// requireMember checks that the user owns the project and the task is in it.
func requireMember(tx *gorm.DB, userID, projectID, taskID uint) error {
	if _, err := findProjectRow(tx, userID, projectID); err != nil {
		return err
	}
	var n int64
	if err := tx.Model(&projectTask{}).Where("project_id = ? AND task_id = ?", projectID, taskID).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check project membership: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d in project %d: %w", taskID, projectID, ErrNotFound)
	}
	return nil
}

func linkProjectTask(tx *gorm.DB, projectID, taskID uint) error {
	link := projectTask{ProjectID: projectID, TaskID: taskID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("failed to add task %d to project %d: %w", taskID, projectID, err)
	}
	return nil
}

func unlinkProjectTask(tx *gorm.DB, projectID, taskID uint) error {
	if err := tx.Where("project_id = ? AND task_id = ?", projectID, taskID).Delete(&projectTask{}).Error; err != nil {
		return fmt.Errorf("failed to remove task %d from project %d: %w", taskID, projectID, err)
	}
	return nil
}
