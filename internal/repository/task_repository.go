package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

// TaskFilter narrows an owner's task listing.
type TaskFilter struct {
	UserID     uuid.UUID
	CategoryID *uuid.UUID
	Page       int
	PerPage    int
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns one page of the owner's tasks with their categories, plus the
// total number of tasks matching the filter.
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{}).Where("tasks.user_id = ?", filter.UserID)

	if filter.CategoryID != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM task_categories WHERE task_categories.task_id = tasks.id AND task_categories.category_id = ?)",
			*filter.CategoryID,
		)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at, tasks.id")
	if filter.Page > 0 && filter.PerPage > 0 {
		listQuery = listQuery.Offset((filter.Page - 1) * filter.PerPage).Limit(filter.PerPage)
	}

	var tasks []model.Task
	if err := listQuery.Preload("Categories").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// GetByID retrieves a task by its ID together with its categories
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).Preload("Categories").First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// Create inserts the task and attaches it to a single category
func (r *TaskRepository) Create(ctx context.Context, task *model.Task, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories", "User").Create(task).Error; err != nil {
			return err
		}
		return attachCategory(tx, task.ID, categoryID)
	})
}

// Update renames the task and syncs its category links down to categoryID
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Task{}).Where("id = ?", task.ID).Update("title", task.Title)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}

		if err := tx.Exec("DELETE FROM task_categories WHERE task_id = ?", task.ID).Error; err != nil {
			return err
		}
		return attachCategory(tx, task.ID, categoryID)
	})
}

// Delete removes a task and its category links
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_categories WHERE task_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Task{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}

func attachCategory(tx *gorm.DB, taskID, categoryID uuid.UUID) error {
	return tx.Exec(
		"INSERT INTO task_categories (task_id, category_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		taskID, categoryID,
	).Error
}
