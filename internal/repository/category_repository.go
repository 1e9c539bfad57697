package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

// CategoryStore is the category persistence surface used by handlers.
// CategoryRepository and CategoryCache both satisfy it.
type CategoryStore interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

var _ CategoryStore = (*CategoryRepository)(nil)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Omit("User").Create(category).Error
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at, id").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) Update(ctx context.Context, category *model.Category) error {
	result := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ? AND user_id = ?", category.ID, category.UserID).
		Update("title", category.Title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Delete removes the category and detaches every task linked to it. The tasks
// themselves survive without a category.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
}
