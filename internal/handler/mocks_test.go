package handler_test

import (
	"context"

	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int64, error) {
	args := m.Called(ctx, filter)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Get(1).(int64), args.Error(2)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task, categoryID uuid.UUID) error {
	return m.Called(ctx, task, categoryID).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task, categoryID uuid.UUID) error {
	return m.Called(ctx, task, categoryID).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// Мок репозитория категорий
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	args := m.Called(ctx, id)
	category, _ := args.Get(0).(*model.Category)
	return category, args.Error(1)
}

func (m *MockCategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error) {
	args := m.Called(ctx, userID)
	categories, _ := args.Get(0).([]model.Category)
	return categories, args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *model.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

// asUser подставляет владельца вместо JWT middleware
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}
