package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TaskStore is the task persistence surface used by TaskHandler.
type TaskStore interface {
	List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Create(ctx context.Context, task *model.Task, categoryID uuid.UUID) error
	Update(ctx context.Context, task *model.Task, categoryID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ TaskStore = (*repository.TaskRepository)(nil)

type TaskHandler struct {
	taskRepo     TaskStore
	categoryRepo repository.CategoryStore
}

func NewTaskHandler(taskRepo TaskStore, categoryRepo repository.CategoryStore) *TaskHandler {
	return &TaskHandler{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
	}
}

// TaskRequest представляет запрос на создание или обновление задачи
type TaskRequest struct {
	Title      string `json:"title" binding:"required,notblank,max=255"`
	CategoryID string `json:"category_id" binding:"required,uuid"`
}

// TaskCategoryResponse представляет категорию, встроенную в задачу
type TaskCategoryResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TaskResponse представляет ответ с данными задачи
type TaskResponse struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	CategoryID *string                `json:"category_id"`
	Category   []TaskCategoryResponse `json:"category"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// TaskPageResponse представляет страницу задач
type TaskPageResponse struct {
	Data        []TaskResponse `json:"data"`
	CurrentPage int            `json:"current_page"`
	LastPage    int            `json:"last_page"`
	PerPage     int            `json:"per_page"`
	Total       int64          `json:"total"`
}

func toTaskResponse(task model.Task) TaskResponse {
	response := TaskResponse{
		ID:        task.ID.String(),
		Title:     task.Title,
		Category:  make([]TaskCategoryResponse, len(task.Categories)),
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	for i, category := range task.Categories {
		response.Category[i] = TaskCategoryResponse{ID: category.ID.String(), Title: category.Title}
	}
	if primary := task.PrimaryCategoryID(); primary != nil {
		id := primary.String()
		response.CategoryID = &id
	}
	return response
}

// GetAll возвращает страницу задач текущего пользователя
func (h *TaskHandler) GetAll(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	page, perPage := pageParams(c)
	filter := repository.TaskFilter{UserID: userID, Page: page, PerPage: perPage}

	// Фильтр по категории
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
			return
		}
		filter.CategoryID = &categoryID
	}

	tasks, total, err := h.taskRepo.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list tasks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := TaskPageResponse{
		Data:        make([]TaskResponse, len(tasks)),
		CurrentPage: page,
		LastPage:    lastPage(total, perPage),
		PerPage:     perPage,
		Total:       total,
	}
	for i, task := range tasks {
		response.Data[i] = toTaskResponse(task)
	}
	c.JSON(http.StatusOK, response)
}

// GetByID получает задачу по ID
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

// Create создает новую задачу и привязывает ее к категории
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	categoryID, ok := h.ownedCategoryID(c, userID, req.CategoryID)
	if !ok {
		return
	}

	task := &model.Task{
		ID:     uuid.New(),
		UserID: userID,
		Title:  req.Title,
	}
	if err := h.taskRepo.Create(c.Request.Context(), task, categoryID); err != nil {
		log.WithError(err).Error("create task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	h.respondWithTask(c, http.StatusCreated, task.ID)
}

// Update обновляет название и категорию задачи
func (h *TaskHandler) Update(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	categoryID, ok := h.ownedCategoryID(c, task.UserID, req.CategoryID)
	if !ok {
		return
	}

	task.Title = req.Title
	if err := h.taskRepo.Update(c.Request.Context(), task, categoryID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		log.WithError(err).Error("update task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	h.respondWithTask(c, http.StatusOK, task.ID)
}

// Delete удаляет задачу
func (h *TaskHandler) Delete(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(c.Request.Context(), task.ID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		log.WithError(err).Error("delete task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ownedTask загружает задачу из URL и проверяет, что она принадлежит текущему пользователю
func (h *TaskHandler) ownedTask(c *gin.Context) (*model.Task, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return nil, false
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil, false
	}

	if task.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return task, true
}

// ownedCategoryID проверяет, что категория существует и принадлежит пользователю
func (h *TaskHandler) ownedCategoryID(c *gin.Context, userID uuid.UUID, raw string) (uuid.UUID, bool) {
	invalid := FieldErrors{"category_id": {"The selected category id is invalid."}}

	categoryID, err := uuid.Parse(raw)
	if err != nil {
		respondValidation(c, invalid)
		return uuid.Nil, false
	}

	category, err := h.categoryRepo.GetByID(c.Request.Context(), categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			respondValidation(c, invalid)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve category"})
		}
		return uuid.Nil, false
	}

	if category.UserID != userID {
		respondValidation(c, invalid)
		return uuid.Nil, false
	}
	return category.ID, true
}

func (h *TaskHandler) respondWithTask(c *gin.Context, status int, id uuid.UUID) {
	task, err := h.taskRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload task"})
		return
	}
	c.JSON(status, toTaskResponse(*task))
}
