package handler

import (
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

type CategoryHandler struct {
	categoryRepo repository.CategoryStore
}

func NewCategoryHandler(categoryRepo repository.CategoryStore) *CategoryHandler {
	return &CategoryHandler{categoryRepo: categoryRepo}
}

// CategoryRequest представляет запрос на создание или обновление категории
type CategoryRequest struct {
	Title string `json:"title" binding:"required,notblank,max=255"`
}

// CategoryResponse представляет категорию в ответе
type CategoryResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCategoryResponse(category model.Category) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID.String(),
		Title:     category.Title,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

// GetAll возвращает все категории текущего пользователя
func (h *CategoryHandler) GetAll(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	categories, err := h.categoryRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Error("list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve categories"})
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		response[i] = toCategoryResponse(category)
	}
	c.JSON(http.StatusOK, response)
}

// GetByID возвращает категорию по ID
func (h *CategoryHandler) GetByID(c *gin.Context) {
	category, ok := h.ownedCategory(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(*category))
}

// Create создает новую категорию
func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category := &model.Category{
		ID:     uuid.New(),
		UserID: userID,
		Title:  req.Title,
	}
	if err := h.categoryRepo.Create(c.Request.Context(), category); err != nil {
		log.WithError(err).Error("create category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, toCategoryResponse(*category))
}

// Update переименовывает категорию
func (h *CategoryHandler) Update(c *gin.Context) {
	category, ok := h.ownedCategory(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category.Title = req.Title
	if err := h.categoryRepo.Update(c.Request.Context(), category); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		log.WithError(err).Error("update category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	c.JSON(http.StatusOK, toCategoryResponse(*category))
}

// Delete удаляет категорию; задачи остаются без категории
func (h *CategoryHandler) Delete(c *gin.Context) {
	category, ok := h.ownedCategory(c)
	if !ok {
		return
	}

	if err := h.categoryRepo.Delete(c.Request.Context(), category.UserID, category.ID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		log.WithError(err).Error("delete category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ownedCategory загружает категорию из URL и проверяет владельца.
// При ошибке ответ уже записан.
func (h *CategoryHandler) ownedCategory(c *gin.Context) (*model.Category, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID format"})
		return nil, false
	}

	category, err := h.categoryRepo.GetByID(c.Request.Context(), categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve category"})
		}
		return nil, false
	}

	if category.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return category, true
}
