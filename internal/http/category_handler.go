package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
)

// CategoryHandler mantiene dependencias para endpoints de categorías.
type CategoryHandler struct {
	logger     *zap.Logger
	categories repository.CategoryRepository
}

func NewCategoryHandler(logger *zap.Logger, categories repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{
		logger:     logger,
		categories: categories,
	}
}

// List maneja GET /categories.
func (h *CategoryHandler) List(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	items, err := h.categories.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		h.logger.Error("list categories failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not list categories"})
		return
	}
	if items == nil {
		items = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": items})
}

// Create maneja POST /categories.
func (h *CategoryHandler) Create(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=50"`
		Kind string `json:"kind" binding:"required,oneof=income expense"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create category request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	cat := domain.Category{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Name:      req.Name,
		Kind:      domain.TransactionType(req.Kind),
		CreatedAt: time.Now().UTC(),
	}

	if err := h.categories.Create(c.Request.Context(), cat); err != nil {
		h.logger.Error("create category failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not create category"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "category": cat})
}

// Delete maneja DELETE /categories/:id.
func (h *CategoryHandler) Delete(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "category not found"})
			return
		}
		h.logger.Error("delete category failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not delete category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
