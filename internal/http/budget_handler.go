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

// BudgetHandler mantiene dependencias para endpoints de presupuestos.
type BudgetHandler struct {
	logger  *zap.Logger
	budgets repository.BudgetRepository
}

func NewBudgetHandler(logger *zap.Logger, budgets repository.BudgetRepository) *BudgetHandler {
	return &BudgetHandler{
		logger:  logger,
		budgets: budgets,
	}
}

// List maneja GET /budgets?month=YYYY-MM.
func (h *BudgetHandler) List(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	month := c.Query("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid month, expected YYYY-MM"})
		return
	}

	items, err := h.budgets.ListByMonth(c.Request.Context(), accountID, month)
	if err != nil {
		h.logger.Error("list budgets failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not list budgets"})
		return
	}
	if items == nil {
		items = []domain.Budget{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "budgets": items})
}

// Create maneja POST /budgets.
func (h *BudgetHandler) Create(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		CategoryID  string `json:"category_id"`
		Month       string `json:"month" binding:"required"`
		AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create budget request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}
	if _, err := time.Parse("2006-01", req.Month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid month, expected YYYY-MM"})
		return
	}

	b := domain.Budget{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		CategoryID:  req.CategoryID,
		Month:       req.Month,
		AmountCents: req.AmountCents,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.budgets.Create(c.Request.Context(), b); err != nil {
		h.logger.Error("create budget failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not create budget"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "budget": b})
}

// Update maneja PUT /budgets/:id.
func (h *BudgetHandler) Update(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		CategoryID  string `json:"category_id"`
		Month       string `json:"month" binding:"required"`
		AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update budget request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}
	if _, err := time.Parse("2006-01", req.Month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid month, expected YYYY-MM"})
		return
	}

	b := domain.Budget{
		ID:          c.Param("id"),
		AccountID:   accountID,
		CategoryID:  req.CategoryID,
		Month:       req.Month,
		AmountCents: req.AmountCents,
	}

	if err := h.budgets.Update(c.Request.Context(), b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "budget not found"})
			return
		}
		h.logger.Error("update budget failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not update budget"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete maneja DELETE /budgets/:id.
func (h *BudgetHandler) Delete(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	if err := h.budgets.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "budget not found"})
			return
		}
		h.logger.Error("delete budget failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not delete budget"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
