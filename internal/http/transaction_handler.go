package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
)

// TransactionHandler mantiene dependencias para endpoints de movimientos.
type TransactionHandler struct {
	logger       *zap.Logger
	transactions repository.TransactionRepository
}

func NewTransactionHandler(logger *zap.Logger, transactions repository.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{
		logger:       logger,
		transactions: transactions,
	}
}

// List maneja GET /transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	items, err := h.transactions.ListByAccount(c.Request.Context(), accountID, limit)
	if err != nil {
		h.logger.Error("list transactions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not list transactions"})
		return
	}
	if items == nil {
		items = []domain.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transactions": items})
}

// Create maneja POST /transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Type        string    `json:"type" binding:"required,oneof=income expense"`
		AmountCents int64     `json:"amount_cents" binding:"required,gt=0"`
		CategoryID  string    `json:"category_id"`
		Note        string    `json:"note"`
		OccurredAt  time.Time `json:"occurred_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create transaction request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	tx := domain.Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		CategoryID:  req.CategoryID,
		Type:        domain.TransactionType(req.Type),
		AmountCents: req.AmountCents,
		Note:        req.Note,
		OccurredAt:  req.OccurredAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.transactions.Create(c.Request.Context(), tx); err != nil {
		h.logger.Error("create transaction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not create transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "transaction": tx})
}

// Update maneja PUT /transactions/:id.
func (h *TransactionHandler) Update(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Type        string    `json:"type" binding:"required,oneof=income expense"`
		AmountCents int64     `json:"amount_cents" binding:"required,gt=0"`
		CategoryID  string    `json:"category_id"`
		Note        string    `json:"note"`
		OccurredAt  time.Time `json:"occurred_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update transaction request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	tx := domain.Transaction{
		ID:          c.Param("id"),
		AccountID:   accountID,
		CategoryID:  req.CategoryID,
		Type:        domain.TransactionType(req.Type),
		AmountCents: req.AmountCents,
		Note:        req.Note,
		OccurredAt:  req.OccurredAt.UTC(),
	}

	if err := h.transactions.Update(c.Request.Context(), tx); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "transaction not found"})
			return
		}
		h.logger.Error("update transaction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not update transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete maneja DELETE /transactions/:id.
func (h *TransactionHandler) Delete(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	if err := h.transactions.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "transaction not found"})
			return
		}
		h.logger.Error("delete transaction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not delete transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
