package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fintrack/internal/service"
)

// ReportHandler mantiene dependencias para endpoints de reportes.
type ReportHandler struct {
	logger  *zap.Logger
	reports *service.ReportService
}

func NewReportHandler(logger *zap.Logger, reports *service.ReportService) *ReportHandler {
	return &ReportHandler{
		logger:  logger,
		reports: reports,
	}
}

// Dashboard maneja GET /dashboard.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	summary, err := h.reports.Dashboard(c.Request.Context(), accountID)
	if err != nil {
		h.logger.Error("dashboard failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not build dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": summary})
}

// Monthly maneja GET /reports/monthly?month=YYYY-MM.
func (h *ReportHandler) Monthly(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	month := c.Query("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}

	report, err := h.reports.Monthly(c.Request.Context(), accountID, month)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMonth) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid month, expected YYYY-MM"})
			return
		}
		h.logger.Error("monthly report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not build report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
