package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
	"fintrack/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger    *zap.Logger
	authServ  *service.AuthService
	tokenServ *service.TokenService
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, tokenServ *service.TokenService) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		authServ:  authServ,
		tokenServ: tokenServ,
	}
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	_, err := h.authServ.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrWeakPassword),
			errors.Is(err, service.ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		case errors.Is(err, repository.ErrDuplicateAccount):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "email already registered"})
			return
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not register"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	acct, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid credentials"})
			return
		case errors.Is(err, service.ErrAccountLocked):
			c.JSON(http.StatusLocked, gin.H{"success": false, "message": "account temporarily locked, try again later"})
			return
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not login"})
			return
		}
	}

	token, refreshToken, err := h.issueTokenPair(acct)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not issue tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"token":            token,
		"refreshToken":     refreshToken,
		"expiresIn":        formatTTL(h.tokenServ.AccessTTL()),
		"refreshExpiresIn": formatTTL(h.tokenServ.RefreshTTL()),
		"user": gin.H{
			"id":    acct.ID,
			"email": acct.Email,
			"name":  acct.Name,
		},
	})
}

// Refresh maneja POST /auth/refresh. Emite solo un access token nuevo; el
// refresh token no rota.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	acct, err := h.authServ.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token expired"})
			return
		case errors.Is(err, service.ErrTokenInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		case errors.Is(err, service.ErrAccountLocked):
			c.JSON(http.StatusLocked, gin.H{"success": false, "message": "account temporarily locked, try again later"})
			return
		default:
			h.logger.Error("refresh failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not refresh"})
			return
		}
	}

	token, err := h.tokenServ.IssueAccessToken(acct)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not issue tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token,
		"expiresIn": formatTTL(h.tokenServ.AccessTTL()),
	})
}

// Logout maneja POST /auth/logout. Sin estado en el servidor: el cliente
// descarta sus tokens y el access vigente expira por su cuenta.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ForgotPassword maneja POST /auth/password/forgot.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid forgot password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	if err := h.authServ.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many requests"})
			return
		default:
			h.logger.Error("forgot password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not process request"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResetPassword maneja POST /auth/password/reset.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Secret      string `json:"secret" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	if err := h.authServ.ResetPassword(c.Request.Context(), req.Email, req.Secret, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrSecretInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid or already used secret"})
			return
		case errors.Is(err, service.ErrSecretExpired):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "secret expired"})
			return
		case errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		default:
			h.logger.Error("reset password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not reset password"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RequestVerification maneja POST /auth/verify/request.
func (h *AuthHandler) RequestVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verification request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	if err := h.authServ.RequestEmailVerification(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many requests"})
			return
		default:
			h.logger.Error("request verification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not process request"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ConfirmVerification maneja POST /auth/verify/confirm.
func (h *AuthHandler) ConfirmVerification(c *gin.Context) {
	var req struct {
		Email  string `json:"email" binding:"required,email"`
		Secret string `json:"secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verification confirm request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}

	if err := h.authServ.ConfirmEmailVerification(c.Request.Context(), req.Email, req.Secret); err != nil {
		switch {
		case errors.Is(err, service.ErrSecretInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid or already used secret"})
			return
		case errors.Is(err, service.ErrSecretExpired):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "secret expired"})
			return
		default:
			h.logger.Error("confirm verification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not verify email"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) issueTokenPair(acct domain.Account) (string, string, error) {
	token, err := h.tokenServ.IssueAccessToken(acct)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := h.tokenServ.IssueRefreshToken(acct)
	if err != nil {
		return "", "", err
	}
	return token, refreshToken, nil
}

// formatTTL expresa una duración como "15m", "12h" o "7d".
func formatTTL(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d >= day && d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}
