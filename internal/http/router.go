package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fintrack/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	tokenServ *service.TokenService,
	authH *AuthHandler,
	txH *TransactionHandler,
	catH *CategoryHandler,
	budH *BudgetHandler,
	repH *ReportHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)
	auth.POST("/password/forgot", authH.ForgotPassword)
	auth.POST("/password/reset", authH.ResetPassword)
	auth.POST("/verify/request", authH.RequestVerification)
	auth.POST("/verify/confirm", authH.ConfirmVerification)

	// Todo lo demás exige un access token válido.
	api := r.Group("", AuthMiddleware(tokenServ))
	api.GET("/transactions", txH.List)
	api.POST("/transactions", txH.Create)
	api.PUT("/transactions/:id", txH.Update)
	api.DELETE("/transactions/:id", txH.Delete)
	api.GET("/categories", catH.List)
	api.POST("/categories", catH.Create)
	api.DELETE("/categories/:id", catH.Delete)
	api.GET("/budgets", budH.List)
	api.POST("/budgets", budH.Create)
	api.PUT("/budgets/:id", budH.Update)
	api.DELETE("/budgets/:id", budH.Delete)
	api.GET("/dashboard", repH.Dashboard)
	api.GET("/reports/monthly", repH.Monthly)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
