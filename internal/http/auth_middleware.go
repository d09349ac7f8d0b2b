package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fintrack/internal/service"
)

const authClaimsKey = "auth_claims"

// AuthMiddleware valida access tokens y guarda los claims en el contexto.
func AuthMiddleware(tokenServ *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenServ == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "tokens not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokenServ.ParseAccessToken(token)
		if err != nil {
			message := "invalid token"
			if errors.Is(err, service.ErrTokenExpired) {
				message = "token expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// GetAuthClaims obtiene los claims del token desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

// accountIDFromContext devuelve el id de cuenta autenticado o corta con 401.
func accountIDFromContext(c *gin.Context) (string, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok || claims.AccountID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
		c.Abort()
		return "", false
	}
	return claims.AccountID, true
}
