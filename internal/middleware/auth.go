package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/telemed-lite/pkg/auth"
)

// WSAuthMiddleware проверяет тикет консультации перед WebSocket upgrade.
// Браузерный WebSocket не умеет ставить заголовки, поэтому сначала
// смотрим query-параметр token.
func WSAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			if fromHeader, err := auth.ExtractTokenFromHeader(c.Request); err == nil {
				token = fromHeader
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		if _, err := jwtManager.Verify(token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
