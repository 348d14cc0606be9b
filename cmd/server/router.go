package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/telemed-lite/internal/handlers"
	"github.com/thereayou/telemed-lite/internal/middleware"
	"github.com/thereayou/telemed-lite/pkg/auth"
)

func APIEndpoints(r *gin.Engine, wsH *handlers.WebSocketHandler, jwtMgr *auth.JWTManager) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Единственный namespace консультаций
	wsGroup := r.Group("/ws")
	if jwtMgr != nil {
		wsGroup.Use(middleware.WSAuthMiddleware(jwtMgr))
	}
	wsGroup.GET("/consultations", wsH.HandleWebSocket)
}
