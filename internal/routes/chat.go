package routes

import (
	"github.com/gin-gonic/gin"

	"assurbot/internal/handlers"
)

// RegisterChatRoutes registers the conversational widget routes.
func RegisterChatRoutes(r *gin.Engine, chatHandler *handlers.ChatHandler) {
	r.GET("/ws/chat", chatHandler.HandleWebSocket)
}
