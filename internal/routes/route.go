// Package routes registers the HTTP routes of the service.
package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assurbot/internal/handlers"
)

// RegisterRoutes registers all routes on the engine.
func RegisterRoutes(r *gin.Engine, chatHandler *handlers.ChatHandler, qcmHandler *handlers.QcmHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterChatRoutes(r, chatHandler)
	RegisterQcmRoutes(r, qcmHandler)
}
