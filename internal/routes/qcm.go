package routes

import (
	"github.com/gin-gonic/gin"

	"assurbot/internal/handlers"
)

// RegisterQcmRoutes registers the questionnaire routes.
func RegisterQcmRoutes(r *gin.Engine, qcmHandler *handlers.QcmHandler) {
	api := r.Group("/api/qcm")
	api.GET("/questions", qcmHandler.HandleQuestions)
	api.POST("/evaluate", qcmHandler.HandleEvaluate)
}
