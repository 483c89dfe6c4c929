package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"assurbot/internal/metrics"
	"assurbot/internal/services/qcm"
)

// QcmHandler serves the coverage-needs questionnaire.
type QcmHandler struct {
	qcmService *qcm.Service
	metrics    *metrics.Metrics
	logger     *logrus.Logger
}

// NewQcmHandler creates the questionnaire handler.
func NewQcmHandler(qcmService *qcm.Service, m *metrics.Metrics, logger *logrus.Logger) *QcmHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &QcmHandler{qcmService: qcmService, metrics: m, logger: logger}
}

// HandleQuestions returns the question set for rendering.
func (h *QcmHandler) HandleQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": h.qcmService.Questions()})
}

// evaluateRequest is the questionnaire submission body.
type evaluateRequest struct {
	Answers qcm.Submission `json:"answers" binding:"required"`
	Contact qcm.Contact    `json:"contact"`
}

// HandleEvaluate scores a submission and returns the recommendation.
func (h *QcmHandler) HandleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.qcmService.Submit(req.Answers, req.Contact)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.metrics != nil {
		h.metrics.QcmEvaluations.Inc()
	}
	c.JSON(http.StatusOK, result)
}
