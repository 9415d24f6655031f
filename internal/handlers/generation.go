package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandmill/brandmill-backend/internal/middleware"
	"github.com/brandmill/brandmill-backend/internal/services"
)

type GenerationHandler struct {
	generation services.ContentGenerationService
}

func NewGenerationHandler(generation services.ContentGenerationService) *GenerationHandler {
	return &GenerationHandler{generation: generation}
}

// POST /api/content/generate
//
// Accepted immediately; the body carries the queued job to poll or watch
// over SSE.
func (h *GenerationHandler) Generate(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	job, err := h.generation.Enqueue(c.Request.Context(), nil, userID, req)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "enqueue_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}
