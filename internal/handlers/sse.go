package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/middleware"
	"github.com/brandmill/brandmill-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(baseLog *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{
		log: baseLog.With("handler", "SSE"),
		hub: hub,
	}
}

// GET /api/sse
//
// Holds the connection open and streams the caller's job events. Each user
// is auto-subscribed to their own channel; job notifications broadcast there.
func (h *SSEHandler) Stream(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	client := h.hub.NewSSEClient(userID)
	h.hub.AddChannel(client, userID.String())
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
