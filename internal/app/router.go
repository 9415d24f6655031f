package app

import (
	"github.com/gin-gonic/gin"

	"github.com/brandmill/brandmill-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowedOrigins:    cfg.AllowedOrigins,
		RequestUser:       mw.RequestUser,
		GenerationHandler: handlerset.Generation,
		JobsHandler:       handlerset.Jobs,
		SSEHandler:        handlerset.SSE,
	})
}
