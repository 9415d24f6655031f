package app

import (
	"github.com/brandmill/brandmill-backend/internal/handlers"
	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/sse"
)

type Handlers struct {
	Generation *handlers.GenerationHandler
	Jobs       *handlers.JobsHandler
	SSE        *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *sse.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Generation: handlers.NewGenerationHandler(services.ContentGeneration),
		Jobs:       handlers.NewJobsHandler(services.JobService),
		SSE:        handlers.NewSSEHandler(log, sseHub),
	}
}
