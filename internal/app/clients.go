package app

import (
	"github.com/brandmill/brandmill-backend/internal/clients/llm"
	"github.com/brandmill/brandmill-backend/internal/clients/redis"
	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/storage"
)

type Clients struct {
	LLM    llm.Client
	Files  storage.FileStore
	SSEBus redis.SSEBus
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	llmClient := llm.NewClient(log)
	if !llmClient.Configured() {
		log.Warn("LLM credentials not configured, generation will use fallback content")
	}

	files, err := storage.NewFileStore(log)
	if err != nil {
		return Clients{}, err
	}

	// Without redis every instance broadcasts only to its own SSE clients,
	// which is correct for a single-instance deployment.
	bus, err := redis.NewSSEBus(log)
	if err != nil {
		log.Info("Redis not configured, SSE runs single-instance", "reason", err)
		bus = nil
	}

	return Clients{
		LLM:    llmClient,
		Files:  files,
		SSEBus: bus,
	}, nil
}
