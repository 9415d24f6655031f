package app

import (
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/jobs"
	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/retrieval"
	"github.com/brandmill/brandmill-backend/internal/services"
	"github.com/brandmill/brandmill-backend/internal/sse"
)

type Services struct {
	JobNotifier       services.JobNotifier
	JobService        services.JobService
	ContentGeneration services.ContentGenerationService
	ImageResolver     services.ImageResolver

	Retrieval   *retrieval.Engine
	JobRegistry *jobs.Registry
	JobWorker   *jobs.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos, sseHub *sse.SSEHub, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	var bus services.SSEBus
	if clients.SSEBus != nil {
		bus = clients.SSEBus
	}
	jobNotifier := services.NewJobNotifier(sseHub, bus)

	jobService := services.NewJobService(db, log, reposet.JobRun, jobNotifier)
	generation := services.NewContentGenerationService(db, log, reposet.JobRun, jobNotifier)
	imageResolver := services.NewImageResolver(log, reposet.ImageAsset)

	engine := retrieval.NewEngine(
		log,
		reposet.Document,
		reposet.DocumentChunk,
		reposet.KnowledgeSet,
		clients.Files,
		clients.LLM,
	)

	registry := jobs.NewRegistry()
	generateHandler := jobs.NewGenerateHandler(
		log,
		reposet.GenerationRule,
		reposet.GeneratedContent,
		imageResolver,
		engine,
		clients.LLM,
	)
	if err := registry.Register(generateHandler); err != nil {
		return Services{}, err
	}

	worker := jobs.NewWorker(db, log, reposet.JobRun, registry, jobNotifier)

	return Services{
		JobNotifier:       jobNotifier,
		JobService:        jobService,
		ContentGeneration: generation,
		ImageResolver:     imageResolver,
		Retrieval:         engine,
		JobRegistry:       registry,
		JobWorker:         worker,
	}, nil
}
