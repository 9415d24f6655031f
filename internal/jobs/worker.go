package jobs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/repos"
	"github.com/brandmill/brandmill-backend/internal/services"
	"github.com/brandmill/brandmill-backend/internal/types"
	"github.com/brandmill/brandmill-backend/internal/utils"
)

type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *Registry
	notify   services.JobNotifier
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *Registry, notify services.JobNotifier) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
	}
}

// Start launches WORKER_CONCURRENCY claim loops. Each loop polls once a
// second; SKIP LOCKED in the claim query keeps loops off each other's rows,
// so concurrency is safe within and across instances.
func (w *Worker) Start(ctx context.Context) {
	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 2, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	maxAttempts := utils.GetEnvAsInt("JOB_MAX_ATTEMPTS", 5, w.log)
	retryDelay := time.Duration(utils.GetEnvAsInt("JOB_RETRY_DELAY_SECONDS", 30, w.log)) * time.Second
	staleRunning := time.Duration(utils.GetEnvAsInt("JOB_STALE_RUNNING_SECONDS", 120, w.log)) * time.Second

	w.log.Info("Starting job workers",
		"concurrency", concurrency,
		"max_attempts", maxAttempts,
		"retry_delay", retryDelay.String(),
		"stale_running", staleRunning.String(),
	)
	for i := 0; i < concurrency; i++ {
		go w.loop(ctx, maxAttempts, retryDelay, staleRunning)
	}
}

func (w *Worker) loop(ctx context.Context, maxAttempts int, retryDelay, staleRunning time.Duration) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(ctx, w.db, maxAttempts, retryDelay, staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.dispatch(ctx, job)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, job *types.JobRun) {
	jc := NewContext(ctx, w.db, job, w.repo, w.notify)
	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type", "job_type", job.JobType, "job_id", job.ID)
		jc.Fail("dispatch", &missingHandlerError{JobType: job.JobType})
		return
	}

	// A panicking handler must not take the worker loop down with it.
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
			jc.Fail("panic", &panicError{Val: r})
		}
	}()

	if err := h.Run(jc); err != nil {
		w.log.Warn("Job handler returned error", "job_id", job.ID, "job_type", job.JobType, "error", err)
		jc.Fail(job.Stage, err)
	}
}

type missingHandlerError struct{ JobType string }

func (e *missingHandlerError) Error() string {
	return "no handler registered for job_type=" + e.JobType
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
