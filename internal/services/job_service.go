package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/repos"
	"github.com/brandmill/brandmill-backend/internal/types"
)

// JobService is the read/cancel surface the HTTP layer polls job state
// through. The SSE stream is the push channel; this is the pull channel.
type JobService interface {
	GetByIDForUser(ctx context.Context, tx *gorm.DB, jobID, ownerUserID uuid.UUID) (*types.JobRun, error)
	CancelForUser(ctx context.Context, tx *gorm.DB, jobID, ownerUserID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, notify JobNotifier) JobService {
	return &jobService{
		db:     db,
		log:    baseLog.With("service", "JobService"),
		repo:   repo,
		notify: notify,
	}
}

func (s *jobService) GetByIDForUser(ctx context.Context, tx *gorm.DB, jobID, ownerUserID uuid.UUID) (*types.JobRun, error) {
	if jobID == uuid.Nil || ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing job id")
	}
	return s.repo.GetByIDForUser(ctx, tx, jobID, ownerUserID)
}

// CancelForUser flips a non-terminal job to canceled. Workers never overwrite
// a canceled row: every lifecycle write is guarded on status, so a cancel
// that lands mid-run silences the rest of that run.
func (s *jobService) CancelForUser(ctx context.Context, tx *gorm.DB, jobID, ownerUserID uuid.UUID) (*types.JobRun, error) {
	job, err := s.GetByIDForUser(ctx, tx, jobID, ownerUserID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	switch job.Status {
	case "succeeded", "failed", "canceled":
		return job, nil
	}

	ok, err := s.repo.UpdateFieldsUnlessStatus(ctx, tx, jobID, []string{"succeeded", "failed", "canceled"}, map[string]interface{}{
		"status":    "canceled",
		"message":   "Canceled",
		"locked_at": nil,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		job.Status = "canceled"
		job.Message = "Canceled"
		job.LockedAt = nil
		s.log.Info("Job canceled", "job_id", jobID)
	}
	return job, nil
}
