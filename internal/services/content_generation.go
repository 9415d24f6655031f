package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/repos"
	"github.com/brandmill/brandmill-backend/internal/types"
)

// GenerateRequest is the API surface for starting a generation job. At most
// one knowledge source may be set; everything except the keyword is optional.
type GenerateRequest struct {
	Keyword        string      `json:"keyword"`
	RuleID         *uuid.UUID  `json:"rule_id"`
	DocumentID     *uuid.UUID  `json:"document_id"`
	KnowledgeSetID *uuid.UUID  `json:"knowledge_set_id"`
	ImageIDs       []uuid.UUID `json:"image_ids"`

	// Request-level image criteria; they override the rule's media settings
	// for this job only.
	ImageCollectionID *uuid.UUID `json:"image_collection_id"`
	ImageTags         []string   `json:"image_tags"`
	ImageCount        int        `json:"image_count"`

	Schema         map[string]any            `json:"schema"`
	SchemaOverride map[string]any            `json:"schema_override"`
	SchemaEntities map[string]map[string]any `json:"schema_entities"`
}

type ContentGenerationService interface {
	Enqueue(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, req GenerateRequest) (*types.JobRun, error)
}

type contentGenerationService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier
}

func NewContentGenerationService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, notify JobNotifier) ContentGenerationService {
	return &contentGenerationService{
		db:     db,
		log:    baseLog.With("service", "ContentGenerationService"),
		repo:   repo,
		notify: notify,
	}
}

// Enqueue validates the request and writes a queued job_run row. The job
// snapshot carries everything the worker needs, so later edits to rules or
// request state never leak into a claimed run.
func (s *contentGenerationService) Enqueue(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, req GenerateRequest) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_user_id")
	}
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, fmt.Errorf("missing keyword")
	}
	if req.DocumentID != nil && req.KnowledgeSetID != nil {
		return nil, fmt.Errorf("document_id and knowledge_set_id are mutually exclusive")
	}

	payload := map[string]any{"keyword": keyword}
	if req.RuleID != nil && *req.RuleID != uuid.Nil {
		payload["rule_id"] = req.RuleID.String()
	}
	if req.DocumentID != nil && *req.DocumentID != uuid.Nil {
		payload["document_id"] = req.DocumentID.String()
	}
	if req.KnowledgeSetID != nil && *req.KnowledgeSetID != uuid.Nil {
		payload["knowledge_set_id"] = req.KnowledgeSetID.String()
	}
	if len(req.ImageIDs) > 0 {
		ids := make([]string, 0, len(req.ImageIDs))
		for _, id := range req.ImageIDs {
			if id != uuid.Nil {
				ids = append(ids, id.String())
			}
		}
		if len(ids) > 0 {
			payload["image_ids"] = ids
		}
	}
	if req.ImageCollectionID != nil && *req.ImageCollectionID != uuid.Nil {
		payload["image_collection_id"] = req.ImageCollectionID.String()
	}
	if tags := trimStrings(req.ImageTags); len(tags) > 0 {
		payload["image_tags"] = tags
	}
	if req.ImageCount > 0 {
		payload["image_count"] = req.ImageCount
	}
	if len(req.Schema) > 0 {
		payload["schema"] = req.Schema
	}
	if len(req.SchemaOverride) > 0 {
		payload["schema_override"] = req.SchemaOverride
	}
	if len(req.SchemaEntities) > 0 {
		payload["schema_entities"] = req.SchemaEntities
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	now := time.Now()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "content.generate",
		EntityType:  "generated_content",
		Status:      "queued",
		Stage:       "queued",
		Progress:    10,
		Message:     "Queued",
		Payload:     datatypes.JSON(payloadJSON),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(ctx, tx, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.log.Info("Generation job enqueued", "job_id", job.ID, "owner_user_id", ownerUserID)
	if s.notify != nil {
		s.notify.JobCreated(ownerUserID, job)
	}
	return job, nil
}

func trimStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
