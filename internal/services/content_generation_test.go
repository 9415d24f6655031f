package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/types"
)

type fakeJobRunRepo struct {
	created []*types.JobRun
	updates []map[string]interface{}
	status  string
}

func (r *fakeJobRunRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*types.JobRun) ([]*types.JobRun, error) {
	r.created = append(r.created, jobs...)
	return jobs, nil
}

func (r *fakeJobRunRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, ownerUserID uuid.UUID) (*types.JobRun, error) {
	for _, j := range r.created {
		if j.ID == id && j.OwnerUserID == ownerUserID {
			return j, nil
		}
	}
	return nil, nil
}

func (r *fakeJobRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.JobRun, error) {
	return nil, nil
}

func (r *fakeJobRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	r.updates = append(r.updates, updates)
	return nil
}

func (r *fakeJobRunRepo) UpdateFieldsUnlessStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, disallowed []string, updates map[string]interface{}) (bool, error) {
	for _, s := range disallowed {
		if r.status == s {
			return false, nil
		}
	}
	r.updates = append(r.updates, updates)
	return true, nil
}

func (r *fakeJobRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

type fakeNotifier struct {
	created int
}

func (n *fakeNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) { n.created++ }
func (n *fakeNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
}
func (n *fakeNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
}
func (n *fakeNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {}

func newGenService(repo *fakeJobRunRepo, notify *fakeNotifier) ContentGenerationService {
	log, _ := logger.New("dev")
	return NewContentGenerationService(nil, log, repo, notify)
}

func TestEnqueueMinimalRequest(t *testing.T) {
	repo := &fakeJobRunRepo{}
	notify := &fakeNotifier{}
	svc := newGenService(repo, notify)
	owner := uuid.New()

	job, err := svc.Enqueue(context.Background(), nil, owner, GenerateRequest{Keyword: "  garden sheds  "})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != "queued" || job.Stage != "queued" || job.Progress != 10 {
		t.Errorf("job not queued: %+v", job)
	}
	if job.JobType != "content.generate" {
		t.Errorf("job_type = %q", job.JobType)
	}
	if notify.created != 1 {
		t.Errorf("JobCreated notifications = %d", notify.created)
	}

	var payload map[string]any
	if err := json.Unmarshal(repo.created[0].Payload, &payload); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if payload["keyword"] != "garden sheds" {
		t.Errorf("keyword not trimmed: %v", payload["keyword"])
	}
	for _, absent := range []string{"rule_id", "document_id", "knowledge_set_id", "image_ids", "schema"} {
		if _, ok := payload[absent]; ok {
			t.Errorf("payload should not contain %q", absent)
		}
	}
}

func TestEnqueueFullRequest(t *testing.T) {
	repo := &fakeJobRunRepo{}
	svc := newGenService(repo, &fakeNotifier{})
	ruleID, docID := uuid.New(), uuid.New()
	img, collection := uuid.New(), uuid.New()

	_, err := svc.Enqueue(context.Background(), nil, uuid.New(), GenerateRequest{
		Keyword:           "widgets",
		RuleID:            &ruleID,
		DocumentID:        &docID,
		ImageIDs:          []uuid.UUID{img, uuid.Nil},
		ImageCollectionID: &collection,
		ImageTags:         []string{" hero ", "", "product"},
		ImageCount:        4,
		Schema:            map[string]any{"enabledTypes": []string{"Article"}},
		SchemaEntities:    map[string]map[string]any{"the catalog": {"sku": "W-100"}},
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	var payload map[string]any
	_ = json.Unmarshal(repo.created[0].Payload, &payload)
	if payload["rule_id"] != ruleID.String() || payload["document_id"] != docID.String() {
		t.Errorf("ids not in payload: %v", payload)
	}
	ids, _ := payload["image_ids"].([]any)
	if len(ids) != 1 || ids[0] != img.String() {
		t.Errorf("nil image id not filtered: %v", ids)
	}
	if _, ok := payload["schema"]; !ok {
		t.Error("schema layer missing from payload")
	}
	if payload["image_collection_id"] != collection.String() {
		t.Errorf("image_collection_id = %v", payload["image_collection_id"])
	}
	tags, _ := payload["image_tags"].([]any)
	if len(tags) != 2 || tags[0] != "hero" || tags[1] != "product" {
		t.Errorf("image tags not trimmed and filtered: %v", tags)
	}
	if payload["image_count"] != float64(4) {
		t.Errorf("image_count = %v", payload["image_count"])
	}
	entities, _ := payload["schema_entities"].(map[string]any)
	catalog, _ := entities["the catalog"].(map[string]any)
	if catalog["sku"] != "W-100" {
		t.Errorf("schema_entities not carried: %v", payload["schema_entities"])
	}
}

func TestEnqueueValidation(t *testing.T) {
	svc := newGenService(&fakeJobRunRepo{}, &fakeNotifier{})
	docID, setID := uuid.New(), uuid.New()

	tests := []struct {
		name  string
		owner uuid.UUID
		req   GenerateRequest
	}{
		{"missing owner", uuid.Nil, GenerateRequest{Keyword: "x"}},
		{"missing keyword", uuid.New(), GenerateRequest{Keyword: "   "}},
		{"both knowledge sources", uuid.New(), GenerateRequest{Keyword: "x", DocumentID: &docID, KnowledgeSetID: &setID}},
	}
	for _, tt := range tests {
		if _, err := svc.Enqueue(context.Background(), nil, tt.owner, tt.req); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestCancelForUser(t *testing.T) {
	repo := &fakeJobRunRepo{}
	log, _ := logger.New("dev")
	svc := NewJobService(nil, log, repo, &fakeNotifier{})
	owner := uuid.New()

	job := &types.JobRun{ID: uuid.New(), OwnerUserID: owner, Status: "running"}
	repo.created = append(repo.created, job)

	got, err := svc.CancelForUser(context.Background(), nil, job.ID, owner)
	if err != nil {
		t.Fatalf("CancelForUser: %v", err)
	}
	if got.Status != "canceled" {
		t.Errorf("status = %q", got.Status)
	}
	if len(repo.updates) != 1 {
		t.Fatalf("updates = %d", len(repo.updates))
	}

	// A terminal job is returned untouched.
	done := &types.JobRun{ID: uuid.New(), OwnerUserID: owner, Status: "succeeded"}
	repo.created = append(repo.created, done)
	got, err = svc.CancelForUser(context.Background(), nil, done.ID, owner)
	if err != nil || got.Status != "succeeded" {
		t.Errorf("terminal cancel: %v %v", got, err)
	}
	if len(repo.updates) != 1 {
		t.Error("terminal cancel wrote an update")
	}

	// Unknown job id yields (nil, nil); the handler turns that into a 404.
	got, err = svc.CancelForUser(context.Background(), nil, uuid.New(), owner)
	if err != nil || got != nil {
		t.Errorf("unknown job: %v %v", got, err)
	}
}
