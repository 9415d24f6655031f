package jobs

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/types"
)

type fakeRuleRepo struct {
	rule *types.GenerationRule
}

func (r *fakeRuleRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, ownerUserID uuid.UUID) (*types.GenerationRule, error) {
	if r.rule != nil && r.rule.ID == id && r.rule.OwnerUserID == ownerUserID {
		return r.rule, nil
	}
	return nil, nil
}

type fakeContentRepo struct {
	rows []*types.GeneratedContent
}

func (r *fakeContentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.GeneratedContent) ([]*types.GeneratedContent, error) {
	r.rows = append(r.rows, rows...)
	return rows, nil
}

type fakeResolver struct {
	assets      []*types.ImageAsset
	explicitIDs []uuid.UUID
	media       types.MediaSettings
}

func (f *fakeResolver) Resolve(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, explicitIDs []uuid.UUID, media types.MediaSettings) ([]*types.ImageAsset, error) {
	f.explicitIDs = explicitIDs
	f.media = media
	return f.assets, nil
}

type fakeLLM struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeLLM) Configured() bool      { return f.reply != "" || f.err != nil }
func (f *fakeLLM) EmbedConfigured() bool { return false }

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func (f *fakeLLM) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	return nil, nil
}

func testHandler(rules *fakeRuleRepo, contents *fakeContentRepo, llmClient *fakeLLM) *GenerateHandler {
	log, _ := logger.New("dev")
	return NewGenerateHandler(log, rules, contents, &fakeResolver{}, nil, llmClient)
}

func runJob(t *testing.T, h *GenerateHandler, payload string) (*types.JobRun, *fakeJobRunRepo, *fakeNotifier) {
	t.Helper()
	repo := &fakeJobRunRepo{status: "running"}
	notify := &fakeNotifier{}
	job := newTestJob(payload)
	jc := NewContext(context.Background(), nil, job, repo, notify)
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return job, repo, notify
}

func TestGenerateKeywordOnlyFallsBack(t *testing.T) {
	contents := &fakeContentRepo{}
	h := testHandler(&fakeRuleRepo{}, contents, &fakeLLM{})

	job, _, notify := runJob(t, h, `{"keyword":"garden sheds"}`)

	if job.Status != "succeeded" || job.Progress != 100 {
		t.Fatalf("status=%q progress=%d", job.Status, job.Progress)
	}
	if len(contents.rows) != 1 {
		t.Fatalf("expected 1 persisted row, got %d", len(contents.rows))
	}
	row := contents.rows[0]
	if row.Keyword != "garden sheds" || row.Title == "" || row.Body == "" {
		t.Errorf("incomplete content row: %+v", row)
	}
	if row.RuleID != nil {
		t.Error("rule id set for keyword-only job")
	}
	if len(row.SchemaTypes) != 0 {
		t.Errorf("schema types persisted without schema config: %s", row.SchemaTypes)
	}

	var details map[string]any
	if err := json.Unmarshal(row.Details, &details); err != nil {
		t.Fatalf("details decode: %v", err)
	}
	if details["content_fallback"] != true {
		t.Error("content_fallback not recorded")
	}
	if details["retrieval_mode"] != "none" {
		t.Errorf("retrieval_mode = %v", details["retrieval_mode"])
	}

	assertStageFlow(t, notify, []string{
		StageInitializing, StageLoadingKnowledgeBase, StageLoadingImages,
		StageBuildingPrompt, StageAwaitingAIResponse, StageGeneratingFallback,
		StageSchemaProcessed, StagePersisting,
	})
}

func TestGenerateAIPath(t *testing.T) {
	owner := uuid.New()
	rule := &types.GenerationRule{
		ID:             uuid.New(),
		OwnerUserID:    owner,
		Name:           "Spring Launch",
		SourceSettings: datatypes.JSON(`{"brand":"Acme","product":"Widget Pro"}`),
		SchemaSettings: datatypes.JSON(`{"enabled":true,"enabledTypes":["Article","Product"]}`),
	}
	reply := `{"title":"The Widget Story","meta_description":"All about widgets.","body":"# Widgets\n\nLots of prose.","schema_payloads":{"types":["Article","FAQPage"],"payloads":{"Article":{"headline":"The Widget Story"},"FAQPage":{"q":"ignored"}}}}`
	contents := &fakeContentRepo{}
	llmClient := &fakeLLM{reply: reply}
	h := testHandler(&fakeRuleRepo{rule: rule}, contents, llmClient)

	repo := &fakeJobRunRepo{status: "running"}
	notify := &fakeNotifier{}
	job := newTestJob(`{"keyword":"widgets","rule_id":"` + rule.ID.String() + `"}`)
	job.OwnerUserID = owner
	jc := NewContext(context.Background(), nil, job, repo, notify)
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if llmClient.calls != 1 {
		t.Errorf("llm called %d times", llmClient.calls)
	}
	if job.Status != "succeeded" {
		t.Fatalf("status=%q error=%q", job.Status, job.Error)
	}
	row := contents.rows[0]
	if row.Title != "The Widget Story" || row.MetaDescription != "All about widgets." {
		t.Errorf("model fields not used: %+v", row)
	}
	if row.RuleID == nil || *row.RuleID != rule.ID {
		t.Error("rule id not persisted")
	}

	// FAQPage is not in the enabled set and must be dropped.
	var schemaTypes []string
	if err := json.Unmarshal(row.SchemaTypes, &schemaTypes); err != nil {
		t.Fatalf("schema types decode: %v", err)
	}
	if len(schemaTypes) != 1 || schemaTypes[0] != "Article" {
		t.Errorf("schema types = %v", schemaTypes)
	}

	var details map[string]any
	_ = json.Unmarshal(row.Details, &details)
	if details["content_fallback"] != false {
		t.Error("AI path marked as fallback")
	}

	for _, ev := range notify.events {
		if ev.Stage == StageGeneratingFallback {
			t.Error("fallback stage emitted on AI path")
		}
	}
}

func TestGenerateUnparseableReplyFallsBack(t *testing.T) {
	contents := &fakeContentRepo{}
	h := testHandler(&fakeRuleRepo{}, contents, &fakeLLM{reply: "I cannot produce JSON, sorry."})

	job, _, _ := runJob(t, h, `{"keyword":"widgets"}`)

	if job.Status != "succeeded" {
		t.Fatalf("status=%q", job.Status)
	}
	var details map[string]any
	_ = json.Unmarshal(contents.rows[0].Details, &details)
	if details["content_fallback"] != true {
		t.Error("unparseable reply should fall back")
	}
	if details["content_fallback_cause"] != "unparseable model reply" {
		t.Errorf("cause = %v", details["content_fallback_cause"])
	}
}

func TestGenerateMissingKeywordFails(t *testing.T) {
	contents := &fakeContentRepo{}
	h := testHandler(&fakeRuleRepo{}, contents, &fakeLLM{})

	job, _, notify := runJob(t, h, `{}`)

	if job.Status != "failed" || job.Stage != StageInitializing {
		t.Errorf("status=%q stage=%q", job.Status, job.Stage)
	}
	if len(contents.rows) != 0 {
		t.Error("content persisted for failed job")
	}
	last := notify.events[len(notify.events)-1]
	if last.Kind != "failed" {
		t.Errorf("last event = %+v", last)
	}
}

func TestGenerateCanceledJobStopsRun(t *testing.T) {
	contents := &fakeContentRepo{}
	llmClient := &fakeLLM{reply: `{"title":"t","meta_description":"m","body":"b"}`}
	h := testHandler(&fakeRuleRepo{}, contents, llmClient)

	repo := &fakeJobRunRepo{status: "canceled"}
	notify := &fakeNotifier{}
	job := newTestJob(`{"keyword":"widgets"}`)
	jc := NewContext(context.Background(), nil, job, repo, notify)
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if llmClient.calls != 0 {
		t.Errorf("model called %d times for a canceled job", llmClient.calls)
	}
	if len(contents.rows) != 0 {
		t.Errorf("content persisted for a canceled job: %d rows", len(contents.rows))
	}
	if len(repo.updates) != 0 {
		t.Errorf("canceled job wrote %d repo updates", len(repo.updates))
	}
	if len(notify.events) != 0 {
		t.Errorf("canceled job emitted notifications: %+v", notify.events)
	}
}

func TestGenerateRequestImageCriteriaOverrideRule(t *testing.T) {
	owner := uuid.New()
	rule := &types.GenerationRule{
		ID:            uuid.New(),
		OwnerUserID:   owner,
		Name:          "Catalog",
		MediaSettings: datatypes.JSON(`{"image_count":6,"image_source":"collection","tags":["stock"]}`),
	}
	resolver := &fakeResolver{}
	log, _ := logger.New("dev")
	h := NewGenerateHandler(log, &fakeRuleRepo{rule: rule}, &fakeContentRepo{}, resolver, nil, &fakeLLM{})

	collectionID := uuid.New()
	repo := &fakeJobRunRepo{status: "running"}
	job := newTestJob(`{"keyword":"widgets","rule_id":"` + rule.ID.String() + `",` +
		`"image_collection_id":"` + collectionID.String() + `",` +
		`"image_tags":["hero"," product "],"image_count":2}`)
	job.OwnerUserID = owner
	jc := NewContext(context.Background(), nil, job, repo, &fakeNotifier{})
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if resolver.media.CollectionID == nil || *resolver.media.CollectionID != collectionID {
		t.Errorf("collection id not taken from payload: %v", resolver.media.CollectionID)
	}
	if len(resolver.media.Tags) != 2 || resolver.media.Tags[0] != "hero" || resolver.media.Tags[1] != "product" {
		t.Errorf("payload tags should replace rule tags: %v", resolver.media.Tags)
	}
	if resolver.media.ImageCount != 2 {
		t.Errorf("image count = %d, want payload value 2", resolver.media.ImageCount)
	}
	// Rule fields the payload does not override pass through untouched.
	if resolver.media.ImageSource != "collection" {
		t.Errorf("image source = %q", resolver.media.ImageSource)
	}
}

func TestGenerateRuleMediaWithoutPayloadOverrides(t *testing.T) {
	owner := uuid.New()
	rule := &types.GenerationRule{
		ID:            uuid.New(),
		OwnerUserID:   owner,
		MediaSettings: datatypes.JSON(`{"image_count":3,"tags":["stock"]}`),
	}
	resolver := &fakeResolver{}
	log, _ := logger.New("dev")
	h := NewGenerateHandler(log, &fakeRuleRepo{rule: rule}, &fakeContentRepo{}, resolver, nil, &fakeLLM{})

	repo := &fakeJobRunRepo{status: "running"}
	job := newTestJob(`{"keyword":"widgets","rule_id":"` + rule.ID.String() + `"}`)
	job.OwnerUserID = owner
	jc := NewContext(context.Background(), nil, job, repo, &fakeNotifier{})
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if resolver.media.ImageCount != 3 || len(resolver.media.Tags) != 1 || resolver.media.Tags[0] != "stock" {
		t.Errorf("rule media not passed through: %+v", resolver.media)
	}
	if resolver.media.CollectionID != nil {
		t.Errorf("collection id invented: %v", resolver.media.CollectionID)
	}
}

func TestGenerateRequestEntitiesReachPrompt(t *testing.T) {
	llmClient := &fakeLLM{reply: `{"title":"t","meta_description":"m","body":"b"}`}
	h := testHandler(&fakeRuleRepo{}, &fakeContentRepo{}, llmClient)

	runJob(t, h, `{"keyword":"widgets","schema":{"enabledTypes":["Product"]},`+
		`"schema_entities":{"the product catalog":{"sku":"W-100"}}}`)

	if llmClient.calls != 1 {
		t.Fatalf("model called %d times", llmClient.calls)
	}
	if !strings.Contains(llmClient.prompt, "Known data from the product catalog") {
		t.Errorf("entity section missing from prompt:\n%.400s", llmClient.prompt)
	}
	if !strings.Contains(llmClient.prompt, "sku: W-100") {
		t.Errorf("entity field missing from prompt:\n%.400s", llmClient.prompt)
	}
}

func TestPayloadEntities(t *testing.T) {
	got := payloadEntities(map[string]any{
		"catalog": map[string]any{"sku": "W-100"},
		"empty":   map[string]any{},
		"junk":    "not an object",
	})
	if len(got) != 1 {
		t.Fatalf("payloadEntities kept %d entries, want 1: %v", len(got), got)
	}
	if got["catalog"]["sku"] != "W-100" {
		t.Errorf("catalog entry = %v", got["catalog"])
	}
	if payloadEntities(nil) != nil {
		t.Error("nil input should yield nil")
	}
	if payloadEntities("junk") != nil {
		t.Error("non-object input should yield nil")
	}
}

// assertStageFlow checks the progress events hit the expected stages in order
// with strictly increasing percents.
func assertStageFlow(t *testing.T, notify *fakeNotifier, want []string) {
	t.Helper()
	var stages []string
	lastPct := -1
	for _, ev := range notify.events {
		if ev.Kind != "progress" {
			continue
		}
		stages = append(stages, ev.Stage)
		if ev.Progress <= lastPct {
			t.Errorf("progress went backwards at %q: %d after %d", ev.Stage, ev.Progress, lastPct)
		}
		lastPct = ev.Progress
	}
	if strings.Join(stages, ",") != strings.Join(want, ",") {
		t.Errorf("stage flow\n got %v\nwant %v", stages, want)
	}
}

func TestRetrievalQuery(t *testing.T) {
	settings := types.RuleSettings{
		Name:   "Spring Launch",
		Source: types.SourceSettings{PrimaryKeyword: "widgets"},
	}
	if got := retrievalQuery("best widgets", settings); got != "best widgets Spring Launch widgets" {
		t.Errorf("retrievalQuery = %q", got)
	}
	// Primary keyword identical to the job keyword is not repeated.
	if got := retrievalQuery("widgets", settings); got != "widgets Spring Launch" {
		t.Errorf("retrievalQuery = %q", got)
	}
	if got := retrievalQuery("widgets", types.RuleSettings{}); got != "widgets" {
		t.Errorf("retrievalQuery = %q", got)
	}
}

func TestConfigFromPayload(t *testing.T) {
	cfg := configFromPayload(map[string]any{"enabledTypes": []any{"Article"}})
	if cfg == nil || len(cfg.EnabledTypes) != 1 || cfg.EnabledTypes[0] != "Article" {
		t.Errorf("configFromPayload = %+v", cfg)
	}
	if configFromPayload(nil) != nil {
		t.Error("nil payload should yield nil config")
	}
	if configFromPayload("not an object") != nil {
		t.Error("non-object payload should yield nil config")
	}
	if configFromPayload(map[string]any{}) != nil {
		t.Error("empty object should yield nil config")
	}
}

func TestToJSONEmptyValues(t *testing.T) {
	if toJSON(nil) != nil {
		t.Error("toJSON(nil) should be nil")
	}
	if toJSON([]string{}) != nil {
		t.Error("toJSON(empty slice) should be nil")
	}
	if toJSON(map[string]any{}) != nil {
		t.Error("toJSON(empty map) should be nil")
	}
	if got := toJSON([]string{"a"}); string(got) != `["a"]` {
		t.Errorf("toJSON = %s", got)
	}
}
