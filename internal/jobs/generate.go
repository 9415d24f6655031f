package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brandmill/brandmill-backend/internal/clients/llm"
	"github.com/brandmill/brandmill-backend/internal/llmjson"
	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/prompt"
	"github.com/brandmill/brandmill-backend/internal/repos"
	"github.com/brandmill/brandmill-backend/internal/retrieval"
	"github.com/brandmill/brandmill-backend/internal/schema"
	"github.com/brandmill/brandmill-backend/internal/services"
	"github.com/brandmill/brandmill-backend/internal/types"
)

// JobTypeContentGenerate is the queue's job_type for article generation.
const JobTypeContentGenerate = "content.generate"

// GenerateHandler runs one content generation end to end: rule load,
// knowledge retrieval, image selection, prompt composition, model call (or
// deterministic fallback), schema extraction, and a single content insert.
// Degraded inputs never fail the run; only a missing keyword or a failed
// persist does.
type GenerateHandler struct {
	log      *logger.Logger
	rules    repos.GenerationRuleRepo
	contents repos.GeneratedContentRepo
	images   services.ImageResolver
	engine   *retrieval.Engine
	llm      llm.Client
}

func NewGenerateHandler(
	baseLog *logger.Logger,
	rules repos.GenerationRuleRepo,
	contents repos.GeneratedContentRepo,
	images services.ImageResolver,
	engine *retrieval.Engine,
	llmClient llm.Client,
) *GenerateHandler {
	return &GenerateHandler{
		log:      baseLog.With("handler", JobTypeContentGenerate),
		rules:    rules,
		contents: contents,
		images:   images,
		engine:   engine,
		llm:      llmClient,
	}
}

func (h *GenerateHandler) Type() string { return JobTypeContentGenerate }

func (h *GenerateHandler) Run(jc *Context) error {
	ctx := jc.Ctx
	owner := jc.Job.OwnerUserID

	// Every stage transition doubles as a cancellation check: a false return
	// means the job was canceled and the run stops before the next stage.
	if !jc.Progress(StageInitializing, pctInitializing, "Preparing job") {
		return nil
	}
	keyword := strings.TrimSpace(jc.PayloadString("keyword"))
	if keyword == "" {
		jc.Fail(StageInitializing, fmt.Errorf("missing keyword"))
		return nil
	}

	// The rule is read once here; later edits never affect this run.
	var rule *types.GenerationRule
	if ruleID, ok := jc.PayloadUUID("rule_id"); ok {
		r, err := h.rules.GetByIDForUser(ctx, nil, ruleID, owner)
		if err != nil {
			h.log.Warn("Rule load failed, continuing without rule", "rule_id", ruleID, "error", err)
		}
		rule = r
	}
	settings := rule.ParseSettings()

	if !jc.Progress(StageLoadingKnowledgeBase, pctLoadingKnowledgeBase, "Loading knowledge base") {
		return nil
	}
	scope := retrieval.Scope{OwnerUserID: owner}
	if id, ok := jc.PayloadUUID("document_id"); ok {
		scope.DocumentID = &id
	}
	if id, ok := jc.PayloadUUID("knowledge_set_id"); ok {
		scope.KnowledgeSetID = &id
	}
	knowledge := &retrieval.Result{Mode: retrieval.ModeNone}
	if !scope.Empty() {
		knowledge = h.engine.FetchContext(ctx, nil, scope, retrievalQuery(keyword, settings))
	}

	if !jc.Progress(StageLoadingImages, pctLoadingImages, "Selecting images") {
		return nil
	}
	assets, err := h.images.Resolve(ctx, nil, owner, jc.PayloadUUIDs("image_ids"), requestMedia(settings.Media, jc))
	if err != nil {
		h.log.Warn("Image resolution failed, continuing without images", "error", err)
		assets = nil
	}

	if !jc.Progress(StageBuildingPrompt, pctBuildingPrompt, "Composing prompt") {
		return nil
	}
	merged := schema.Merge(
		configFromRaw(ruleSchemaRaw(rule)),
		configFromPayload(jc.Payload()["schema"]),
		configFromPayload(jc.Payload()["schema_override"]),
	)
	entities := schemaEntities(settings, knowledge)
	for name, fields := range payloadEntities(jc.Payload()["schema_entities"]) {
		entities[name] = fields
	}
	section := schema.BuildPromptSection(merged, entities)
	imageRefs := promptImageRefs(assets)
	promptText := prompt.Compose(prompt.Input{
		Keyword:          keyword,
		Rule:             ruleSettingsOrNil(rule, settings),
		KnowledgeContent: knowledge.Content,
		Images:           imageRefs,
		SchemaSection:    section,
		SchemaActive:     merged.Active(),
	})

	if !jc.Progress(StageAwaitingAIResponse, pctAwaitingAIResponse, "Waiting for the model") {
		return nil
	}
	parsed, contentFallback, fallbackCause := h.completeAndParse(jc, promptText)

	title, metaDesc, body := contentFields(parsed)
	if !contentFallback && (title == "" || body == "") {
		contentFallback = true
		fallbackCause = "incomplete model reply"
	}
	if contentFallback {
		if !jc.Progress(StageGeneratingFallback, pctGeneratingFallback, "Generating fallback content") {
			return nil
		}
		fb := FallbackContent(keyword, settings, knowledge, imageRefs)
		title, metaDesc, body = fb.Title, fb.MetaDescription, fb.Body
	}

	// Schema extraction has its own fallback track, independent of content
	// fallback: a schema failure is recorded, never fatal.
	payloads, typeNames, schemaReason := schema.ExtractPayload(parsed, merged)
	schemaPct, persistPct := pctSchemaProcessed, pctPersisting
	if contentFallback {
		schemaPct, persistPct = pctSchemaProcessedFallback, pctPersistingFallback
	}
	if !jc.Progress(StageSchemaProcessed, schemaPct, "Structured data resolved") {
		return nil
	}

	if !jc.Progress(StagePersisting, persistPct, "Saving content") {
		return nil
	}
	record := &types.GeneratedContent{
		ID:              uuid.New(),
		OwnerUserID:     owner,
		RuleID:          ruleIDOrNil(rule),
		Keyword:         keyword,
		Title:           title,
		MetaDescription: metaDesc,
		Body:            body,
		ImageIDs:        toJSON(assetIDs(assets)),
		SchemaPayload:   toJSON(payloads),
		SchemaTypes:     toJSON(typeNames),
		Details: toJSON(map[string]any{
			"retrieval_mode":         knowledge.Mode,
			"retrieval_truncated":    knowledge.Truncated,
			"retrieval_source":       knowledge.Source,
			"chunk_stats":            knowledge.ChunkStats,
			"content_fallback":       contentFallback,
			"content_fallback_cause": fallbackCause,
			"schema_fallback_reason": schemaReason,
			"image_count":            len(assets),
		}),
	}
	if _, err = h.contents.Create(ctx, jc.DB, []*types.GeneratedContent{record}); err != nil {
		jc.Fail(StagePersisting, fmt.Errorf("persist content: %w", err))
		return nil
	}

	jc.Succeed(StageCompleted, map[string]any{
		"content_id":             record.ID,
		"title":                  title,
		"content_fallback":       contentFallback,
		"retrieval_mode":         knowledge.Mode,
		"schema_types":           typeNames,
		"schema_fallback_reason": schemaReason,
	})
	return nil
}

// completeAndParse calls the model and recovers a JSON object from the reply.
// Any failure along the way flips the run onto the fallback path.
func (h *GenerateHandler) completeAndParse(jc *Context, promptText string) (map[string]any, bool, string) {
	if h.llm == nil || !h.llm.Configured() {
		return nil, true, "model not configured"
	}
	reply, err := h.llm.Complete(jc.Ctx, promptText)
	if err != nil {
		h.log.Warn("Model call failed, using fallback content", "job_id", jc.Job.ID, "error", err)
		return nil, true, "model call failed"
	}
	parsed, err := llmjson.ExtractObject(reply)
	if err != nil {
		h.log.Warn("Model reply unparseable, using fallback content", "job_id", jc.Job.ID, "error", err)
		return nil, true, "unparseable model reply"
	}
	return parsed, false, ""
}

// retrievalQuery is what the vector tier embeds: the keyword plus whatever
// rule terms sharpen it.
func retrievalQuery(keyword string, settings types.RuleSettings) string {
	parts := []string{keyword}
	if settings.Name != "" {
		parts = append(parts, settings.Name)
	}
	if settings.Source.PrimaryKeyword != "" && settings.Source.PrimaryKeyword != keyword {
		parts = append(parts, settings.Source.PrimaryKeyword)
	}
	return strings.Join(parts, " ")
}

// requestMedia overlays request-level image criteria from the job payload
// onto the rule's media settings; request values win.
func requestMedia(base types.MediaSettings, jc *Context) types.MediaSettings {
	media := base
	if id, ok := jc.PayloadUUID("image_collection_id"); ok {
		media.CollectionID = &id
	}
	if tags := jc.PayloadStrings("image_tags"); len(tags) > 0 {
		media.Tags = tags
	}
	if n, ok := jc.PayloadInt("image_count"); ok && n > 0 {
		media.ImageCount = n
	}
	return media
}

// payloadEntities decodes request-supplied schema entity metadata
// (name -> field map); non-object entries are dropped.
func payloadEntities(v any) map[string]map[string]any {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := map[string]map[string]any{}
	for name, fields := range m {
		fm, ok := fields.(map[string]any)
		if !ok || len(fm) == 0 {
			continue
		}
		out[name] = fm
	}
	return out
}

// schemaEntities collects the per-source field excerpts the schema prompt
// section grounds the model with.
func schemaEntities(settings types.RuleSettings, knowledge *retrieval.Result) map[string]map[string]any {
	out := map[string]map[string]any{}
	src := map[string]any{}
	if settings.Source.Brand != "" {
		src["brand"] = settings.Source.Brand
	}
	if settings.Source.Product != "" {
		src["product"] = settings.Source.Product
	}
	if settings.Source.Campaign != "" {
		src["campaign"] = settings.Source.Campaign
	}
	if len(src) > 0 {
		out["the generation rule"] = src
	}
	if knowledge != nil && len(knowledge.SchemaMetadata) > 0 {
		out["the knowledge base"] = knowledge.SchemaMetadata
	}
	return out
}

func contentFields(parsed map[string]any) (title, metaDesc, body string) {
	get := func(key string) string {
		if parsed == nil {
			return ""
		}
		s, _ := parsed[key].(string)
		return strings.TrimSpace(s)
	}
	return get("title"), get("meta_description"), get("body")
}

func promptImageRefs(assets []*types.ImageAsset) []prompt.ImageRef {
	if len(assets) == 0 {
		return nil
	}
	out := make([]prompt.ImageRef, len(assets))
	for i, a := range assets {
		out[i] = prompt.ImageRef{Name: a.Name, Tags: a.TagList()}
	}
	return out
}

func assetIDs(assets []*types.ImageAsset) []string {
	if len(assets) == 0 {
		return nil
	}
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.ID.String()
	}
	return out
}

func ruleIDOrNil(rule *types.GenerationRule) *uuid.UUID {
	if rule == nil {
		return nil
	}
	id := rule.ID
	return &id
}

func ruleSettingsOrNil(rule *types.GenerationRule, settings types.RuleSettings) *types.RuleSettings {
	if rule == nil {
		return nil
	}
	return &settings
}

func ruleSchemaRaw(rule *types.GenerationRule) []byte {
	if rule == nil {
		return nil
	}
	return rule.SchemaSettings
}

func configFromRaw(raw []byte) *schema.Config {
	return schema.ParseConfig(raw)
}

// configFromPayload re-marshals a decoded payload object so it goes through
// the same parser as the stored layers.
func configFromPayload(v any) *schema.Config {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return schema.ParseConfig(raw)
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return nil
		}
	case map[string]any:
		if len(val) == 0 {
			return nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
