package jobs

// Stage names and percents reported over the progress channel. Percents only
// move forward within a run; the fallback path inserts its own stage and
// lands on slightly lower marks until the final persist.
const (
	StageQueued               = "queued"
	StageInitializing         = "initializing"
	StageLoadingKnowledgeBase = "loading_knowledge_base"
	StageLoadingImages        = "loading_images"
	StageBuildingPrompt       = "building_prompt"
	StageAwaitingAIResponse   = "awaiting_ai_response"
	StageGeneratingFallback   = "generating_fallback"
	StageSchemaProcessed      = "schema_processed"
	StagePersisting           = "persisting"
	StageCompleted            = "completed"
)

const (
	pctInitializing         = 5
	pctLoadingKnowledgeBase = 15
	pctLoadingImages        = 30
	pctBuildingPrompt       = 45
	pctAwaitingAIResponse   = 65
	pctGeneratingFallback   = 75

	pctSchemaProcessed         = 82
	pctPersisting              = 85
	pctSchemaProcessedFallback = 78
	pctPersistingFallback      = 80
)
