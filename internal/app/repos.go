package app

import (
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/repos"
)

type Repos struct {
	GenerationRule   repos.GenerationRuleRepo
	Document         repos.DocumentRepo
	DocumentChunk    repos.DocumentChunkRepo
	KnowledgeSet     repos.KnowledgeSetRepo
	ImageAsset       repos.ImageAssetRepo
	GeneratedContent repos.GeneratedContentRepo
	JobRun           repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		GenerationRule:   repos.NewGenerationRuleRepo(db, log),
		Document:         repos.NewDocumentRepo(db, log),
		DocumentChunk:    repos.NewDocumentChunkRepo(db, log),
		KnowledgeSet:     repos.NewKnowledgeSetRepo(db, log),
		ImageAsset:       repos.NewImageAssetRepo(db, log),
		GeneratedContent: repos.NewGeneratedContentRepo(db, log),
		JobRun:           repos.NewJobRunRepo(db, log),
	}
}
