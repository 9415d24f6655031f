package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/types"
)

type DocumentChunkRepo interface {
	GetByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uuid.UUID) ([]*types.DocumentChunk, error)
}

type documentChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentChunkRepo(db *gorm.DB, baseLog *logger.Logger) DocumentChunkRepo {
	return &documentChunkRepo{
		db:  db,
		log: baseLog.With("repo", "DocumentChunkRepo"),
	}
}

// GetByDocumentIDs returns chunks in stable scope order: the caller's document
// order is preserved per document by ordering on (document_id, index).
func (r *documentChunkRepo) GetByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uuid.UUID) ([]*types.DocumentChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DocumentChunk
	if len(documentIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("document_id IN ?", documentIDs).
		Order(`document_id ASC, "index" ASC`).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
