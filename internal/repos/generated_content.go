package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/types"
)

type GeneratedContentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.GeneratedContent) ([]*types.GeneratedContent, error)
}

type generatedContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedContentRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedContentRepo {
	return &generatedContentRepo{
		db:  db,
		log: baseLog.With("repo", "GeneratedContentRepo"),
	}
}

func (r *generatedContentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.GeneratedContent) ([]*types.GeneratedContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.GeneratedContent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
