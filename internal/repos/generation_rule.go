package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/types"
)

type GenerationRuleRepo interface {
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id uuid.UUID, ownerUserID uuid.UUID) (*types.GenerationRule, error)
}

type generationRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRuleRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRuleRepo {
	return &generationRuleRepo{
		db:  db,
		log: baseLog.With("repo", "GenerationRuleRepo"),
	}
}

// GetByIDForUser returns (nil, nil) when the rule does not exist or belongs to
// someone else; the pipeline treats a missing rule as empty settings.
func (r *generationRuleRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id uuid.UUID, ownerUserID uuid.UUID) (*types.GenerationRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || ownerUserID == uuid.Nil {
		return nil, nil
	}
	var rule types.GenerationRule
	err := transaction.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Limit(1).
		Find(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == uuid.Nil {
		return nil, nil
	}
	return &rule, nil
}
