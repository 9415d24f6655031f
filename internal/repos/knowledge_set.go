package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/types"
)

type KnowledgeSetRepo interface {
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id uuid.UUID, ownerUserID uuid.UUID) (*types.KnowledgeSet, error)
	GetDocuments(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*types.Document, error)
}

type knowledgeSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeSetRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeSetRepo {
	return &knowledgeSetRepo{
		db:  db,
		log: baseLog.With("repo", "KnowledgeSetRepo"),
	}
}

func (r *knowledgeSetRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id uuid.UUID, ownerUserID uuid.UUID) (*types.KnowledgeSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || ownerUserID == uuid.Nil {
		return nil, nil
	}
	var set types.KnowledgeSet
	err := transaction.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Limit(1).
		Find(&set).Error
	if err != nil {
		return nil, err
	}
	if set.ID == uuid.Nil {
		return nil, nil
	}
	return &set, nil
}

// GetDocuments returns the set's member documents ordered by membership position.
func (r *knowledgeSetRepo) GetDocuments(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Document
	if setID == uuid.Nil {
		return out, nil
	}
	err := transaction.WithContext(ctx).
		Model(&types.Document{}).
		Joins("JOIN knowledge_set_document ksd ON ksd.document_id = document.id").
		Where("ksd.knowledge_set_id = ?", setID).
		Order("ksd.position ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
