package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/types"
)

type ImageAssetRepo interface {
	GetByIDsForUser(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, ownerUserID uuid.UUID) ([]*types.ImageAsset, error)
	RandomByCollection(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, collectionID uuid.UUID, limit int) ([]*types.ImageAsset, error)
	RandomByUser(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, limit int) ([]*types.ImageAsset, error)
}

type imageAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImageAssetRepo(db *gorm.DB, baseLog *logger.Logger) ImageAssetRepo {
	return &imageAssetRepo{
		db:  db,
		log: baseLog.With("repo", "ImageAssetRepo"),
	}
}

func (r *imageAssetRepo) GetByIDsForUser(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, ownerUserID uuid.UUID) ([]*types.ImageAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ImageAsset
	if len(ids) == 0 || ownerUserID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ? AND owner_user_id = ?", ids, ownerUserID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RandomByCollection samples in random DB order. limit <= 0 means no cap.
func (r *imageAssetRepo) RandomByCollection(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, collectionID uuid.UUID, limit int) ([]*types.ImageAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ImageAsset
	if ownerUserID == uuid.Nil || collectionID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(ctx).
		Where("owner_user_id = ? AND collection_id = ?", ownerUserID, collectionID).
		Order("RANDOM()")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *imageAssetRepo) RandomByUser(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, limit int) ([]*types.ImageAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ImageAsset
	if ownerUserID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("RANDOM()")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
