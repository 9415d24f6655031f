package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/repos"
	"github.com/brandmill/brandmill-backend/internal/types"
)

// ImageResolver picks the images a generation job places into the article.
// Precedence: explicitly requested ids win outright; otherwise the rule's
// media settings drive a random sample from a collection or the user's whole
// library, optionally filtered by tag overlap.
type ImageResolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, explicitIDs []uuid.UUID, media types.MediaSettings) ([]*types.ImageAsset, error)
}

type imageResolver struct {
	log    *logger.Logger
	assets repos.ImageAssetRepo
}

func NewImageResolver(baseLog *logger.Logger, assets repos.ImageAssetRepo) ImageResolver {
	return &imageResolver{
		log:    baseLog.With("service", "ImageResolver"),
		assets: assets,
	}
}

func (s *imageResolver) Resolve(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, explicitIDs []uuid.UUID, media types.MediaSettings) ([]*types.ImageAsset, error) {
	if ownerUserID == uuid.Nil {
		return nil, nil
	}

	if len(explicitIDs) > 0 {
		found, err := s.assets.GetByIDsForUser(ctx, tx, explicitIDs, ownerUserID)
		if err != nil {
			return nil, err
		}
		// Preserve the requested order; ids the user does not own are skipped.
		byID := make(map[uuid.UUID]*types.ImageAsset, len(found))
		for _, a := range found {
			byID[a.ID] = a
		}
		out := make([]*types.ImageAsset, 0, len(explicitIDs))
		for _, id := range explicitIDs {
			if a, ok := byID[id]; ok {
				out = append(out, a)
			}
		}
		return out, nil
	}

	// Tag filtering happens in-process, so sample uncapped when tags are set
	// and apply the count after the filter.
	limit := media.ImageCount
	if len(media.Tags) > 0 {
		limit = 0
	}

	var pool []*types.ImageAsset
	var err error
	if media.CollectionID != nil && *media.CollectionID != uuid.Nil {
		pool, err = s.assets.RandomByCollection(ctx, tx, ownerUserID, *media.CollectionID, limit)
	} else if media.ImageCount > 0 || len(media.Tags) > 0 {
		pool, err = s.assets.RandomByUser(ctx, tx, ownerUserID, limit)
	}
	if err != nil {
		return nil, err
	}

	if len(media.Tags) > 0 {
		pool = filterByTags(pool, media.Tags)
	}
	if media.ImageCount > 0 && len(pool) > media.ImageCount {
		pool = pool[:media.ImageCount]
	}
	return pool, nil
}

// filterByTags keeps assets sharing at least one tag with wanted.
func filterByTags(assets []*types.ImageAsset, wanted []string) []*types.ImageAsset {
	want := make(map[string]bool, len(wanted))
	for _, t := range wanted {
		if t != "" {
			want[t] = true
		}
	}
	if len(want) == 0 {
		return assets
	}
	var out []*types.ImageAsset
	for _, a := range assets {
		for _, t := range a.TagList() {
			if want[t] {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
