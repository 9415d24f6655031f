package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImageCollection struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ImageCollection) TableName() string { return "image_collection" }

type ImageAsset struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	CollectionID *uuid.UUID     `gorm:"type:uuid;column:collection_id;index" json:"collection_id,omitempty"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	StorageKey   string         `gorm:"column:storage_key" json:"storage_key"`
	AltText      string         `gorm:"column:alt_text" json:"alt_text"`
	Tags         datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ImageAsset) TableName() string { return "image_asset" }

// TagList decodes the stored tag array; unreadable blobs decode to nil.
func (a *ImageAsset) TagList() []string {
	if a == nil || len(a.Tags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(a.Tags, &tags); err != nil {
		return nil
	}
	return tags
}
