package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GenerationRule is the named configuration bundle a job reads once at start.
// The settings columns are jsonb blobs decoded via ParseSettings; editing a rule
// never affects a job that already claimed it.
type GenerationRule struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Name            string         `gorm:"column:name;not null" json:"name"`
	SourceSettings  datatypes.JSON `gorm:"type:jsonb;column:source_settings" json:"source_settings"`
	StyleSettings   datatypes.JSON `gorm:"type:jsonb;column:style_settings" json:"style_settings"`
	SEOSettings     datatypes.JSON `gorm:"type:jsonb;column:seo_settings" json:"seo_settings"`
	MediaSettings   datatypes.JSON `gorm:"type:jsonb;column:media_settings" json:"media_settings"`
	RankingSettings datatypes.JSON `gorm:"type:jsonb;column:ranking_settings" json:"ranking_settings"`
	SchemaSettings  datatypes.JSON `gorm:"type:jsonb;column:schema_settings" json:"schema_settings"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GenerationRule) TableName() string { return "generation_rule" }
