package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedContent is written exactly once per successful job, inside one
// transaction. SchemaTypes is always empty or a subset of the enabled types the
// job's merged schema config resolved to.
type GeneratedContent struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	RuleID          *uuid.UUID     `gorm:"type:uuid;column:rule_id;index" json:"rule_id,omitempty"`
	Keyword         string         `gorm:"column:keyword;not null" json:"keyword"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	MetaDescription string         `gorm:"column:meta_description" json:"meta_description"`
	Body            string         `gorm:"column:body;not null" json:"body"`
	ImageIDs        datatypes.JSON `gorm:"type:jsonb;column:image_ids" json:"image_ids,omitempty"`
	SchemaPayload   datatypes.JSON `gorm:"type:jsonb;column:schema_payload" json:"schema_payload,omitempty"`
	SchemaTypes     datatypes.JSON `gorm:"type:jsonb;column:schema_types" json:"schema_types,omitempty"`
	Details         datatypes.JSON `gorm:"type:jsonb;column:details" json:"details,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GeneratedContent) TableName() string { return "generated_content" }
