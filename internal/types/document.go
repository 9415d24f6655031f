package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	StoragePath    string         `gorm:"column:storage_path" json:"storage_path"`
	MimeType       string         `gorm:"column:mime_type" json:"mime_type"`
	Embedding      datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding,omitempty"`
	SchemaMetadata datatypes.JSON `gorm:"type:jsonb;column:schema_metadata" json:"schema_metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }
