package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KnowledgeSet struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (KnowledgeSet) TableName() string { return "knowledge_set" }

type KnowledgeSetDocument struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	KnowledgeSetID uuid.UUID `gorm:"type:uuid;not null;index" json:"knowledge_set_id"`
	DocumentID     uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Position       int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (KnowledgeSetDocument) TableName() string { return "knowledge_set_document" }
