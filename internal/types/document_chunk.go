package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DocumentChunk is immutable after upload: created by ingestion, deleted only by
// cascading document deletion, never updated.
type DocumentChunk struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document      `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	Index      int            `gorm:"column:index;not null" json:"index"`
	Text       string         `gorm:"column:text;not null" json:"text"`
	Embedding  datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (DocumentChunk) TableName() string { return "document_chunk" }

// EmbeddingVector decodes the stored embedding. Returns nil when the chunk was
// never embedded or the blob is unreadable.
func (c *DocumentChunk) EmbeddingVector() []float32 {
	if c == nil || len(c.Embedding) == 0 {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(c.Embedding, &vec); err != nil {
		return nil
	}
	if len(vec) == 0 {
		return nil
	}
	return vec
}
