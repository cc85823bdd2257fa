package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// SemanticDocument is one embedded row of a vector collection.
type SemanticDocument struct {
	Collection string            `gorm:"type:varchar(64);primaryKey"`
	DocumentId string            `gorm:"type:varchar(128);primaryKey"`
	Content    string            `gorm:"type:text"`
	Category   string            `gorm:"type:varchar(20);index"`
	Source     string            `gorm:"type:varchar(255)"`
	Language   string            `gorm:"type:varchar(5)"`
	Title      string            `gorm:"type:varchar(255)"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	Embedding  pgvector.Vector   `gorm:"type:vector(768)"` // text-embedding-004, nomic-embed-text and jina v3 @768
	UpdatedAt  time.Time         `gorm:"autoUpdateTime"`
}

func (SemanticDocument) TableName() string {
	return "semantic_documents"
}
