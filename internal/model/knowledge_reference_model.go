package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeReference struct {
	Id        uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Category  string                      `gorm:"type:varchar(20);not null;index"` // VERSE, HADITH, DOA, STRATEGY, STORY
	Source    string                      `gorm:"type:varchar(255)"`
	Title     string                      `gorm:"type:varchar(255)"`
	Content   string                      `gorm:"type:text;not null"`
	ContentAr string                      `gorm:"type:text"`
	Language  string                      `gorm:"type:varchar(5);not null;default:'id'"`
	Tags      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Status    string                      `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime;index"`
	DeletedAt gorm.DeletedAt              `gorm:"index"`
}

func (KnowledgeReference) TableName() string {
	return "knowledge_references"
}
