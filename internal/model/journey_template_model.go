package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JourneyTemplate struct {
	Id          uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GoalKeyword string                      `gorm:"type:varchar(255);not null;index"`
	Tags        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Language    string                      `gorm:"type:varchar(5);not null;default:'id'"`
	IsActive    bool                        `gorm:"default:true"`
	Status      string                      `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	MatchCount  int                         `gorm:"default:0"`
	FullJSON    datatypes.JSON              `gorm:"type:jsonb;column:full_json"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime;index"`
	DeletedAt   gorm.DeletedAt              `gorm:"index"`
}

func (JourneyTemplate) TableName() string {
	return "journey_templates"
}
