package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Catalog statuses. Rejected rows are never indexed.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusRejected  = "REJECTED"
)

type KnowledgeReference struct {
	Id        uuid.UUID
	Category  string
	Source    string
	Title     string
	Content   string
	ContentAr string
	Language  string
	Tags      []string
	Status    string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type JourneyTemplate struct {
	Id          uuid.UUID
	GoalKeyword string
	Tags        []string
	Language    string
	IsActive    bool
	Status      string
	MatchCount  int
	FullJSON    json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
