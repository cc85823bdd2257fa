package mapper

import (
	"encoding/json"
	"time"

	"github.com/wildanku/hala-ai/internal/entity"
	"github.com/wildanku/hala-ai/internal/model"

	"gorm.io/datatypes"
)

type KnowledgeReferenceMapper struct{}

func NewKnowledgeReferenceMapper() *KnowledgeReferenceMapper {
	return &KnowledgeReferenceMapper{}
}

func (m *KnowledgeReferenceMapper) ToEntity(e *model.KnowledgeReference) *entity.KnowledgeReference {
	if e == nil {
		return nil
	}
	return &entity.KnowledgeReference{
		Id:        e.Id,
		Category:  e.Category,
		Source:    e.Source,
		Title:     e.Title,
		Content:   e.Content,
		ContentAr: e.ContentAr,
		Language:  e.Language,
		Tags:      []string(e.Tags),
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
		UpdatedAt: optionalTime(e.UpdatedAt),
	}
}

func (m *KnowledgeReferenceMapper) ToModel(e *entity.KnowledgeReference) *model.KnowledgeReference {
	if e == nil {
		return nil
	}
	return &model.KnowledgeReference{
		Id:        e.Id,
		Category:  e.Category,
		Source:    e.Source,
		Title:     e.Title,
		Content:   e.Content,
		ContentAr: e.ContentAr,
		Language:  e.Language,
		Tags:      datatypes.JSONSlice[string](e.Tags),
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
		UpdatedAt: derefTime(e.UpdatedAt),
	}
}

func (m *KnowledgeReferenceMapper) ToEntities(refs []*model.KnowledgeReference) []*entity.KnowledgeReference {
	entities := make([]*entity.KnowledgeReference, len(refs))
	for i, r := range refs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

type JourneyTemplateMapper struct{}

func NewJourneyTemplateMapper() *JourneyTemplateMapper {
	return &JourneyTemplateMapper{}
}

func (m *JourneyTemplateMapper) ToEntity(e *model.JourneyTemplate) *entity.JourneyTemplate {
	if e == nil {
		return nil
	}
	return &entity.JourneyTemplate{
		Id:          e.Id,
		GoalKeyword: e.GoalKeyword,
		Tags:        []string(e.Tags),
		Language:    e.Language,
		IsActive:    e.IsActive,
		Status:      e.Status,
		MatchCount:  e.MatchCount,
		FullJSON:    json.RawMessage(e.FullJSON),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   optionalTime(e.UpdatedAt),
	}
}

func (m *JourneyTemplateMapper) ToModel(e *entity.JourneyTemplate) *model.JourneyTemplate {
	if e == nil {
		return nil
	}
	return &model.JourneyTemplate{
		Id:          e.Id,
		GoalKeyword: e.GoalKeyword,
		Tags:        datatypes.JSONSlice[string](e.Tags),
		Language:    e.Language,
		IsActive:    e.IsActive,
		Status:      e.Status,
		MatchCount:  e.MatchCount,
		FullJSON:    datatypes.JSON(e.FullJSON),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   derefTime(e.UpdatedAt),
	}
}

func (m *JourneyTemplateMapper) ToEntities(templates []*model.JourneyTemplate) []*entity.JourneyTemplate {
	entities := make([]*entity.JourneyTemplate, len(templates))
	for i, t := range templates {
		entities[i] = m.ToEntity(t)
	}
	return entities
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
