package contract

import (
	"context"

	"github.com/wildanku/hala-ai/internal/entity"
	"github.com/wildanku/hala-ai/internal/repository/specification"
)

type KnowledgeReferenceRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeReference, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeReference, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type JourneyTemplateRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.JourneyTemplate, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.JourneyTemplate, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// IncrementMatchCount records that a template was served instead of a fresh generation.
	IncrementMatchCount(ctx context.Context, specs ...specification.Specification) error
}
