package unitofwork

import (
	"context"

	"github.com/wildanku/hala-ai/internal/repository/contract"
	"github.com/wildanku/hala-ai/pkg/vectorstore"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	KnowledgeReferenceRepository() contract.KnowledgeReferenceRepository
	JourneyTemplateRepository() contract.JourneyTemplateRepository
	SemanticStore() vectorstore.Store
}
