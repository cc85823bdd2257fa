package unitofwork

import (
	"context"
	"fmt"

	"github.com/wildanku/hala-ai/internal/repository/contract"
	"github.com/wildanku/hala-ai/internal/repository/implementation"
	"github.com/wildanku/hala-ai/pkg/vectorstore"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // set between Begin and Commit/Rollback
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) KnowledgeReferenceRepository() contract.KnowledgeReferenceRepository {
	return implementation.NewKnowledgeReferenceRepository(u.getDB())
}

func (u *UnitOfWorkImpl) JourneyTemplateRepository() contract.JourneyTemplateRepository {
	return implementation.NewJourneyTemplateRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SemanticStore() vectorstore.Store {
	return implementation.NewSemanticStore(u.getDB())
}
