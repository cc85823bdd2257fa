package implementation

import (
	"context"
	"errors"

	"github.com/wildanku/hala-ai/internal/entity"
	"github.com/wildanku/hala-ai/internal/mapper"
	"github.com/wildanku/hala-ai/internal/model"
	"github.com/wildanku/hala-ai/internal/repository/contract"
	"github.com/wildanku/hala-ai/internal/repository/specification"

	"gorm.io/gorm"
)

type KnowledgeReferenceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeReferenceMapper
}

func NewKnowledgeReferenceRepository(db *gorm.DB) contract.KnowledgeReferenceRepository {
	return &KnowledgeReferenceRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeReferenceMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeReferenceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeReference, error) {
	var m model.KnowledgeReference
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *KnowledgeReferenceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeReference, error) {
	var models []*model.KnowledgeReference
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *KnowledgeReferenceRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KnowledgeReference{}).Count(&count).Error
	return count, err
}
