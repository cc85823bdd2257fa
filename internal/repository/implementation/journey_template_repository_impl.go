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

type JourneyTemplateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.JourneyTemplateMapper
}

func NewJourneyTemplateRepository(db *gorm.DB) contract.JourneyTemplateRepository {
	return &JourneyTemplateRepositoryImpl{
		db:     db,
		mapper: mapper.NewJourneyTemplateMapper(),
	}
}

func (r *JourneyTemplateRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.JourneyTemplate, error) {
	var m model.JourneyTemplate
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *JourneyTemplateRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.JourneyTemplate, error) {
	var models []*model.JourneyTemplate
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *JourneyTemplateRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.JourneyTemplate{}).Count(&count).Error
	return count, err
}

func (r *JourneyTemplateRepositoryImpl) IncrementMatchCount(ctx context.Context, specs ...specification.Specification) error {
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.JourneyTemplate{}), specs...)
	return query.UpdateColumn("match_count", gorm.Expr("match_count + ?", 1)).Error
}
