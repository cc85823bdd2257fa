package implementation

import (
	"context"
	"fmt"

	"github.com/wildanku/hala-ai/internal/model"
	"github.com/wildanku/hala-ai/pkg/vectorstore"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SemanticStoreImpl keeps every collection in one pgvector table keyed by
// (collection, document_id).
type SemanticStoreImpl struct {
	db *gorm.DB
}

var _ vectorstore.Store = &SemanticStoreImpl{}

func NewSemanticStore(db *gorm.DB) *SemanticStoreImpl {
	return &SemanticStoreImpl{db: db}
}

type scoredDocument struct {
	model.SemanticDocument
	Distance float64
}

func (r *SemanticStoreImpl) Search(ctx context.Context, collection string, vector []float32, topK int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	if topK <= 0 {
		topK = 5
	}

	query := r.db.WithContext(ctx).
		Model(&model.SemanticDocument{}).
		Select("semantic_documents.*, embedding <=> ? AS distance", pgvector.NewVector(vector)).
		Where("collection = ?", collection)

	for key, value := range filter {
		switch key {
		case "category", "language":
			query = query.Where(key+" = ?", value)
		default:
			query = query.Where("metadata ->> ? = ?", key, value)
		}
	}

	var rows []scoredDocument
	if err := query.Order("distance ASC").Limit(topK).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	docs := make([]vectorstore.Document, len(rows))
	for i, row := range rows {
		docs[i] = vectorstore.Document{
			ID:         row.DocumentId,
			Collection: row.Collection,
			Content:    row.Content,
			Distance:   row.Distance,
			Category:   row.Category,
			Source:     row.Source,
			Language:   row.Language,
			Title:      row.Title,
			Metadata:   stringMap(row.Metadata),
		}
	}
	return docs, nil
}

func (r *SemanticStoreImpl) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*model.SemanticDocument, len(records))
	for i, rec := range records {
		meta := make(datatypes.JSONMap, len(rec.Metadata))
		for k, v := range rec.Metadata {
			meta[k] = v
		}
		models[i] = &model.SemanticDocument{
			Collection: rec.Collection,
			DocumentId: rec.ID,
			Content:    rec.Content,
			Category:   rec.Category,
			Source:     rec.Source,
			Language:   rec.Language,
			Title:      rec.Title,
			Metadata:   meta,
			Embedding:  pgvector.NewVector(rec.Vector),
		}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "document_id"}},
			UpdateAll: true,
		}).
		CreateInBatches(models, 100).Error
}

func (r *SemanticStoreImpl) Delete(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("collection = ? AND document_id IN ?", collection, ids).
		Delete(&model.SemanticDocument{}).Error
}

func (r *SemanticStoreImpl) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.SemanticDocument{}).
		Where("collection = ?", collection).
		Count(&count).Error
	return count, err
}

func (r *SemanticStoreImpl) Reset(ctx context.Context, collection string) error {
	return r.db.WithContext(ctx).
		Where("collection = ?", collection).
		Delete(&model.SemanticDocument{}).Error
}

func stringMap(m datatypes.JSONMap) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
