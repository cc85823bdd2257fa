// Package vectorstore defines the semantic store the pipeline searches.
package vectorstore

import "context"

// Collections searched by the pipeline and filled by the sync job.
const (
	CollectionVerses     = "quran_verses"
	CollectionHadith     = "hadith"
	CollectionStrategies = "hala_strategies"
	CollectionKnowledge  = "knowledge_references"
	CollectionTemplates  = "journey_templates"
)

// Document is a single search hit. Distance is cosine distance in [0, 2], lower is closer.
type Document struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Content    string            `json:"content"`
	Distance   float64           `json:"distance"`
	Category   string            `json:"category,omitempty"`
	Source     string            `json:"source,omitempty"`
	Language   string            `json:"language,omitempty"`
	Title      string            `json:"title,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Meta returns a metadata value or "".
func (d Document) Meta(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// Record is what gets written into a collection.
type Record struct {
	ID         string
	Collection string
	Content    string
	Category   string
	Source     string
	Language   string
	Title      string
	Metadata   map[string]string
	Vector     []float32
}

// Filter is an equality filter. The keys "category" and "language" match the
// document fields, every other key matches a metadata entry.
type Filter map[string]string

// Store is implemented by the pgvector repository and the in-memory store.
// Search results are ordered by ascending distance.
type Store interface {
	Search(ctx context.Context, collection string, vector []float32, topK int, filter Filter) ([]Document, error)
	Upsert(ctx context.Context, records []Record) error
	Delete(ctx context.Context, collection string, ids ...string) error
	Count(ctx context.Context, collection string) (int64, error)
	Reset(ctx context.Context, collection string) error
}

// Matches reports whether a record satisfies the filter.
func (f Filter) Matches(category, language string, metadata map[string]string) bool {
	for k, v := range f {
		switch k {
		case "category":
			if category != v {
				return false
			}
		case "language":
			if language != v {
				return false
			}
		default:
			if metadata == nil || metadata[k] != v {
				return false
			}
		}
	}
	return true
}
