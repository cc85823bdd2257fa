// Package memory is an in-process vectorstore.Store. It backs local
// development (VECTOR_STORE=memory) and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wildanku/hala-ai/pkg/embedding"
	"github.com/wildanku/hala-ai/pkg/vectorstore"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]vectorstore.Record
	order       map[string][]string
}

var _ vectorstore.Store = &Store{}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]vectorstore.Record),
		order:       make(map[string][]string),
	}
}

func (s *Store) Search(ctx context.Context, collection string, vector []float32, topK int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.collections[collection]
	docs := make([]vectorstore.Document, 0, len(records))
	for _, id := range s.order[collection] {
		rec := records[id]
		if !filter.Matches(rec.Category, rec.Language, rec.Metadata) {
			continue
		}
		docs = append(docs, toDocument(rec, 1-embedding.CosineSimilarity(vector, rec.Vector)))
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Distance < docs[j].Distance })
	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs, nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		col, ok := s.collections[rec.Collection]
		if !ok {
			col = make(map[string]vectorstore.Record)
			s.collections[rec.Collection] = col
		}
		if _, exists := col[rec.ID]; !exists {
			s.order[rec.Collection] = append(s.order[rec.Collection], rec.ID)
		}
		col[rec.ID] = rec
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collections[collection]
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		delete(col, id)
		drop[id] = true
	}
	kept := s.order[collection][:0]
	for _, id := range s.order[collection] {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.order[collection] = kept
	return nil
}

func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.collections[collection])), nil
}

func (s *Store) Reset(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	delete(s.order, collection)
	return nil
}

// Clone returns an independent copy of every collection.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := NewStore()
	for name, col := range s.collections {
		cp := make(map[string]vectorstore.Record, len(col))
		for id, rec := range col {
			cp[id] = rec
		}
		out.collections[name] = cp
		out.order[name] = append([]string(nil), s.order[name]...)
	}
	return out
}

func toDocument(rec vectorstore.Record, distance float64) vectorstore.Document {
	return vectorstore.Document{
		ID:         rec.ID,
		Collection: rec.Collection,
		Content:    rec.Content,
		Distance:   distance,
		Category:   rec.Category,
		Source:     rec.Source,
		Language:   rec.Language,
		Title:      rec.Title,
		Metadata:   rec.Metadata,
	}
}
