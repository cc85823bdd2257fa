package memory

import (
	"context"
	"testing"

	"github.com/wildanku/hala-ai/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Upsert(context.Background(), []vectorstore.Record{
		{ID: "far", Collection: vectorstore.CollectionHadith, Language: "id", Vector: []float32{0, 1}},
		{ID: "near", Collection: vectorstore.CollectionHadith, Language: "id", Vector: []float32{1, 0.1}, Metadata: map[string]string{"status": "APPROVED"}},
		{ID: "exact", Collection: vectorstore.CollectionHadith, Language: "en", Vector: []float32{1, 0}},
		{ID: "other", Collection: vectorstore.CollectionVerses, Vector: []float32{1, 0}},
	}))
	return s
}

func TestSearchOrdersByDistance(t *testing.T) {
	s := seed(t)

	docs, err := s.Search(context.Background(), vectorstore.CollectionHadith, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "exact", docs[0].ID)
	assert.Equal(t, "near", docs[1].ID)
	assert.Equal(t, "far", docs[2].ID)
	assert.InDelta(t, 0.0, docs[0].Distance, 1e-9)
	assert.InDelta(t, 1.0, docs[2].Distance, 1e-9)

	docs, err = s.Search(context.Background(), vectorstore.CollectionHadith, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSearchFilters(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	docs, err := s.Search(ctx, vectorstore.CollectionHadith, []float32{1, 0}, 10, vectorstore.Filter{"language": "id"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = s.Search(ctx, vectorstore.CollectionHadith, []float32{1, 0}, 10, vectorstore.Filter{"status": "APPROVED"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "near", docs[0].ID)
	assert.Equal(t, "APPROVED", docs[0].Meta("status"))
}

func TestUpsertReplacesAndDeleteRemoves(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []vectorstore.Record{
		{ID: "far", Collection: vectorstore.CollectionHadith, Content: "updated", Vector: []float32{1, 0}},
	}))
	n, err := s.Count(ctx, vectorstore.CollectionHadith)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, s.Delete(ctx, vectorstore.CollectionHadith, "exact", "missing"))
	docs, err := s.Search(ctx, vectorstore.CollectionHadith, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "updated", docs[0].Content)

	require.NoError(t, s.Reset(ctx, vectorstore.CollectionHadith))
	n, err = s.Count(ctx, vectorstore.CollectionHadith)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Count(ctx, vectorstore.CollectionVerses)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSearchHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seed(t).Search(ctx, vectorstore.CollectionHadith, []float32{1, 0}, 5, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloneIsIndependent(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	cp := s.Clone()

	require.NoError(t, s.Reset(ctx, vectorstore.CollectionHadith))
	require.NoError(t, cp.Delete(ctx, vectorstore.CollectionVerses, "other"))

	n, err := cp.Count(ctx, vectorstore.CollectionHadith)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = s.Count(ctx, vectorstore.CollectionVerses)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	docs, err := cp.Search(ctx, vectorstore.CollectionHadith, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, "exact", docs[0].ID)
}
