package service

import (
	"context"
	"testing"

	"github.com/wildanku/hala-ai/pkg/llm"
	"github.com/wildanku/hala-ai/pkg/vectorstore"
	"github.com/wildanku/hala-ai/pkg/vectorstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }

func TestHealth(t *testing.T) {
	resp := NewHealthService(HealthDependencies{}).Health()
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, ServiceName, resp.Service)
}

func TestDetailedHealth(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []vectorstore.Record{
		{ID: "v1", Collection: vectorstore.CollectionVerses, Vector: []float32{1, 0}},
		{ID: "v2", Collection: vectorstore.CollectionVerses, Vector: []float32{0, 1}},
	}))

	gen := &fakeLLM{name: "gemini", healthy: true}
	svc := NewHealthService(HealthDependencies{
		Stages:     []string{"sanitization", "semantic_validation"},
		ScopeCache: readyFlag(true),
		Embedding:  "ollama",
		Generation: gen,
		Store:      store,
	})

	resp := svc.Detailed(context.Background())
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, resp.ScopeCacheReady)
	assert.Equal(t, "gemini", resp.GenerationBackend)
	assert.Equal(t, "ollama", resp.EmbeddingBackend)
	assert.Equal(t, int64(2), resp.Collections[vectorstore.CollectionVerses])
	assert.Equal(t, int64(0), resp.Collections[vectorstore.CollectionTemplates])
	assert.Equal(t, "not_configured", resp.Database)
	assert.Equal(t, "not_configured", resp.Redis)
}

func TestDetailedHealthWithoutGenerationBackend(t *testing.T) {
	resp := NewHealthService(HealthDependencies{ScopeCache: readyFlag(false)}).Detailed(context.Background())
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.ScopeCacheReady)
	assert.Empty(t, resp.GenerationBackend)
}

func TestProviderHealth(t *testing.T) {
	gemini := &fakeLLM{name: "gemini", healthy: true}
	svc := NewHealthService(HealthDependencies{
		Generation: gemini,
		Providers: map[string]llm.Provider{
			"ollama": &fakeLLM{name: "ollama", healthy: false},
			"gemini": gemini,
		},
	})

	got := svc.Providers(context.Background())
	require.Len(t, got, 2)

	assert.Equal(t, "gemini", got[0].Name)
	assert.True(t, got[0].Healthy)
	assert.True(t, got[0].Active)
	assert.Equal(t, "gemini-model", got[0].Model)

	assert.Equal(t, "ollama", got[1].Name)
	assert.False(t, got[1].Healthy)
	assert.False(t, got[1].Active)
}
