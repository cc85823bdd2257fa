package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 10, cfg.Pipeline.MinInputLength)
	assert.Equal(t, 500, cfg.Pipeline.MaxInputLength)
	assert.Equal(t, []string{"id", "en"}, cfg.Pipeline.SupportedLanguages)
	assert.Equal(t, 0.45, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, 5, cfg.Pipeline.RAGTopK)
	assert.True(t, cfg.Pipeline.CrisisEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MIN_INPUT_LENGTH", "20")
	t.Setenv("SEMANTIC_SIMILARITY_THRESHOLD", "0.6")
	t.Setenv("SUPPORTED_LANGUAGES", "id, en ,ms")
	t.Setenv("SAFETY_VALUES_ENABLED", "false")
	t.Setenv("RAG_TOP_K", "not-a-number")
	t.Setenv("PLANNER_MODEL", "gemini-2.5-pro")

	cfg := Load()
	assert.Equal(t, 20, cfg.Pipeline.MinInputLength)
	assert.Equal(t, 0.6, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, []string{"id", "en", "ms"}, cfg.Pipeline.SupportedLanguages)
	assert.False(t, cfg.Pipeline.ValuesEnabled)
	assert.Equal(t, 5, cfg.Pipeline.RAGTopK)
	assert.Equal(t, "gemini-2.5-pro", cfg.Pipeline.PlannerModel)
}
