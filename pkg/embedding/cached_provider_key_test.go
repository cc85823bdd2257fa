package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type staticProvider struct {
	name, model string
}

func (p staticProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (p staticProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, p, texts)
}

func (p staticProvider) Name() string  { return p.name }
func (p staticProvider) Model() string { return p.model }

func TestCachedProviderKeySeparatesModels(t *testing.T) {
	small := NewCachedProvider(staticProvider{"gateway", "embed-small"}, nil, time.Hour)
	large := NewCachedProvider(staticProvider{"gateway", "embed-large"}, nil, time.Hour)
	again := NewCachedProvider(staticProvider{"gateway", "embed-small"}, nil, time.Hour)

	assert.NotEqual(t, small.key("tahajud"), large.key("tahajud"))
	assert.Equal(t, small.key("tahajud"), again.key("tahajud"))
	assert.NotEqual(t, small.key("tahajud"), small.key("dzikir"))
	assert.Equal(t, "embed-large", large.Model())
}
