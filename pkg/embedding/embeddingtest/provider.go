// Package embeddingtest provides a deterministic embedding.Provider for tests.
package embeddingtest

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/wildanku/hala-ai/pkg/embedding"
)

// Provider returns the vector registered for a text, or a hash-derived one.
type Provider struct {
	mu      sync.Mutex
	vectors map[string][]float32

	Err       error
	BatchErr  error
	Delay     time.Duration
	Dims      int
	ModelName string

	calls      int
	batchCalls int
}

var _ embedding.Provider = &Provider{}

func New() *Provider {
	return &Provider{vectors: make(map[string][]float32), Dims: 8}
}

// Set registers the vector returned for text.
func (p *Provider) Set(text string, vec []float32) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vectors[text] = vec
	return p
}

func (p *Provider) Name() string { return "fake" }

func (p *Provider) Model() string {
	if p.ModelName == "" {
		return "fake-embed"
	}
	return p.ModelName
}

func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *Provider) BatchCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batchCalls
}

func (p *Provider) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(p.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.calls++
	err := p.Err
	p.mu.Unlock()

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return p.lookup(text), nil
}

func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.batchCalls++
	err := p.BatchErr
	p.mu.Unlock()

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.lookup(t)
	}
	return out, nil
}

func (p *Provider) lookup(text string) []float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.vectors[text]; ok {
		return v
	}
	dims := p.Dims
	if dims <= 0 {
		dims = 8
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	vec := make([]float32, dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed>>40)/float32(1<<24) - 0.5
	}
	return vec
}
