package scope

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/wildanku/hala-ai/pkg/embedding"

	"golang.org/x/sync/singleflight"
)

// EmbeddingCache holds the descriptor vectors for the lifetime of the process.
// The first callers share one in-flight computation; later callers read the
// published result. A failed computation is not stored, so the next call
// retries. Create one per process and hand it to every classifier.
type EmbeddingCache struct {
	provider    embedding.Provider
	descriptors *DescriptorSet

	mu         sync.RWMutex
	vectors    [][]float32
	generation uint64
	group      singleflight.Group
	computes   int
}

func NewEmbeddingCache(provider embedding.Provider, descriptors *DescriptorSet) *EmbeddingCache {
	return &EmbeddingCache{
		provider:    provider,
		descriptors: descriptors,
	}
}

func (c *EmbeddingCache) Descriptors() *DescriptorSet {
	return c.descriptors
}

// Vectors returns one vector per descriptor, in descriptor order. A waiting
// caller gives up when its own ctx ends; the computation itself continues for
// the others.
func (c *EmbeddingCache) Vectors(ctx context.Context) ([][]float32, error) {
	c.mu.RLock()
	if c.vectors != nil {
		v := c.vectors
		c.mu.RUnlock()
		return v, nil
	}
	gen := c.generation
	c.mu.RUnlock()

	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return c.compute(context.WithoutCancel(ctx), gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([][]float32), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *EmbeddingCache) compute(ctx context.Context, gen uint64) ([][]float32, error) {
	c.mu.RLock()
	if c.vectors != nil && c.generation == gen {
		v := c.vectors
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	texts := c.descriptors.Exemplars()
	vecs, err := c.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed scope descriptors: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embed scope descriptors: got %d vectors for %d descriptors", len(vecs), len(texts))
	}

	c.mu.Lock()
	c.computes++
	if c.generation == gen {
		c.vectors = vecs
	}
	c.mu.Unlock()
	return vecs, nil
}

// Invalidate drops the stored vectors; the next call recomputes them.
func (c *EmbeddingCache) Invalidate() {
	c.mu.Lock()
	c.vectors = nil
	c.generation++
	c.mu.Unlock()
}

// Ready reports whether vectors are currently stored.
func (c *EmbeddingCache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vectors != nil
}

// Computations counts successful descriptor embedding runs.
func (c *EmbeddingCache) Computations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.computes
}
