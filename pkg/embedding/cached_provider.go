package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// CachedProvider keeps recent embeddings in process memory and, when a redis
// client is given, in redis so restarts and sibling processes share them.
// Cache failures never fail an embed call.
type CachedProvider struct {
	next  Provider
	local *cache.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

var _ Provider = &CachedProvider{}

func NewCachedProvider(next Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		next:  next,
		local: cache.New(ttl, 10*time.Minute),
		rdb:   rdb,
		ttl:   ttl,
	}
}

func (c *CachedProvider) Name() string {
	return c.next.Name()
}

func (c *CachedProvider) Model() string {
	return c.next.Model()
}

func (c *CachedProvider) key(text string) string {
	sum := sha256.Sum256([]byte(c.next.Name() + "\x00" + c.next.Model() + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

func (c *CachedProvider) lookup(ctx context.Context, key string) ([]float32, bool) {
	if x, found := c.local.Get(key); found {
		return x.([]float32), true
	}
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false
	}
	c.local.Set(key, vec, cache.DefaultExpiration)
	return vec, true
}

func (c *CachedProvider) store(ctx context.Context, key string, vec []float32) {
	c.local.Set(key, vec, cache.DefaultExpiration)
	if c.rdb == nil {
		return
	}
	if raw, err := json.Marshal(vec); err == nil {
		c.rdb.Set(ctx, key, raw, c.ttl)
	}
}

func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return vec, nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, vec)
	return vec, nil
}

// EmbedBatch only sends the misses downstream.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missText []string
	for i, text := range texts {
		if vec, ok := c.lookup(ctx, c.key(text)); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missText = append(missText, text)
	}
	if len(missText) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedBatch(ctx, missText)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missText) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d inputs", c.next.Name(), len(vecs), len(missText))
	}
	for j, vec := range vecs {
		i := missIdx[j]
		out[i] = vec
		c.store(ctx, c.key(texts[i]), vec)
	}
	return out, nil
}
