package scope

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/wildanku/hala-ai/pkg/embedding"
	"github.com/wildanku/hala-ai/pkg/embedding/embeddingtest"
	"github.com/wildanku/hala-ai/pkg/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const dims = 7

func basis(i int) []float32 {
	v := make([]float32, dims)
	v[i] = 1
	return v
}

// towards returns a unit vector whose cosine with basis(i) is sim.
func towards(i int, sim float64) []float32 {
	v := make([]float32, dims)
	v[i] = float32(sim)
	v[dims-1] = float32(math.Sqrt(1 - sim*sim))
	return v
}

// fixture maps every descriptor exemplar to its own basis vector.
func fixture() (*embeddingtest.Provider, *DescriptorSet) {
	set := DefaultDescriptorSet()
	p := embeddingtest.New()
	for i, ex := range set.Exemplars() {
		p.Set(ex, basis(i))
	}
	return p, set
}

func TestDefaultDescriptorSet(t *testing.T) {
	set := DefaultDescriptorSet()
	assert.NotEmpty(t, set.Version)
	assert.Equal(t, []string{
		"worship", "mental_health", "productivity",
		"marriage_family", "character_building", "spiritual_growth",
	}, set.Names())
	assert.Contains(t, set.Keywords, "islamic")

	cat, ok := set.MatchKeyword("Bagaimana cara istiqomah SHOLAT subuh")
	assert.True(t, ok)
	assert.Equal(t, "islamic", cat)

	_, ok = set.MatchKeyword("recommend a good pizza place")
	assert.False(t, ok)
}

func TestLoadDescriptorSetRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", `version: "1"`},
		{"missing exemplar", "scopes:\n  - name: worship\n"},
		{"duplicate", "scopes:\n  - name: a\n    exemplar: x\n  - name: a\n    exemplar: y\n"},
		{"not yaml", "scopes: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDescriptorSet([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{0.3, -1.2, 4, 0.5}
	b := []float32{2, 0.1, -0.7, 3}

	assert.InDelta(t, embedding.CosineSimilarity(a, b), embedding.CosineSimilarity(b, a), 1e-12)
	assert.InDelta(t, 1.0, embedding.CosineSimilarity(a, a), 1e-9)
	assert.Equal(t, 0.0, embedding.CosineSimilarity(a, []float32{0, 0, 0, 0}))
	assert.Equal(t, 0.0, embedding.CosineSimilarity(a, []float32{1, 2}))
	assert.InDelta(t, -1.0, embedding.CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-12)
}

func TestClassifyTieGoesToFirst(t *testing.T) {
	descriptors := [][]float32{{1, 0}, {0, 1}, {1, 0}}
	idx, score := Classify([]float32{1, 0}, descriptors)
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 1.0, score, 1e-12)

	// equidistant from the first two
	idx, _ = Classify([]float32{1, 1}, descriptors)
	assert.Equal(t, 0, idx)

	idx, _ = Classify([]float32{1, 0}, nil)
	assert.Equal(t, -1, idx)
}

func TestScopeStage(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		vector    []float32
		wantKind  pipeline.OutcomeKind
		wantScope string
	}{
		{
			name:      "clear worship request",
			input:     "saya ingin rajin tahajud",
			vector:    towards(0, 0.72),
			wantKind:  pipeline.Passed,
			wantScope: "worship",
		},
		{
			name:     "below threshold",
			input:    "what is the capital of france",
			vector:   towards(2, 0.30),
			wantKind: pipeline.Rejected,
		},
		{
			name:      "borderline with keyword",
			input:     "help me stop procrastination at work",
			vector:    towards(2, 0.47),
			wantKind:  pipeline.Passed,
			wantScope: "productivity",
		},
		{
			name:     "borderline without keyword",
			input:    "recommend a pizza topping",
			vector:   towards(2, 0.47),
			wantKind: pipeline.Rejected,
		},
		{
			name:      "above strict threshold needs no keyword",
			input:     "recommend a pizza topping",
			vector:    towards(3, 0.55),
			wantKind:  pipeline.Passed,
			wantScope: "marriage_family",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, set := fixture()
			p.Set(tt.input, tt.vector)
			stage := NewStage(p, NewEmbeddingCache(p, set), DefaultOptions())

			ec := pipeline.NewExecutionContext(pipeline.Request{Text: tt.input})
			out := stage.Process(context.Background(), ec)

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Len(t, ec.ScopeScores, 1)
			if tt.wantKind == pipeline.Rejected {
				assert.Equal(t, pipeline.CodeOutOfScope, out.Code)
				assert.Empty(t, ec.DetectedScope)
				return
			}
			assert.Equal(t, tt.wantScope, ec.DetectedScope)
			assert.Contains(t, ec.ScopeScores, tt.wantScope)
		})
	}
}

func TestNewStageOptionDefaults(t *testing.T) {
	p, set := fixture()
	cache := NewEmbeddingCache(p, set)

	tests := []struct {
		name       string
		opts       Options
		wantThresh float64
		wantStrict float64
	}{
		{"zero values use defaults", Options{}, 0.45, 0.50},
		{"zero strict keeps the keyword gate", Options{Threshold: 0.40}, 0.40, 0.50},
		{"explicit strict below threshold is clamped", Options{Threshold: 0.45, StrictThreshold: 0.30}, 0.45, 0.45},
		{"threshold above default strict", Options{Threshold: 0.60}, 0.60, 0.60},
		{"explicit values kept", Options{Threshold: 0.40, StrictThreshold: 0.70}, 0.40, 0.70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStage(p, cache, tt.opts)
			assert.Equal(t, tt.wantThresh, s.opts.Threshold)
			assert.Equal(t, tt.wantStrict, s.opts.StrictThreshold)
		})
	}

	// borderline score without a keyword is still rejected when only Threshold is set
	p.Set("recommend a pizza topping", towards(2, 0.47))
	out := NewStage(p, cache, Options{Threshold: 0.45}).
		Process(context.Background(), pipeline.NewExecutionContext(pipeline.Request{Text: "recommend a pizza topping"}))
	assert.Equal(t, pipeline.Rejected, out.Kind)
}

func TestScopeStageProviderFailure(t *testing.T) {
	p, set := fixture()
	p.Err = errors.New("embedding backend down")
	stage := NewStage(p, NewEmbeddingCache(p, set), DefaultOptions())

	out := stage.Process(context.Background(), pipeline.NewExecutionContext(pipeline.Request{Text: "saya ingin berdoa"}))
	assert.Equal(t, pipeline.Errored, out.Kind)
	assert.Equal(t, pipeline.CodeInternal, out.Code)
}

func TestEmbeddingCacheComputesOnceUnderConcurrency(t *testing.T) {
	// opencensus, pulled in through genai, starts its view worker in init
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	p, set := fixture()
	p.Delay = 50 * time.Millisecond
	cache := NewEmbeddingCache(p, set)

	var wg sync.WaitGroup
	results := make([][][]float32, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Vectors(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Len(t, results[i], len(set.Scopes))
	}
	assert.Equal(t, 1, p.BatchCalls())
	assert.Equal(t, 1, cache.Computations())
	assert.True(t, cache.Ready())

	// served from memory afterwards
	_, err := cache.Vectors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.BatchCalls())
}

func TestEmbeddingCacheInvalidate(t *testing.T) {
	p, set := fixture()
	cache := NewEmbeddingCache(p, set)

	_, err := cache.Vectors(context.Background())
	require.NoError(t, err)

	cache.Invalidate()
	assert.False(t, cache.Ready())

	_, err = cache.Vectors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, p.BatchCalls())
}

func TestEmbeddingCacheDoesNotStoreFailures(t *testing.T) {
	p, set := fixture()
	p.BatchErr = errors.New("quota exceeded")
	cache := NewEmbeddingCache(p, set)

	_, err := cache.Vectors(context.Background())
	require.Error(t, err)
	assert.False(t, cache.Ready())

	p.BatchErr = nil
	vecs, err := cache.Vectors(context.Background())
	require.NoError(t, err)
	assert.Len(t, vecs, len(set.Scopes))
	assert.Equal(t, 2, p.BatchCalls())
}

func TestEmbeddingCacheWaiterHonorsOwnContext(t *testing.T) {
	p, set := fixture()
	p.Delay = 200 * time.Millisecond
	cache := NewEmbeddingCache(p, set)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := cache.Vectors(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the shared computation keeps going for everyone else
	vecs, err := cache.Vectors(context.Background())
	require.NoError(t, err)
	assert.Len(t, vecs, len(set.Scopes))
	assert.Equal(t, 1, p.BatchCalls())
}
