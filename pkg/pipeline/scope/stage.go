// Package scope decides whether a request belongs to the platform's domain by
// comparing its embedding against a fixed set of scope descriptors.
package scope

import (
	"context"
	"fmt"
	"math"

	"github.com/wildanku/hala-ai/pkg/embedding"
	"github.com/wildanku/hala-ai/pkg/pipeline"
)

const (
	StageName  = "semantic_validation"
	StageOrder = 2
)

type Options struct {
	// Threshold is the minimum best similarity.
	Threshold float64
	// StrictThreshold: below it a keyword match is also required.
	StrictThreshold float64
}

func DefaultOptions() Options {
	return Options{Threshold: 0.45, StrictThreshold: 0.50}
}

var outOfScopeMessage = pipeline.Message{
	ID: "Maaf, permintaanmu berada di luar jangkauan bimbingan Hala Journal.",
	EN: "Sorry, your request is outside the scope of Hala Journal guidance.",
}

const outOfScopeAction = "Try asking about spiritual habits, worship, mental health, or productivity."

type Stage struct {
	provider embedding.Provider
	cache    *EmbeddingCache
	opts     Options
}

var _ pipeline.Stage = &Stage{}

func NewStage(provider embedding.Provider, cache *EmbeddingCache, opts Options) *Stage {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultOptions().Threshold
	}
	if opts.StrictThreshold <= 0 {
		opts.StrictThreshold = DefaultOptions().StrictThreshold
	}
	if opts.StrictThreshold < opts.Threshold {
		opts.StrictThreshold = opts.Threshold
	}
	return &Stage{provider: provider, cache: cache, opts: opts}
}

func (s *Stage) Name() string { return StageName }
func (s *Stage) Order() int   { return StageOrder }

func (s *Stage) Process(ctx context.Context, ec *pipeline.ExecutionContext) pipeline.Outcome {
	descriptors, err := s.cache.Vectors(ctx)
	if err != nil {
		return pipeline.Fail(StageName, err)
	}

	input, err := s.provider.Embed(ctx, ec.ProcessedInput)
	if err != nil {
		return pipeline.Fail(StageName, fmt.Errorf("embed input: %w", err))
	}

	idx, score := Classify(input, descriptors)
	if idx < 0 {
		return pipeline.Fail(StageName, fmt.Errorf("no scope descriptors"))
	}
	name := s.cache.Descriptors().Scopes[idx].Name
	ec.ScopeScores[name] = score

	if score < s.opts.Threshold {
		return pipeline.Reject(StageName, pipeline.CodeOutOfScope, outOfScopeMessage, outOfScopeAction)
	}
	if score < s.opts.StrictThreshold {
		if _, ok := s.cache.Descriptors().MatchKeyword(ec.ProcessedInput); !ok {
			return pipeline.Reject(StageName, pipeline.CodeOutOfScope, outOfScopeMessage, outOfScopeAction)
		}
	}

	ec.DetectedScope = name
	return pipeline.Pass(StageName)
}

// Classify returns the index and similarity of the closest descriptor. Ties
// keep the earlier descriptor. It returns -1 when there are no descriptors.
func Classify(input []float32, descriptors [][]float32) (int, float64) {
	best, bestScore := -1, math.Inf(-1)
	for i, d := range descriptors {
		if s := embedding.CosineSimilarity(input, d); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}
