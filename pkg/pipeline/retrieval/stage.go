// Package retrieval fetches grounding material for a request from the three
// knowledge collections.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/wildanku/hala-ai/pkg/embedding"
	"github.com/wildanku/hala-ai/pkg/pipeline"
	"github.com/wildanku/hala-ai/pkg/vectorstore"
)

const (
	StageName  = "rag_retrieval"
	StageOrder = 4
)

type Options struct {
	TopK int
}

func DefaultOptions() Options {
	return Options{TopK: 5}
}

type Stage struct {
	provider embedding.Provider
	store    vectorstore.Store
	opts     Options
}

var _ pipeline.Stage = &Stage{}

func NewStage(provider embedding.Provider, store vectorstore.Store, opts Options) *Stage {
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	return &Stage{provider: provider, store: store, opts: opts}
}

func (s *Stage) Name() string { return StageName }
func (s *Stage) Order() int   { return StageOrder }

// Query prefixes the detected scope so the search leans towards it.
func Query(scope, input string) string {
	if scope == "" {
		return input
	}
	return scope + ": " + input
}

func (s *Stage) Process(ctx context.Context, ec *pipeline.ExecutionContext) pipeline.Outcome {
	vec, err := s.provider.Embed(ctx, Query(ec.DetectedScope, ec.ProcessedInput))
	if err != nil {
		return pipeline.Fail(StageName, fmt.Errorf("embed query: %w", err))
	}
	ec.QueryVector = vec

	targets := []struct {
		collection string
		dst        *[]vectorstore.Document
	}{
		{vectorstore.CollectionVerses, &ec.Verses},
		{vectorstore.CollectionHadith, &ec.Hadith},
		{vectorstore.CollectionStrategies, &ec.Strategies},
	}

	for _, t := range targets {
		docs, err := s.store.Search(ctx, t.collection, vec, s.opts.TopK, nil)
		if err != nil {
			return pipeline.Fail(StageName, fmt.Errorf("search %s: %w", t.collection, err))
		}
		*t.dst = byDistance(t.collection, docs)
	}

	if len(ec.Documents()) == 0 {
		return pipeline.Reject(StageName, pipeline.CodeRAGFailure, pipeline.Message{
			ID: "Tidak dapat menemukan konteks yang relevan untuk permintaanmu.",
			EN: "Could not find relevant context for your request.",
		}, "Please try rephrasing your question.")
	}
	return pipeline.Pass(StageName)
}

// byDistance tags hits with their collection and orders them closest first.
func byDistance(collection string, docs []vectorstore.Document) []vectorstore.Document {
	out := make([]vectorstore.Document, len(docs))
	copy(out, docs)
	for i := range out {
		out[i].Collection = collection
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
