// Package generation is the last pipeline stage: it either reuses a stored
// journey template or asks a generation backend for a fresh plan grounded in
// knowledge references.
package generation

import (
	"context"
	"encoding/json"

	"github.com/wildanku/hala-ai/pkg/llm"
	"github.com/wildanku/hala-ai/pkg/pipeline"
)

const (
	StageName  = "llm_inference"
	StageOrder = 5

	BackendTemplate = "template"
)

type Options struct {
	Temperature float64
	MaxTokens   int
	// Model replaces the backend's own model for planner calls when set.
	Model string
}

func DefaultOptions() Options {
	return Options{Temperature: 0.3, MaxTokens: 4096}
}

type Stage struct {
	router   *Router
	provider llm.Provider
	opts     Options
}

var _ pipeline.Stage = &Stage{}

func NewStage(router *Router, provider llm.Provider, opts Options) *Stage {
	def := DefaultOptions()
	if opts.Temperature <= 0 {
		opts.Temperature = def.Temperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	return &Stage{router: router, provider: provider, opts: opts}
}

func (s *Stage) Name() string { return StageName }
func (s *Stage) Order() int   { return StageOrder }

func (s *Stage) Process(ctx context.Context, ec *pipeline.ExecutionContext) pipeline.Outcome {
	decision, err := s.router.Route(ctx, ec.QueryVector, ec.Language())
	if err != nil {
		return pipeline.Fail(StageName, err)
	}

	if decision.Reuse {
		if payload, ok := decodePayload(decision.Template.Meta(MetaPayload)); ok {
			ec.Output = payload
			ec.Backend = BackendTemplate
			ec.TemplateUsed = true
			ec.TemplateID = decision.Template.ID
			ec.TemplateSimilarity = decision.TemplateSimilarity
			return pipeline.Pass(StageName)
		}
		// unreadable payload: generate fresh instead
		if decision, err = s.router.routeFresh(ctx, ec.QueryVector, decision); err != nil {
			return pipeline.Fail(StageName, err)
		}
	}

	if s.provider == nil {
		return pipeline.Reject(StageName, pipeline.CodeProviderNotFound, pipeline.Message{
			ID: "Penyedia AI tidak ditemukan atau tidak dikonfigurasi.",
			EN: "AI provider not found or not configured.",
		}, "Please contact the administrator.")
	}

	prompt := BuildPrompt(ec.ProcessedInput, ec.DetectedScope, ec.Language(), decision.Grounding)
	opts := []llm.Option{
		llm.WithJSON(),
		llm.WithTemperature(s.opts.Temperature),
		llm.WithMaxTokens(s.opts.MaxTokens),
	}
	if s.opts.Model != "" {
		opts = append(opts, llm.WithModel(s.opts.Model))
	}
	resp, err := s.provider.Generate(ctx, PlannerInstructions, prompt, opts...)
	if err != nil {
		return pipeline.Reject(StageName, pipeline.CodeLLMFailure, pipeline.Message{
			ID: "Gagal menghasilkan perjalanan. Silakan coba lagi.",
			EN: "Failed to generate journey. Please try again.",
		}, "Please try again in a few moments.")
	}

	ec.Output = Normalize(resp.Content, ec.ProcessedInput)
	ec.Backend = s.provider.Name()
	return pipeline.Pass(StageName)
}

func decodePayload(raw string) (map[string]any, bool) {
	if raw == "" {
		return nil, false
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload == nil {
		return nil, false
	}
	return payload, true
}

// Normalize parses model output into a journey payload. Unparseable output
// becomes a minimal payload and an empty plan gets one reflection task.
func Normalize(content, goal string) map[string]any {
	payload, err := llm.ParseJSONObject(content)
	if err != nil {
		payload = map[string]any{
			"goal":         goal,
			"total_days":   1,
			"goal_keyword": "spiritual-reflection",
			"tags":         []any{"reflection"},
			"introduction": map[string]any{
				"id": "Perjalanan singkat untuk merenungkan tujuanmu.",
				"en": "A short journey to reflect on your goal.",
			},
		}
	}

	items, _ := payload["journey"].([]any)
	if len(items) == 0 {
		payload["journey"] = []any{fallbackItem()}
		payload["total_days"] = 1
	}
	return payload
}

func fallbackItem() map[string]any {
	return map[string]any{
		"day":  "1",
		"type": "reflection",
		"time": "morning",
		"title": map[string]any{
			"id": "Refleksi Spiritual",
			"en": "Spiritual Reflection",
		},
		"description": map[string]any{
			"id": "Luangkan waktu untuk merefleksikan perjalanan spiritual Anda.",
			"en": "Take time to reflect on your spiritual journey.",
		},
	}
}
