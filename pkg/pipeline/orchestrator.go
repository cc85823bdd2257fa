package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/wildanku/hala-ai/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StageObserver is called after every executed stage.
type StageObserver func(ctx context.Context, stage Stage, out Outcome, ec *ExecutionContext)

// CompletionObserver is called once a run produced its response, success or not.
type CompletionObserver func(ctx context.Context, resp *Response, ec *ExecutionContext)

type Option func(*Orchestrator)

func WithStageObserver(fn StageObserver) Option {
	return func(o *Orchestrator) {
		o.stageObservers = append(o.stageObservers, fn)
	}
}

func WithCompletionObserver(fn CompletionObserver) Option {
	return func(o *Orchestrator) {
		o.completionObservers = append(o.completionObservers, fn)
	}
}

// Orchestrator runs a fixed, ordered list of stages and stops at the first
// stage that does not pass. It holds no per-request state.
type Orchestrator struct {
	stages              []Stage
	logger              logger.ILogger
	tracer              trace.Tracer
	stageObservers      []StageObserver
	completionObservers []CompletionObserver
}

func NewOrchestrator(log logger.ILogger, stages []Stage, opts ...Option) *Orchestrator {
	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order() < sorted[j].Order() })

	o := &Orchestrator{
		stages: sorted,
		logger: log,
		tracer: otel.Tracer("github.com/wildanku/hala-ai/pkg/pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StageNames returns the stage names in execution order.
func (o *Orchestrator) StageNames() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name()
	}
	return names
}

func (o *Orchestrator) Run(ctx context.Context, req Request) *Response {
	resp, _ := o.Execute(ctx, req)
	return resp
}

// Execute is Run that also hands back the execution context, for callers
// that report intermediate state such as flags or the detected language.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Response, *ExecutionContext) {
	ec := NewExecutionContext(req)
	start := time.Now()

	o.logger.Info("Orchestrator", "pipeline started", map[string]interface{}{
		"session_id": ec.SessionID,
		"stages":     len(o.stages),
	})

	for _, stage := range o.stages {
		stageStart := time.Now()
		out := o.runStage(ctx, stage, ec)
		elapsed := time.Since(stageStart)
		out = out.withDuration(elapsed)
		ec.Timings.record(stage.Name(), float64(elapsed.Microseconds())/1000)

		for _, fn := range o.stageObservers {
			fn(ctx, stage, out, ec)
		}

		if out.Ok() {
			continue
		}

		if out.Kind == Errored {
			o.logger.Error("Orchestrator", "stage failed", map[string]interface{}{
				"stage":      stage.Name(),
				"session_id": ec.SessionID,
				"error":      out.Detail,
			})
		} else {
			o.logger.Warn("Orchestrator", "stage rejected request", map[string]interface{}{
				"stage":      stage.Name(),
				"session_id": ec.SessionID,
				"code":       out.Code,
			})
		}

		resp := errorResponse(out, ec, time.Since(start))
		o.complete(ctx, resp, ec)
		return resp, ec
	}

	resp := successResponse(ec, time.Since(start))
	o.logger.Info("Orchestrator", "pipeline completed", map[string]interface{}{
		"session_id":    ec.SessionID,
		"scope":         ec.DetectedScope,
		"backend":       ec.Backend,
		"total_time_ms": resp.TotalTimeMs,
	})
	o.complete(ctx, resp, ec)
	return resp, ec
}

func (o *Orchestrator) complete(ctx context.Context, resp *Response, ec *ExecutionContext) {
	for _, fn := range o.completionObservers {
		fn(ctx, resp, ec)
	}
}

// runStage wraps one stage in a span and turns a panic into an Errored outcome.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, ec *ExecutionContext) (out Outcome) {
	ctx, span := o.tracer.Start(ctx, "pipeline."+stage.Name(),
		trace.WithAttributes(attribute.Int("pipeline.stage.order", stage.Order())))
	defer func() {
		if r := recover(); r != nil {
			out = Fail(stage.Name(), fmt.Errorf("panic: %v", r))
		}
		span.SetAttributes(attribute.String("pipeline.stage.outcome", out.Kind.String()))
		if !out.Ok() {
			span.SetStatus(codes.Error, string(out.Code))
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return Fail(stage.Name(), err)
	}
	return stage.Process(ctx, ec)
}

// Response is the envelope returned to the caller.
type Response struct {
	Status string

	// error envelope
	Code            ErrorCode
	Message         Message
	SuggestedAction string
	FailedStage     string

	// success envelope
	Data               map[string]any
	DetectedScope      string
	ScopeScores        map[string]float64
	DocumentsRetrieved int
	Backend            string
	TemplateUsed       bool
	TemplateSimilarity float64

	TotalTimeMs float64
	Timings     Timings
}

func (r *Response) Success() bool {
	return r.Status == StatusSuccess
}

// HTTPStatus is 200 on success, otherwise the status of the error code.
func (r *Response) HTTPStatus() int {
	if r.Success() {
		return 200
	}
	return r.Code.HTTPStatus()
}

func errorResponse(out Outcome, ec *ExecutionContext, total time.Duration) *Response {
	return &Response{
		Status:          StatusError,
		Code:            out.Code,
		Message:         out.Message,
		SuggestedAction: out.SuggestedAction,
		FailedStage:     out.Stage,
		TotalTimeMs:     roundMillis(float64(total.Microseconds()) / 1000),
		Timings:         ec.Timings,
	}
}

func successResponse(ec *ExecutionContext, total time.Duration) *Response {
	data := ec.Output
	if data == nil {
		data = map[string]any{}
	}
	return &Response{
		Status:             StatusSuccess,
		Data:               data,
		DetectedScope:      ec.DetectedScope,
		ScopeScores:        ec.ScopeScores,
		DocumentsRetrieved: len(ec.Documents()),
		Backend:            ec.Backend,
		TemplateUsed:       ec.TemplateUsed,
		TemplateSimilarity: ec.TemplateSimilarity,
		TotalTimeMs:        roundMillis(float64(total.Microseconds()) / 1000),
		Timings:            ec.Timings,
	}
}

type errorMeta struct {
	FailedAtStage string  `json:"failed_at_layer"`
	TotalTimeMs   float64 `json:"total_time_ms"`
	Timings       Timings `json:"layer_timings"`
}

type successMeta struct {
	DetectedScope      string             `json:"detected_scope"`
	ScopeScores        map[string]float64 `json:"semantic_scores"`
	DocumentsRetrieved int                `json:"documents_retrieved"`
	Backend            string             `json:"llm_provider"`
	TemplateUsed       bool               `json:"template_used"`
	TemplateSimilarity float64            `json:"template_similarity,omitempty"`
	TotalTimeMs        float64            `json:"total_time_ms"`
	Timings            Timings            `json:"layer_timings"`
}

func (r *Response) MarshalJSON() ([]byte, error) {
	if !r.Success() {
		return json.Marshal(struct {
			Status          string    `json:"status"`
			Code            ErrorCode `json:"code"`
			Message         Message   `json:"message"`
			SuggestedAction string    `json:"suggested_action,omitempty"`
			Meta            errorMeta `json:"meta"`
		}{
			Status:          r.Status,
			Code:            r.Code,
			Message:         r.Message,
			SuggestedAction: r.SuggestedAction,
			Meta: errorMeta{
				FailedAtStage: r.FailedStage,
				TotalTimeMs:   r.TotalTimeMs,
				Timings:       r.Timings,
			},
		})
	}
	return json.Marshal(struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
		Meta   successMeta    `json:"meta"`
	}{
		Status: r.Status,
		Data:   r.Data,
		Meta: successMeta{
			DetectedScope:      r.DetectedScope,
			ScopeScores:        r.ScopeScores,
			DocumentsRetrieved: r.DocumentsRetrieved,
			Backend:            r.Backend,
			TemplateUsed:       r.TemplateUsed,
			TemplateSimilarity: r.TemplateSimilarity,
			TotalTimeMs:        r.TotalTimeMs,
			Timings:            r.Timings,
		},
	})
}
