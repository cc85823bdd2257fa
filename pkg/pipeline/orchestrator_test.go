package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/wildanku/hala-ai/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStage struct {
	name    string
	order   int
	process func(ec *ExecutionContext) Outcome
	calls   int
}

func (s *fakeStage) Name() string { return s.name }
func (s *fakeStage) Order() int   { return s.order }
func (s *fakeStage) Process(ctx context.Context, ec *ExecutionContext) Outcome {
	s.calls++
	if s.process == nil {
		return Pass(s.name)
	}
	return s.process(ec)
}

func TestOrchestratorRunsStagesInOrder(t *testing.T) {
	var seen []string
	record := func(name string) func(ec *ExecutionContext) Outcome {
		return func(ec *ExecutionContext) Outcome {
			seen = append(seen, name)
			return Pass(name)
		}
	}

	third := &fakeStage{name: "third", order: 3, process: record("third")}
	first := &fakeStage{name: "first", order: 1, process: record("first")}
	second := &fakeStage{name: "second", order: 2, process: record("second")}

	o := NewOrchestrator(logger.NewNopLogger(), []Stage{third, first, second})
	resp := o.Run(context.Background(), Request{Text: "some text"})

	require.True(t, resp.Success())
	assert.Equal(t, []string{"first", "second", "third"}, seen)
	assert.Equal(t, []string{"first", "second", "third"}, o.StageNames())
	assert.Equal(t, []string{"first", "second", "third"}, resp.Timings.Stages())
	assert.Equal(t, http.StatusOK, resp.HTTPStatus())
}

func TestOrchestratorEqualOrderKeepsRegistrationOrder(t *testing.T) {
	a := &fakeStage{name: "a", order: 1}
	b := &fakeStage{name: "b", order: 1}
	o := NewOrchestrator(logger.NewNopLogger(), []Stage{a, b})
	assert.Equal(t, []string{"a", "b"}, o.StageNames())
}

func TestOrchestratorStopsAtFirstRejection(t *testing.T) {
	first := &fakeStage{name: "sanitization", order: 1, process: func(ec *ExecutionContext) Outcome {
		return Reject("sanitization", CodeValidation, Message{ID: "pendek", EN: "short"}, "say more")
	}}
	second := &fakeStage{name: "semantic_validation", order: 2}

	o := NewOrchestrator(logger.NewNopLogger(), []Stage{first, second})
	resp := o.Run(context.Background(), Request{Text: "hi"})

	assert.False(t, resp.Success())
	assert.Equal(t, CodeValidation, resp.Code)
	assert.Equal(t, "sanitization", resp.FailedStage)
	assert.Equal(t, "short", resp.Message.EN)
	assert.Equal(t, "say more", resp.SuggestedAction)
	assert.Equal(t, http.StatusBadRequest, resp.HTTPStatus())
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, []string{"sanitization"}, resp.Timings.Stages())
}

func TestOrchestratorErroredStageHidesDetail(t *testing.T) {
	failing := &fakeStage{name: "rag_retrieval", order: 4, process: func(ec *ExecutionContext) Outcome {
		return Fail("rag_retrieval", errors.New("connection refused to 10.0.0.3"))
	}}

	o := NewOrchestrator(logger.NewNopLogger(), []Stage{failing})
	resp := o.Run(context.Background(), Request{Text: "valid request"})

	assert.Equal(t, CodeInternal, resp.Code)
	assert.Equal(t, http.StatusInternalServerError, resp.HTTPStatus())
	assert.Equal(t, internalErrorMessage, resp.Message)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "10.0.0.3")
}

func TestOrchestratorRecoversFromPanic(t *testing.T) {
	boom := &fakeStage{name: "boom", order: 1, process: func(ec *ExecutionContext) Outcome {
		panic("nil map")
	}}
	o := NewOrchestrator(logger.NewNopLogger(), []Stage{boom})
	resp := o.Run(context.Background(), Request{Text: "anything"})

	assert.Equal(t, CodeInternal, resp.Code)
	assert.Equal(t, "boom", resp.FailedStage)
}

func TestOrchestratorCancelledContext(t *testing.T) {
	stage := &fakeStage{name: "first", order: 1}
	o := NewOrchestrator(logger.NewNopLogger(), []Stage{stage})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := o.Run(ctx, Request{Text: "anything"})

	assert.Equal(t, CodeInternal, resp.Code)
	assert.Equal(t, 0, stage.calls)
}

func TestOrchestratorObservers(t *testing.T) {
	var observed []OutcomeKind
	var completed *Response

	pass := &fakeStage{name: "one", order: 1}
	reject := &fakeStage{name: "two", order: 2, process: func(ec *ExecutionContext) Outcome {
		return Reject("two", CodeSafetyViolation, Message{}, "")
	}}

	o := NewOrchestrator(logger.NewNopLogger(), []Stage{pass, reject},
		WithStageObserver(func(ctx context.Context, s Stage, out Outcome, ec *ExecutionContext) {
			observed = append(observed, out.Kind)
		}),
		WithCompletionObserver(func(ctx context.Context, resp *Response, ec *ExecutionContext) {
			completed = resp
		}),
	)
	resp := o.Run(context.Background(), Request{Text: "anything"})

	assert.Equal(t, []OutcomeKind{Passed, Rejected}, observed)
	assert.Same(t, resp, completed)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.HTTPStatus())
}

func TestOrchestratorIsReusable(t *testing.T) {
	stage := &fakeStage{name: "echo", order: 1, process: func(ec *ExecutionContext) Outcome {
		ec.Output = map[string]any{"goal": ec.RawInput()}
		return Pass("echo")
	}}
	o := NewOrchestrator(logger.NewNopLogger(), []Stage{stage})

	first := o.Run(context.Background(), Request{Text: "first goal"})
	second := o.Run(context.Background(), Request{Text: "second goal"})

	assert.Equal(t, "first goal", first.Data["goal"])
	assert.Equal(t, "second goal", second.Data["goal"])
	assert.Len(t, second.Timings, 1)
}

func TestResponseJSONEnvelope(t *testing.T) {
	ok := &fakeStage{name: "sanitization", order: 1, process: func(ec *ExecutionContext) Outcome {
		ec.DetectedScope = "worship"
		ec.ScopeScores["worship"] = 0.71
		ec.Backend = "gemini"
		ec.Output = map[string]any{"goal": "tahajud"}
		return Pass("sanitization")
	}}
	later := &fakeStage{name: "llm_inference", order: 5}

	resp := NewOrchestrator(logger.NewNopLogger(), []Stage{ok, later}).Run(context.Background(), Request{Text: "x"})
	body, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "success", decoded["status"])

	meta := decoded["meta"].(map[string]any)
	assert.Equal(t, "worship", meta["detected_scope"])
	assert.Equal(t, "gemini", meta["llm_provider"])

	// layer timings keep execution order in the encoded object
	raw := string(body)
	assert.Less(t, strings.Index(raw, `"sanitization":`), strings.Index(raw, `"llm_inference":`))
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidation, 400},
		{CodeInjection, 400},
		{CodeLanguageUnsupported, 400},
		{CodeOutOfScope, 400},
		{CodeSafetyViolation, 422},
		{CodeRAGFailure, 500},
		{CodeLLMFailure, 500},
		{CodeProviderNotFound, 500},
		{CodeInternal, 500},
		{ErrorCode("SOMETHING_NEW"), 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
	assert.Len(t, Codes(), 9)
}

func TestExecutionContext(t *testing.T) {
	ec := NewExecutionContext(Request{Text: "  raw  "})
	assert.Equal(t, "  raw  ", ec.RawInput())
	assert.Equal(t, "id", ec.RequestedLanguage)
	assert.Equal(t, "id", ec.Language())

	ec.DetectedLanguage = "en"
	assert.Equal(t, "en", ec.Language())

	ec.AddFlag("CRISIS_DETECTED")
	ec.AddFlag("CRISIS_DETECTED")
	assert.Equal(t, []string{"CRISIS_DETECTED"}, ec.SafetyFlags)
}

func TestOrchestratorExecuteExposesContext(t *testing.T) {
	flagging := &fakeStage{name: "safety_guardrails", order: 3, process: func(ec *ExecutionContext) Outcome {
		ec.AddFlag("CRISIS_DETECTED")
		return Reject("safety_guardrails", CodeSafetyViolation, Message{}, "")
	}}
	o := NewOrchestrator(logger.NewNopLogger(), []Stage{flagging})

	resp, ec := o.Execute(context.Background(), Request{Text: "anything", Language: "en"})
	assert.False(t, resp.Success())
	assert.Equal(t, []string{"CRISIS_DETECTED"}, ec.SafetyFlags)
	assert.Equal(t, "en", ec.Language())
}
