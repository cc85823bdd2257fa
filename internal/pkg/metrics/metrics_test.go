package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wildanku/hala-ai/internal/pkg/logger"
	"github.com/wildanku/hala-ai/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStage struct {
	name  string
	order int
	out   func() pipeline.Outcome
}

func (s stubStage) Name() string { return s.name }
func (s stubStage) Order() int   { return s.order }
func (s stubStage) Process(ctx context.Context, ec *pipeline.ExecutionContext) pipeline.Outcome {
	return s.out()
}

func TestObserversRecordRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	pass := stubStage{name: "sanitization", order: 1, out: func() pipeline.Outcome {
		time.Sleep(time.Millisecond)
		return pipeline.Pass("sanitization")
	}}
	reject := stubStage{name: "semantic_validation", order: 2, out: func() pipeline.Outcome {
		return pipeline.Reject("semantic_validation", pipeline.CodeOutOfScope, pipeline.Message{}, "")
	}}

	o := pipeline.NewOrchestrator(logger.NewNopLogger(), []pipeline.Stage{pass, reject},
		pipeline.WithStageObserver(m.StageObserver()),
		pipeline.WithCompletionObserver(m.CompletionObserver()))
	o.Run(context.Background(), pipeline.Request{Text: "anything"})
	o.Run(context.Background(), pipeline.Request{Text: "anything"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.stageOutcomes.WithLabelValues("sanitization", "passed", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.stageOutcomes.WithLabelValues("semantic_validation", "rejected", "OUT_OF_SCOPE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("error", "")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.templateHits))
	assert.Equal(t, 2, testutil.CollectAndCount(m.stageDuration))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.CompletionObserver()(context.Background(), &pipeline.Response{Status: "success", Backend: "template", TemplateUsed: true}, nil)

	app := fiber.New()
	app.Get("/metrics", Handler(reg))

	res, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hala_pipeline_runs_total{backend="template",status="success"} 1`)
	assert.Contains(t, string(body), "hala_pipeline_template_reuse_total 1")
}
