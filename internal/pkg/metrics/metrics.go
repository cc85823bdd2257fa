// Package metrics exposes pipeline Prometheus metrics and the /metrics handler.
package metrics

import (
	"context"

	"github.com/wildanku/hala-ai/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	stageDuration *prometheus.HistogramVec
	stageOutcomes *prometheus.CounterVec
	runs          *prometheus.CounterVec
	templateHits  prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: stage
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hala",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		// Labels: stage, outcome (passed, rejected, errored), code
		stageOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hala",
			Subsystem: "pipeline",
			Name:      "stage_outcomes_total",
			Help:      "Stage outcomes by kind and error code",
		}, []string{"stage", "outcome", "code"}),

		// Labels: status (success, error), backend
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hala",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Completed pipeline runs",
		}, []string{"status", "backend"}),

		templateHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hala",
			Subsystem: "pipeline",
			Name:      "template_reuse_total",
			Help:      "Runs answered from a stored journey template",
		}),
	}
}

func (m *Metrics) StageObserver() pipeline.StageObserver {
	return func(ctx context.Context, stage pipeline.Stage, out pipeline.Outcome, ec *pipeline.ExecutionContext) {
		m.stageDuration.WithLabelValues(stage.Name()).Observe(out.Duration.Seconds())
		m.stageOutcomes.WithLabelValues(stage.Name(), out.Kind.String(), string(out.Code)).Inc()
	}
}

func (m *Metrics) CompletionObserver() pipeline.CompletionObserver {
	return func(ctx context.Context, resp *pipeline.Response, ec *pipeline.ExecutionContext) {
		m.runs.WithLabelValues(resp.Status, resp.Backend).Inc()
		if resp.TemplateUsed {
			m.templateHits.Inc()
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
