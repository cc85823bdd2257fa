package service

import (
	"context"
	"time"

	"github.com/wildanku/hala-ai/internal/dto"
	"github.com/wildanku/hala-ai/internal/pkg/logger"
	"github.com/wildanku/hala-ai/internal/repository/specification"
	"github.com/wildanku/hala-ai/internal/repository/unitofwork"
	"github.com/wildanku/hala-ai/pkg/events"
	"github.com/wildanku/hala-ai/pkg/pipeline"

	"github.com/google/uuid"
)

type IJourneyService interface {
	Generate(ctx context.Context, req *dto.JourneyRequest) *pipeline.Response
	Validate(ctx context.Context, req *dto.JourneyRequest, fast bool) *dto.ValidationResponse
}

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// JourneyPipelines groups the orchestrators the journey endpoints run.
// Fast holds the sanitization stage only, Validation stages one to three.
type JourneyPipelines struct {
	Full       *pipeline.Orchestrator
	Fast       *pipeline.Orchestrator
	Validation *pipeline.Orchestrator
}

type journeyService struct {
	pipelines  JourneyPipelines
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

// NewJourneyService accepts a nil uowFactory when no catalog database is
// configured; template match counts are then not recorded.
func NewJourneyService(
	pipelines JourneyPipelines,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IJourneyService {
	return &journeyService{
		pipelines:  pipelines,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *journeyService) Generate(ctx context.Context, req *dto.JourneyRequest) *pipeline.Response {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	resp, ec := s.pipelines.Full.Execute(ctx, req.ToPipeline())
	if resp.Success() && ec.TemplateUsed {
		s.recordTemplateMatch(ctx, ec.TemplateID)
	}
	return resp
}

func (s *journeyService) recordTemplateMatch(ctx context.Context, templateID string) {
	if s.uowFactory == nil || templateID == "" {
		return
	}
	id, err := uuid.Parse(templateID)
	if err != nil {
		s.logger.Warn("JourneyService", "template id is not a uuid", map[string]interface{}{
			"template_id": templateID,
		})
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.JourneyTemplateRepository().IncrementMatchCount(ctx, specification.ByID{ID: id}); err != nil {
		s.logger.Error("JourneyService", "failed to record template match", map[string]interface{}{
			"template_id": templateID,
			"error":       err.Error(),
		})
	}
}

func (s *journeyService) Validate(ctx context.Context, req *dto.JourneyRequest, fast bool) *dto.ValidationResponse {
	orchestrator := s.pipelines.Validation
	if fast {
		orchestrator = s.pipelines.Fast
	}

	resp, ec := orchestrator.Execute(ctx, req.ToPipeline())
	result := &dto.ValidationResponse{
		IsValid:          resp.Success(),
		FastMode:         fast,
		DetectedLanguage: ec.DetectedLanguage,
		SafetyFlags:      ec.SafetyFlags,
		LayerTimings:     resp.Timings,
	}
	if !fast {
		result.DetectedScope = ec.DetectedScope
		result.SemanticScores = ec.ScopeScores
	}
	if !resp.Success() {
		msg := resp.Message
		result.FailedAtLayer = resp.FailedStage
		result.ErrorCode = resp.Code
		result.Message = &msg
		result.SuggestedAction = resp.SuggestedAction
	}
	return result
}

// JourneyEventObserver publishes journey.generated or journey.rejected once a
// run has finished. Publishing failures are logged and never reach the caller.
func JourneyEventObserver(publisher EventPublisher, log logger.ILogger) pipeline.CompletionObserver {
	return func(ctx context.Context, resp *pipeline.Response, ec *pipeline.ExecutionContext) {
		data := map[string]interface{}{
			"session_id":    ec.SessionID,
			"user_id":       ec.UserID,
			"language":      ec.Language(),
			"total_time_ms": resp.TotalTimeMs,
		}
		if resp.Success() {
			data["scope"] = resp.DetectedScope
			data["backend"] = resp.Backend
			data["template_used"] = resp.TemplateUsed
		} else {
			data["code"] = string(resp.Code)
			data["failed_stage"] = resp.FailedStage
			if len(ec.SafetyFlags) > 0 {
				data["safety_flags"] = ec.SafetyFlags
			}
		}

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()

		event := events.NewJourneyEvent(resp.Success(), data)
		if err := publisher.Publish(pubCtx, event); err != nil {
			log.Warn("JourneyService", "failed to publish journey event", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
}
