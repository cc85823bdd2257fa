package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/wildanku/hala-ai/internal/config"
	"github.com/wildanku/hala-ai/internal/controller"
	"github.com/wildanku/hala-ai/internal/pkg/logger"
	"github.com/wildanku/hala-ai/internal/pkg/metrics"
	"github.com/wildanku/hala-ai/internal/repository/implementation"
	"github.com/wildanku/hala-ai/internal/repository/unitofwork"
	"github.com/wildanku/hala-ai/internal/service"
	"github.com/wildanku/hala-ai/pkg/embedding"
	"github.com/wildanku/hala-ai/pkg/embedding/jina"
	"github.com/wildanku/hala-ai/pkg/events"
	"github.com/wildanku/hala-ai/pkg/llm"
	"github.com/wildanku/hala-ai/pkg/llm/factory"
	pktNats "github.com/wildanku/hala-ai/pkg/nats"
	"github.com/wildanku/hala-ai/pkg/pipeline"
	"github.com/wildanku/hala-ai/pkg/pipeline/generation"
	"github.com/wildanku/hala-ai/pkg/pipeline/retrieval"
	"github.com/wildanku/hala-ai/pkg/pipeline/safety"
	"github.com/wildanku/hala-ai/pkg/pipeline/sanitize"
	"github.com/wildanku/hala-ai/pkg/pipeline/scope"
	"github.com/wildanku/hala-ai/pkg/vectorstore"
	"github.com/wildanku/hala-ai/pkg/vectorstore/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	JourneyController controller.IJourneyController
	HealthController  controller.IHealthController
	SyncController    controller.ISyncController // nil without a catalog database

	// Background services, started by the entry points
	SyncService         service.ISyncService
	SyncConsumerService service.ISyncConsumerService
	CatalogSubscriber   *pktNats.Subscriber

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the process. db may be nil, in which case the semantic
// store lives in memory and catalog sync is unavailable.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	syncLogger := logger.NewIsolatedLogger(cfg.App.SyncLogFilePath)
	c := &Container{Logger: sysLogger}

	rdb := connectRedis(ctx, cfg.Redis.URL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// 2. Embeddings, cached in process and in redis when available
	baseEmbedder, err := newEmbeddingProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewCachedProvider(baseEmbedder, rdb, time.Duration(cfg.Redis.EmbeddingTTLMin)*time.Minute)
	sysLogger.Info("BOOTSTRAP", "Embedding provider ready", map[string]interface{}{
		"provider": baseEmbedder.Name(),
		"redis":    rdb != nil,
	})

	// 3. Semantic store
	var (
		store      vectorstore.Store
		uowFactory unitofwork.RepositoryFactory
	)
	if db != nil && cfg.Ai.VectorStore != "memory" {
		store = implementation.NewSemanticStore(db)
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		store = memory.NewStore()
		sysLogger.Warn("BOOTSTRAP", "Using in-memory semantic store, catalog sync disabled", nil)
	}

	// 4. Generation backends
	llmCfg := llmConfig(cfg)
	var generator llm.Provider
	active, err := factory.NewLLMProvider(ctx, cfg.Ai.LLMProvider, llmCfg)
	switch {
	case factory.IsNotFound(err):
		// the generation stage answers PROVIDER_NOT_FOUND
		sysLogger.Error("BOOTSTRAP", "LLM provider not available", map[string]interface{}{
			"provider": cfg.Ai.LLMProvider,
			"error":    err.Error(),
		})
	case err != nil:
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	default:
		generator = active
		sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
			"provider": active.Name(),
			"model":    active.Model(),
		})
	}
	providers := factory.Configured(ctx, llmCfg)

	// 5. Event bus
	var eventPublisher service.EventPublisher
	if cfg.Nats.Enabled {
		natsPub, err := pktNats.NewPublisher(cfg.Nats.URL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect NATS publisher", map[string]interface{}{"error": err.Error()})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 6. Pipeline stages
	stages, scopeCache, err := newStages(cfg, embedder, store, generator)
	if err != nil {
		return nil, err
	}
	m := metrics.New(prometheus.DefaultRegisterer)
	opts := []pipeline.Option{pipeline.WithStageObserver(m.StageObserver())}
	fullOpts := []pipeline.Option{
		pipeline.WithStageObserver(m.StageObserver()),
		pipeline.WithCompletionObserver(m.CompletionObserver()),
	}
	if eventPublisher != nil {
		fullOpts = append(fullOpts, pipeline.WithCompletionObserver(service.JourneyEventObserver(eventPublisher, sysLogger)))
	}
	pipelines := service.JourneyPipelines{
		Full:       pipeline.NewOrchestrator(sysLogger, stages, fullOpts...),
		Fast:       pipeline.NewOrchestrator(sysLogger, stages[:1], opts...),
		Validation: pipeline.NewOrchestrator(sysLogger, stages[:3], opts...),
	}

	// 7. Services
	journeyService := service.NewJourneyService(pipelines, uowFactory, sysLogger)
	healthService := service.NewHealthService(service.HealthDependencies{
		Stages:     stageNames(stages),
		ScopeCache: scopeCache,
		Embedding:  baseEmbedder.Name(),
		Generation: generator,
		Providers:  providers,
		Store:      store,
		DB:         db,
		Redis:      rdb,
	})

	c.JourneyController = controller.NewJourneyController(journeyService)
	c.HealthController = controller.NewHealthController(healthService)

	if uowFactory != nil {
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
		c.closers = append(c.closers, func() { _ = pubSub.Close() })

		var checkpoint service.SyncCheckpoint
		if rdb != nil {
			checkpoint = service.NewRedisCheckpoint(rdb)
		}
		publisherService := service.NewPublisherService(cfg.Ai.SyncTopic, pubSub)
		c.SyncService = service.NewSyncService(uowFactory, embedder, checkpoint, publisherService, eventPublisher, syncLogger)
		c.SyncConsumerService = service.NewSyncConsumerService(pubSub, cfg.Ai.SyncTopic, c.SyncService, syncLogger)
		c.SyncController = controller.NewSyncController(c.SyncService)

		if cfg.Nats.Enabled {
			natsSub, err := pktNats.NewSubscriber(cfg.Nats.URL)
			if err != nil {
				sysLogger.Warn("BOOTSTRAP", "Failed to connect NATS subscriber", map[string]interface{}{"error": err.Error()})
			} else {
				c.CatalogSubscriber = natsSub
				c.closers = append(c.closers, natsSub.Close)
			}
		}
	}

	return c, nil
}

// StartConsumers attaches the sync consumers. It is a no-op without a catalog.
func (c *Container) StartConsumers(ctx context.Context) error {
	if c.SyncConsumerService == nil {
		return nil
	}
	if err := c.SyncConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("failed to start sync consumer: %w", err)
	}
	if c.CatalogSubscriber != nil {
		if err := c.CatalogSubscriber.Subscribe(ctx, events.TypeCatalogUpdated, "hala-ai-catalog-sync", c.SyncConsumerService.HandleCatalogEvent); err != nil {
			return fmt.Errorf("failed to subscribe to catalog events: %w", err)
		}
	}
	return nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func connectRedis(ctx context.Context, url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Failed to connect to Redis, continuing without it", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func newEmbeddingProvider(ctx context.Context, cfg *config.Config) (embedding.Provider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel), nil
	case "jina":
		return jina.NewJinaProvider(cfg.Keys.Jina, cfg.Ai.EmbeddingModel), nil
	default:
		p, err := embedding.NewGeminiProvider(ctx, cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
		}
		return p, nil
	}
}

// llmConfig hands LLM_MODEL to the active backend only; the others keep
// their default models.
func llmConfig(cfg *config.Config) factory.Config {
	fc := factory.Config{
		OllamaURL:          cfg.Ai.OllamaBaseURL,
		GeminiAPIKey:       cfg.Keys.GoogleGemini,
		OpenAIAPIKey:       cfg.Keys.OpenAI,
		OpenAIBaseURL:      cfg.Ai.OpenAIBaseURL,
		HuggingFaceAPIKey:  cfg.Keys.HuggingFace,
		HuggingFaceBaseURL: cfg.Ai.HuggingFaceURL,
	}
	switch cfg.Ai.LLMProvider {
	case "ollama":
		fc.OllamaModel = cfg.Ai.LLMModel
	case "gemini":
		fc.GeminiModel = cfg.Ai.LLMModel
	case "openai":
		fc.OpenAIModel = cfg.Ai.LLMModel
	case "huggingface", "hf":
		fc.HuggingFaceModel = cfg.Ai.LLMModel
	}
	return fc
}

// newStages builds the five stages in execution order. generator may be nil.
func newStages(cfg *config.Config, embedder embedding.Provider, store vectorstore.Store, generator llm.Provider) ([]pipeline.Stage, *scope.EmbeddingCache, error) {
	p := cfg.Pipeline

	sanitizeOpts := sanitize.DefaultOptions()
	sanitizeOpts.MinLength = p.MinInputLength
	sanitizeOpts.MaxLength = p.MaxInputLength
	sanitizeOpts.SupportedLanguages = p.SupportedLanguages
	sanitizeStage, err := sanitize.NewStage(sanitize.NewWhatlangDetector(), sanitizeOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build sanitization stage: %w", err)
	}

	scopeCache := scope.NewEmbeddingCache(embedder, scope.DefaultDescriptorSet())
	scopeStage := scope.NewStage(embedder, scopeCache, scope.Options{
		Threshold:       p.SimilarityThreshold,
		StrictThreshold: p.StrictThreshold,
	})

	safetyStage := safety.NewStage(safety.DefaultRuleset(), safety.Options{
		Crisis:   p.CrisisEnabled,
		Violence: p.ViolenceEnabled,
		Values:   p.ValuesEnabled,
	})

	retrievalStage := retrieval.NewStage(embedder, store, retrieval.Options{TopK: p.RAGTopK})

	routerOpts := generation.DefaultRouterOptions()
	routerOpts.RelevanceDistance = p.RelevanceDistance
	routerOpts.ReuseThreshold = p.TemplateThreshold
	generationStage := generation.NewStage(generation.NewRouter(store, routerOpts), generator, generation.Options{
		Temperature: p.LLMTemperature,
		MaxTokens:   p.LLMMaxTokens,
		Model:       p.PlannerModel,
	})

	return []pipeline.Stage{sanitizeStage, scopeStage, safetyStage, retrievalStage, generationStage}, scopeCache, nil
}

func stageNames(stages []pipeline.Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}
