package service

import (
	"context"
	"sort"
	"time"

	"github.com/wildanku/hala-ai/internal/dto"
	"github.com/wildanku/hala-ai/pkg/llm"
	"github.com/wildanku/hala-ai/pkg/vectorstore"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	ServiceName    = "hala-ai"
	ServiceVersion = "1.0.0"

	statusHealthy       = "healthy"
	statusDegraded      = "degraded"
	statusUp            = "up"
	statusDown          = "down"
	statusNotConfigured = "not_configured"
)

type IHealthService interface {
	Health() *dto.HealthResponse
	Detailed(ctx context.Context) *dto.DetailedHealthResponse
	Providers(ctx context.Context) []dto.ProviderHealth
}

// ScopeCache is the part of the scope embedding cache health reports on.
type ScopeCache interface {
	Ready() bool
}

// HealthDependencies lists what the health endpoints look at. DB, Redis and
// Generation may be nil.
type HealthDependencies struct {
	Stages     []string
	ScopeCache ScopeCache
	Embedding  string
	Generation llm.Provider
	Providers  map[string]llm.Provider
	Store      vectorstore.Store
	DB         *gorm.DB
	Redis      *redis.Client
}

type healthService struct {
	deps HealthDependencies
}

func NewHealthService(deps HealthDependencies) IHealthService {
	return &healthService{deps: deps}
}

func (s *healthService) Health() *dto.HealthResponse {
	return &dto.HealthResponse{
		Status:  statusHealthy,
		Service: ServiceName,
		Version: ServiceVersion,
	}
}

func (s *healthService) Detailed(ctx context.Context) *dto.DetailedHealthResponse {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp := &dto.DetailedHealthResponse{
		Status:           statusHealthy,
		Stages:           s.deps.Stages,
		ScopeCacheReady:  s.deps.ScopeCache != nil && s.deps.ScopeCache.Ready(),
		EmbeddingBackend: s.deps.Embedding,
		Collections:      make(map[string]int64),
		Database:         statusNotConfigured,
		Redis:            statusNotConfigured,
	}
	if s.deps.Generation != nil {
		resp.GenerationBackend = s.deps.Generation.Name()
	} else {
		resp.Status = statusDegraded
	}

	if s.deps.DB != nil {
		resp.Database = statusUp
		sqlDB, err := s.deps.DB.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			resp.Database = statusDown
			resp.Status = statusDegraded
		}
	}
	if s.deps.Redis != nil {
		resp.Redis = statusUp
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			resp.Redis = statusDown
			resp.Status = statusDegraded
		}
	}

	if s.deps.Store != nil {
		for _, c := range SyncedCollections {
			n, err := s.deps.Store.Count(ctx, c)
			if err != nil {
				resp.Status = statusDegraded
				continue
			}
			resp.Collections[c] = n
		}
	}
	return resp
}

// Providers health-checks every configured generation backend in parallel.
func (s *healthService) Providers(ctx context.Context) []dto.ProviderHealth {
	names := make([]string, 0, len(s.deps.Providers))
	for name := range s.deps.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	active := ""
	if s.deps.Generation != nil {
		active = s.deps.Generation.Name()
	}

	out := make([]dto.ProviderHealth, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		p := s.deps.Providers[name]
		out[i] = dto.ProviderHealth{Name: name, Model: p.Model(), Active: name == active}
		g.Go(func() error {
			out[i].Healthy = p.HealthCheck(gctx)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
