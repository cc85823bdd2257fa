package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/wildanku/hala-ai/internal/config"
	"github.com/wildanku/hala-ai/internal/pkg/logger"
	"github.com/wildanku/hala-ai/internal/repository/unitofwork"
	"github.com/wildanku/hala-ai/internal/service"
	"github.com/wildanku/hala-ai/pkg/embedding"
	pktNats "github.com/wildanku/hala-ai/pkg/nats"

	"gorm.io/gorm"
)

// NewStandaloneSync wires only what a one-off sync run needs. The returned
// func releases the connections it opened.
func NewStandaloneSync(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.ILogger) (service.ISyncService, func(), error) {
	if db == nil {
		return nil, nil, fmt.Errorf("catalog sync needs a database")
	}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	rdb := connectRedis(ctx, cfg.Redis.URL, log)
	var checkpoint service.SyncCheckpoint
	if rdb != nil {
		closers = append(closers, func() { _ = rdb.Close() })
		checkpoint = service.NewRedisCheckpoint(rdb)
	}

	base, err := newEmbeddingProvider(ctx, cfg)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	embedder := embedding.NewCachedProvider(base, rdb, time.Duration(cfg.Redis.EmbeddingTTLMin)*time.Minute)

	var eventPublisher service.EventPublisher
	if cfg.Nats.Enabled {
		if pub, err := pktNats.NewPublisher(cfg.Nats.URL); err == nil {
			eventPublisher = pub
			closers = append(closers, pub.Close)
		} else {
			log.Warn("BOOTSTRAP", "Failed to connect NATS publisher", map[string]interface{}{"error": err.Error()})
		}
	}

	svc := service.NewSyncService(unitofwork.NewRepositoryFactory(db), embedder, checkpoint, nil, eventPublisher, log)
	return svc, closeAll, nil
}
