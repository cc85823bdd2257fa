package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/wildanku/hala-ai/internal/bootstrap"
	"github.com/wildanku/hala-ai/internal/config"
	"github.com/wildanku/hala-ai/internal/server"
	"github.com/wildanku/hala-ai/internal/service"
	"github.com/wildanku/hala-ai/internal/tracer"
	"github.com/wildanku/hala-ai/pkg/database"

	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional: without it the store is in memory)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer container.Close()

	shutdownTracer := tracer.InitTracer(ctx, service.ServiceName, service.ServiceVersion, container.Logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	// 4. Start Background Services
	if err := container.StartConsumers(ctx); err != nil {
		container.Logger.Error("MAIN", "Background consumers not started", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// 5. Initialize and run the server until a signal arrives
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
