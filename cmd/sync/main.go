package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/wildanku/hala-ai/internal/bootstrap"
	"github.com/wildanku/hala-ai/internal/config"
	"github.com/wildanku/hala-ai/internal/dto"
	"github.com/wildanku/hala-ai/internal/pkg/logger"
	"github.com/wildanku/hala-ai/internal/service"
	"github.com/wildanku/hala-ai/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

func main() {
	full := flag.Bool("full", false, "reset the semantic collections and re-index everything")
	referenceID := flag.String("reference", "", "sync a single knowledge reference by id")
	templateID := flag.String("template", "", "sync a single journey template by id")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		fail("DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		fail("failed to connect to database: %v", err)
	}

	log := logger.NewZapLogger(cfg.App.SyncLogFilePath, cfg.App.Environment == "production")
	svc, closeAll, err := bootstrap.NewStandaloneSync(ctx, db, cfg, log)
	if err != nil {
		fail("%v", err)
	}
	defer closeAll()

	switch {
	case *referenceID != "":
		syncOne(ctx, "knowledge reference", *referenceID, svc.SyncKnowledgeReference)
	case *templateID != "":
		syncOne(ctx, "journey template", *templateID, svc.SyncJourneyTemplate)
	default:
		mode := "incremental"
		if *full {
			mode = "full"
		}
		color.Cyan("Starting %s sync...", mode)
		stats, err := svc.RunAll(ctx, *full)
		if err != nil {
			fail("sync failed: %v", err)
		}
		printStats(stats)
		if stats.Errors > 0 {
			os.Exit(1)
		}
	}
}

func syncOne(ctx context.Context, label, raw string, fn func(context.Context, uuid.UUID) error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		fail("invalid %s id %q", label, raw)
	}
	color.Cyan("Syncing %s %s...", label, id)
	if err := fn(ctx, id); err != nil {
		if errors.Is(err, service.ErrCatalogNotFound) {
			fail("%s %s not found", label, id)
		}
		fail("sync failed: %v", err)
	}
	color.Green("Done.")
}

func printStats(stats *dto.SyncStats) {
	color.Green("Sync finished in %.2fs", stats.DurationSeconds)
	color.White("  knowledge references: %d", stats.KnowledgeReferencesSynced)
	color.White("  retrieval documents:  %d", stats.RetrievalDocumentsSynced)
	color.White("  journey templates:    %d", stats.JourneyTemplatesSynced)
	if stats.Errors > 0 {
		color.Red("  errors:               %d", stats.Errors)
	}
	for collection, n := range stats.CollectionCounts {
		color.Yellow("  %-22s %d", collection+":", n)
	}
}

func fail(format string, args ...interface{}) {
	color.Red(format, args...)
	os.Exit(1)
}
