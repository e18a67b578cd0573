package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/deskpulse/deskpulse/internal/adapter/cache"
	httpadapter "github.com/deskpulse/deskpulse/internal/adapter/http"
	"github.com/deskpulse/deskpulse/internal/adapter/ingest"
	"github.com/deskpulse/deskpulse/internal/adapter/persistence"
	"github.com/deskpulse/deskpulse/internal/config"
	"github.com/deskpulse/deskpulse/internal/logger"
	"github.com/deskpulse/deskpulse/internal/ports"
	"github.com/deskpulse/deskpulse/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "deskpulse",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":    cfg.Server.Environment,
		"source": cfg.Source.Kind,
	})

	source, cleanup, err := buildRecordSource(ctx, cfg, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize record source", err, nil)
		log.Fatalf("Failed to initialize record source: %v", err)
	}
	defer cleanup()

	reportCache, err := cache.NewReportCache(cache.Config{
		Enabled: cfg.Cache.Enabled,
		URL:     cfg.Cache.URL,
	}, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize report cache", err, map[string]interface{}{
			"redis_url": cfg.Cache.URL,
		})
		log.Fatalf("Failed to initialize report cache: %v", err)
	}

	store := usecase.NewSnapshotStore()
	reportUseCase := usecase.NewReportUseCase(source, store, reportCache, cfg.Cache.TTL, cfg.Thresholds(), structuredLogger)

	// Load the initial snapshot. A failed load is survivable: the server
	// comes up empty and a later POST /api/reload can recover.
	if reload, err := reportUseCase.Reload(ctx); err != nil {
		structuredLogger.Error(ctx, "Initial data load failed, serving without a snapshot", err, nil)
	} else {
		structuredLogger.Info(ctx, "Initial data loaded", map[string]interface{}{
			"snapshot_id":  reload.SnapshotID,
			"record_count": reload.RecordCount,
		})
	}

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		CORSOrigin:   cfg.Server.CORSOrigin,
	}, reportUseCase, structuredLogger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			structuredLogger.Error(ctx, "HTTP server failed", err, nil)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Shutdown failed", err, nil)
	}
	structuredLogger.Info(ctx, "Application stopped", nil)
}

// buildRecordSource wires the configured record source. The returned
// cleanup closes any underlying connection pool.
func buildRecordSource(ctx context.Context, cfg *config.Config, structuredLogger logger.Logger) (ports.RecordSource, func(), error) {
	switch cfg.Source.Kind {
	case "excel":
		return ingest.NewExcelSource(cfg.Source.Path, cfg.Source.Sheet, cfg.Source.RegionMapPath, structuredLogger), func() {}, nil
	case "csv":
		return ingest.NewCSVSource(cfg.Source.Path, structuredLogger), func() {}, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.GetDatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(cfg.Database.MaxConnections)

		pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return persistence.NewPostgresIncidentSource(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind: %s", cfg.Source.Kind)
	}
}
