package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/fire-weather-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fire-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fire-weather-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/fire-weather-etl/internal/config"
	"github.com/couchcryptid/fire-weather-etl/internal/observability"
	"github.com/couchcryptid/fire-weather-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Checkpointing is feature-flagged via FWI_STATE_DB.
	var store *sqlite.Store
	var checkpoints pipeline.CheckpointStore
	if cfg.StateDB != "" {
		store, err = sqlite.Open(ctx, cfg.StateDB)
		if err != nil {
			logger.Error("failed to open checkpoint store", "path", cfg.StateDB, "error", err)
			os.Exit(1)
		}
		checkpoints = store
		logger.Info("checkpoint store opened", "path", cfg.StateDB)
	} else {
		logger.Info("checkpointing disabled, region state is kept in memory only")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(pipeline.TransformerConfig{
		InitialFFMC:    cfg.InitialFFMC,
		InitialDMC:     cfg.InitialDMC,
		InitialDC:      cfg.InitialDC,
		Equatorial:     cfg.Equatorial,
		StrictRanges:   cfg.StrictRanges,
		TargetCellSize: cfg.TargetCellSize,
		Interpolation:  cfg.Interpolation,
		CacheSize:      cfg.EngineCacheSize,
		Format:         cfg.OutputFormat,
	}, checkpoints, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, readiness{pipeline: p, store: store}, transformer, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("checkpoint store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness requires a loaded batch and, when checkpointing, a reachable
// database.
type readiness struct {
	pipeline *pipeline.Pipeline
	store    *sqlite.Store
}

func (r readiness) CheckReadiness(ctx context.Context) error {
	if err := r.pipeline.CheckReadiness(ctx); err != nil {
		return err
	}
	if r.store != nil {
		return r.store.Ping(ctx)
	}
	return nil
}
