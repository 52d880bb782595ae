package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/disaster-early-warning/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-early-warning/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-early-warning/internal/api"
	"github.com/couchcryptid/disaster-early-warning/internal/config"
	"github.com/couchcryptid/disaster-early-warning/internal/observability"
	"github.com/couchcryptid/disaster-early-warning/internal/pipeline"
	"github.com/couchcryptid/disaster-early-warning/internal/predictor"
)

const component = "predictor"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	gin.SetMode(gin.ReleaseMode)

	if cfg.AlertTopic == "" {
		logger.Warn("ALERT_TOPIC not set, alerts will be classified but not published")
	}

	publisher := kafkaadapter.NewPublisher(cfg, logger)
	pred := predictor.New(publisher, cfg.AlertTopic, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, cfg.PredictorTarget, cfg.GroupID(component), logger)
	p := pipeline.New(reader, pred, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, api.NewRouter(component, pred, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
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
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka publisher close error", "error", err)
	}

	logger.Info("shutdown complete")
}
