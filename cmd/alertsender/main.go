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
	"github.com/couchcryptid/disaster-early-warning/internal/sender"
)

const component = "alertsender"

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

	publisher := kafkaadapter.NewPublisher(cfg, logger)
	s := sender.New(publisher, cfg.AlertTopic, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Without a channel there is nothing to subscribe to; the sender still
	// serves direct invocations.
	var (
		reader *kafkaadapter.Reader
		ready  readinessFunc = func(context.Context) error { return nil }
	)
	if cfg.AlertTopic != "" {
		reader = kafkaadapter.NewReader(cfg, cfg.AlertTopic, cfg.GroupID(component), logger)
		p := pipeline.New(reader, s, logger, metrics, cfg.BatchSize)
		ready = p.CheckReadiness

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Warn("ALERT_TOPIC not set, channel subscription disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api.NewRouter(component, s, logger), logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka publisher close error", "error", err)
	}

	logger.Info("shutdown complete")
}

type readinessFunc func(ctx context.Context) error

func (f readinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }
