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
	"github.com/couchcryptid/disaster-early-warning/internal/generator"
	"github.com/couchcryptid/disaster-early-warning/internal/observability"
)

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

	dispatcher := kafkaadapter.NewDispatcher(cfg, logger, metrics)
	gen := generator.New(dispatcher, cfg.PredictorTarget, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, gen, api.NewRouter("generator", gen, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if cfg.GenerateOnSchedule {
		go func() {
			if err := gen.Run(ctx, cfg.GenerateInterval); err != nil {
				logger.Error("generator schedule error", "error", err)
			}
		}()
	} else {
		logger.Info("scheduled generation disabled, serving direct invocations only")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := dispatcher.Close(); err != nil {
		logger.Error("kafka dispatcher close error", "error", err)
	}

	logger.Info("shutdown complete")
}
