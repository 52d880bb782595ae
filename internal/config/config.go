package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
// The generator, predictor, and alert sender binaries share it.
type Config struct {
	KafkaBrokers []string
	KafkaGroupID string

	// PredictorTarget is the topic the generator dispatches reading sets to
	// and the predictor consumes from.
	PredictorTarget string
	// AlertTopic is the notification channel. Empty means not configured.
	AlertTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	GenerateInterval   time.Duration
	GenerateOnSchedule bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	generateInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("GENERATE_INTERVAL", "1m"))
	if err != nil || generateInterval <= 0 {
		return nil, errors.New("invalid GENERATE_INTERVAL")
	}

	onSchedule := true
	if v := os.Getenv("GENERATE_ON_SCHEDULE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid GENERATE_ON_SCHEDULE")
		}
		onSchedule = b
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "disaster-early-warning"),
		PredictorTarget:    sharedcfg.EnvOrDefault("PREDICTOR_FUNCTION", "DisasterPredictor"),
		AlertTopic:         os.Getenv("ALERT_TOPIC"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		GenerateInterval:   generateInterval,
		GenerateOnSchedule: onSchedule,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.PredictorTarget == "" {
		return nil, errors.New("PREDICTOR_FUNCTION is required")
	}

	return cfg, nil
}

// GroupID returns the consumer group for one component, so the predictor and
// the alert sender never share offsets.
func (c *Config) GroupID(component string) string {
	return c.KafkaGroupID + "-" + component
}
