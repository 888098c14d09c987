package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/fire-weather-etl/internal/domain"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Codes assigned to a region seen for the first time.
	InitialFFMC float64
	InitialDMC  float64
	InitialDC   float64

	Equatorial   bool
	StrictRanges bool

	// TargetCellSize regrids inputs when positive.
	TargetCellSize float64
	Interpolation  raster.Interpolation

	// StateDB is the SQLite checkpoint path. Empty keeps state in memory.
	StateDB         string
	EngineCacheSize int

	OutputFormat domain.Format
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

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "weather-grids"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "fire-weather-indices"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "fire-weather-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		StateDB:            "fwi-state.db",
	}
	if v, ok := os.LookupEnv("FWI_STATE_DB"); ok {
		cfg.StateDB = v
	}

	if cfg.InitialFFMC, err = parseFloat("FWI_INITIAL_FFMC", 85); err != nil {
		return nil, err
	}
	if cfg.InitialDMC, err = parseFloat("FWI_INITIAL_DMC", 6); err != nil {
		return nil, err
	}
	if cfg.InitialDC, err = parseFloat("FWI_INITIAL_DC", 15); err != nil {
		return nil, err
	}
	if cfg.TargetCellSize, err = parseFloat("FWI_TARGET_CELL_SIZE", 0); err != nil {
		return nil, err
	}
	if cfg.Equatorial, err = parseBool("FWI_EQUATORIAL"); err != nil {
		return nil, err
	}
	if cfg.StrictRanges, err = parseBool("FWI_STRICT_RANGES"); err != nil {
		return nil, err
	}

	cfg.Interpolation, err = raster.ParseInterpolation(sharedcfg.EnvOrDefault("FWI_INTERPOLATION", "bilinear"))
	if err != nil {
		return nil, fmt.Errorf("invalid FWI_INTERPOLATION: %w", err)
	}
	cfg.OutputFormat, err = domain.ParseFormat(sharedcfg.EnvOrDefault("OUTPUT_FORMAT", "json"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTPUT_FORMAT: %w", err)
	}
	cfg.EngineCacheSize, err = strconv.Atoi(sharedcfg.EnvOrDefault("FWI_ENGINE_CACHE_SIZE", "64"))
	if err != nil || cfg.EngineCacheSize < 1 {
		return nil, errors.New("invalid FWI_ENGINE_CACHE_SIZE: must be a positive integer")
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.InitialFFMC < 0 || cfg.InitialFFMC > 101 {
		return nil, errors.New("invalid FWI_INITIAL_FFMC: must be within [0, 101]")
	}
	if cfg.InitialDMC < 0 {
		return nil, errors.New("invalid FWI_INITIAL_DMC: must not be negative")
	}
	if cfg.InitialDC < 0 {
		return nil, errors.New("invalid FWI_INITIAL_DC: must not be negative")
	}
	if cfg.TargetCellSize < 0 {
		return nil, errors.New("invalid FWI_TARGET_CELL_SIZE: must not be negative")
	}

	return cfg, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not a number", key, s)
	}
	return v, nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q is not a boolean", key, s)
	}
	return v, nil
}
