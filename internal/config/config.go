package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all simulator settings, populated from environment variables.
type Config struct {
	MistDuration  time.Duration
	StormDuration time.Duration
	PhasePause    time.Duration
	ReliefPause   time.Duration

	// Seed fixes the random stream when HasSeed is true.
	Seed    uint64
	HasSeed bool
	Instant bool

	CatalogFile string
	ExportPath  string
	Quiet       bool

	// HTTPAddr and KafkaBrokers are optional; empty disables the surface.
	HTTPAddr     string
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CatalogFile:     sharedcfg.EnvOrDefault("CATALOG_FILE", ""),
		ExportPath:      sharedcfg.EnvOrDefault("EXPORT_PATH", "gentle_weather_ceremony_log.txt"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ""),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-ceremony-events"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		ShutdownTimeout: shutdownTimeout,
	}
	if brokers := sharedcfg.EnvOrDefault("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.MistDuration, err = parseDuration("MIST_DURATION", "15s", true); err != nil {
		return nil, err
	}
	if cfg.StormDuration, err = parseDuration("STORM_DURATION", "35s", true); err != nil {
		return nil, err
	}
	if cfg.PhasePause, err = parseDuration("PHASE_PAUSE", "2s", false); err != nil {
		return nil, err
	}
	if cfg.ReliefPause, err = parseDuration("RELIEF_PAUSE", "2s", false); err != nil {
		return nil, err
	}
	if cfg.Instant, err = parseBool("INSTANT"); err != nil {
		return nil, err
	}
	if cfg.Quiet, err = parseBool("QUIET"); err != nil {
		return nil, err
	}

	if s := sharedcfg.EnvOrDefault("SEED", ""); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errors.New("invalid SEED: must be an unsigned integer")
		}
		cfg.Seed, cfg.HasSeed = seed, true
	}

	return cfg, nil
}

// parseDuration reads a duration variable. Phase lengths must be positive;
// pauses may be zero.
func parseDuration(key, fallback string, positive bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d < 0 || (positive && d == 0) {
		if positive {
			return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
		}
		return 0, fmt.Errorf("invalid %s: must be a non-negative duration", key)
	}
	return d, nil
}

func parseBool(key string) (bool, error) {
	b, err := strconv.ParseBool(sharedcfg.EnvOrDefault(key, "false"))
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be a boolean", key)
	}
	return b, nil
}
