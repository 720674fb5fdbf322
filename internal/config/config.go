// Package config defines the runtime configuration for a load run. Values
// come from an optional YAML file overlaid with environment variables via
// cleanenv, so a bare `ETL_DSN=... etl` works in CI while deployments carry a
// config file.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"energyetl/internal/schema"
)

// Config is the full runtime configuration.
type Config struct {
	// DSN is the pgx connection string, e.g. postgres://user:pw@host/db.
	DSN string `yaml:"dsn" env:"ETL_DSN"`

	// FragmentsDir holds the pre-fetched fragment JSON files to load.
	FragmentsDir string `yaml:"fragments_dir" env:"ETL_FRAGMENTS_DIR" env-default:"fragments"`

	Pool      PoolConfig      `yaml:"pool"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Inference InferenceConfig `yaml:"inference"`
	Geocode   GeocodeConfig   `yaml:"geocode"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// LogLevel selects zap's level: debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"ETL_LOG_LEVEL" env-default:"info"`
}

// PoolConfig bounds the tracked connection pool.
type PoolConfig struct {
	MinConns int `yaml:"min_conns" env:"ETL_POOL_MIN_CONNS" env-default:"0"`
	MaxConns int `yaml:"max_conns" env:"ETL_POOL_MAX_CONNS" env-default:"4"`
}

// RuntimeConfig controls partition concurrency and insert batching.
type RuntimeConfig struct {
	// Workers is the number of fragments processed concurrently, clamped to
	// [1, 15] by the runner.
	Workers int `yaml:"workers" env:"ETL_WORKERS" env-default:"4"`
	// BatchSize is rows per INSERT statement, clamped to [1000, 10000] by the
	// loader; zero selects the default.
	BatchSize int `yaml:"batch_size" env:"ETL_BATCH_SIZE" env-default:"0"`
}

// InferenceConfig tunes the type-inference heuristics. Zero fields fall back
// to the defaults.
type InferenceConfig struct {
	SampleSize        int     `yaml:"sample_size" env:"ETL_INFER_SAMPLE_SIZE" env-default:"0"`
	PatternSample     int     `yaml:"pattern_sample" env:"ETL_INFER_PATTERN_SAMPLE" env-default:"0"`
	DecimalSample     int     `yaml:"decimal_sample" env:"ETL_INFER_DECIMAL_SAMPLE" env-default:"0"`
	PercentThreshold  float64 `yaml:"percent_threshold" env:"ETL_INFER_PERCENT_THRESHOLD" env-default:"0"`
	CurrencyThreshold float64 `yaml:"currency_threshold" env:"ETL_INFER_CURRENCY_THRESHOLD" env-default:"0"`
	NumericThreshold  float64 `yaml:"numeric_threshold" env:"ETL_INFER_NUMERIC_THRESHOLD" env-default:"0"`
}

// Heuristics converts the overrides into the inference settings, filling
// zero fields from the defaults.
func (c InferenceConfig) Heuristics() schema.Inference {
	inf := schema.DefaultInference()
	if c.SampleSize > 0 {
		inf.SampleSize = c.SampleSize
	}
	if c.PatternSample > 0 {
		inf.PatternSample = c.PatternSample
	}
	if c.DecimalSample > 0 {
		inf.DecimalSample = c.DecimalSample
	}
	if c.PercentThreshold > 0 {
		inf.PercentThreshold = c.PercentThreshold
	}
	if c.CurrencyThreshold > 0 {
		inf.CurrencyThreshold = c.CurrencyThreshold
	}
	if c.NumericThreshold > 0 {
		inf.NumericThreshold = c.NumericThreshold
	}
	return inf
}

// GeocodeConfig configures the Google geocoder stack. An empty APIKey
// disables enrichment for the run.
type GeocodeConfig struct {
	APIKey string `yaml:"api_key" env:"ETL_GEOCODE_API_KEY"`
	// CachePath is the persistent JSON lookup cache.
	CachePath string `yaml:"cache_path" env:"ETL_GEOCODE_CACHE" env-default:"geocode_cache.json"`
	// RequestsPerSecond throttles provider calls.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"ETL_GEOCODE_RPS" env-default:"1"`
	// DailyLimit caps provider calls per calendar day.
	DailyLimit int    `yaml:"daily_limit" env:"ETL_GEOCODE_DAILY_LIMIT" env-default:"2000"`
	Region     string `yaml:"region" env:"ETL_GEOCODE_REGION" env-default:"au"`
	Language   string `yaml:"language" env:"ETL_GEOCODE_LANGUAGE" env-default:"en"`
}

// MetricsConfig configures the optional Pushgateway backend. An empty
// GatewayURL leaves the no-op backend in place.
type MetricsConfig struct {
	GatewayURL string `yaml:"gateway_url" env:"ETL_METRICS_GATEWAY"`
	Job        string `yaml:"job" env:"ETL_METRICS_JOB" env-default:"energyetl"`
}

// Load reads configuration from path (when non-empty) overlaid with
// environment variables. With an empty path only the environment is read.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read environment: %w", err)
	}
	return cfg, nil
}
