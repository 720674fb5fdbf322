package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into the
// config (e.g. "geocode.daily_limit").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate statically checks a loaded Config and returns every finding.
// Callers decide whether warnings are fatal.
func Validate(cfg Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "dsn",
			Message:  "dsn must not be empty",
		})
	}
	if strings.TrimSpace(cfg.FragmentsDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "fragments_dir",
			Message:  "fragments_dir must not be empty",
		})
	}

	issues = append(issues, validatePool(cfg.Pool)...)
	issues = append(issues, validateRuntime(cfg.Runtime)...)
	issues = append(issues, validateInference(cfg.Inference)...)
	issues = append(issues, validateGeocode(cfg.Geocode)...)

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validatePool(p PoolConfig) []Issue {
	var issues []Issue

	if p.MaxConns < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "pool.max_conns",
			Message:  "max_conns must not be negative",
		})
	}
	if p.MinConns < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "pool.min_conns",
			Message:  "min_conns must not be negative",
		})
	}
	if p.MaxConns > 0 && p.MinConns > p.MaxConns {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "pool.min_conns",
			Message:  fmt.Sprintf("min_conns=%d exceeds max_conns=%d", p.MinConns, p.MaxConns),
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must not be negative",
		})
	}
	if r.Workers > 15 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.workers",
			Message:  fmt.Sprintf("workers=%d will be clamped to 15", r.Workers),
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.BatchSize > 0 && (r.BatchSize < 1000 || r.BatchSize > 10000) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d will be clamped into [1000, 10000]", r.BatchSize),
		})
	}
	return issues
}

func validateInference(inf InferenceConfig) []Issue {
	var issues []Issue

	ratio := func(path string, v float64) {
		if v < 0 || v > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("threshold %v must be within [0, 1]", v),
			})
		}
	}
	ratio("inference.percent_threshold", inf.PercentThreshold)
	ratio("inference.currency_threshold", inf.CurrencyThreshold)
	ratio("inference.numeric_threshold", inf.NumericThreshold)

	if inf.SampleSize < 0 || inf.PatternSample < 0 || inf.DecimalSample < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "inference",
			Message:  "sample sizes must not be negative",
		})
	}
	return issues
}

func validateGeocode(g GeocodeConfig) []Issue {
	var issues []Issue

	if g.APIKey == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "geocode.api_key",
			Message:  "no API key; rows will load without coordinates",
		})
		return issues
	}

	if g.RequestsPerSecond <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "geocode.requests_per_second",
			Message:  "requests_per_second must be positive",
		})
	}
	if g.DailyLimit <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "geocode.daily_limit",
			Message:  "daily_limit must be positive",
		})
	}
	if strings.TrimSpace(g.CachePath) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "geocode.cache_path",
			Message:  "no cache path; every run will spend quota on repeat lookups",
		})
	}
	return issues
}
