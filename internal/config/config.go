// Package config loads process configuration from environment variables,
// the way the teacher's pkg/config does: plain os.Getenv with defaults, no
// flag parsing, no config file.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrConfigurationMissing is returned by Load when a required variable is
// unset.
var ErrConfigurationMissing = errors.New("config: required environment variable is not set")

// Config is the fully-resolved process configuration (spec SPEC_FULL §10.3).
type Config struct {
	DatabaseURL string
	SECUserAgent string

	HTTPRequestDelaySeconds  float64
	HTTPMaxRetries           int
	HTTPBackoffBaseSeconds   float64

	ConvergenceWindow time.Duration

	// ScoringWeightsCEL, when non-empty, is a CEL expression overriding the
	// staged chain-scoring weight scheme (see pkg/chain's weight override
	// hook).
	ScoringWeightsCEL string

	// EvidenceArchiveURI, when non-empty, is an "s3://bucket/prefix" or
	// "gs://bucket/prefix" URI the evidence archiver uploads sealed bundles
	// to.
	EvidenceArchiveURI string

	// EvidenceArchivePassphrase derives the ChaCha20-Poly1305 key sealed
	// evidence bundles are encrypted under. Required only when
	// EvidenceArchiveURI is set.
	EvidenceArchivePassphrase string

	// RunCacheRedisURL, when non-empty, selects the Redis-backed run cache
	// over the default in-process map.
	RunCacheRedisURL string

	// RegimeOilPriceUSD/HasRegimeOilPrice, RegimeUraniumPriceUSD/
	// HasRegimeUraniumPrice, and RegimeUraniumTrend feed the optional
	// regime-context snapshot (see pkg/regimecontext) attached to every
	// alert this run emits. Absent entirely when the corresponding env var
	// is unset.
	RegimeOilPriceUSD     float64
	HasRegimeOilPrice     bool
	RegimeUraniumPriceUSD float64
	HasRegimeUraniumPrice bool
	RegimeUraniumTrend    string
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads Config from the process environment. DATABASE_URL is
// required; its absence is reported as ErrConfigurationMissing.
// SEC_USER_AGENT is required only by callers that invoke live SEC fetches,
// so its absence is not validated here.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, ErrConfigurationMissing
	}

	windowDays := getenvInt("CONVERGENCE_WINDOW_DAYS", 30)

	_, hasOilPrice := os.LookupEnv("REGIME_OIL_PRICE_USD")
	_, hasUraniumPrice := os.LookupEnv("REGIME_URANIUM_PRICE_USD")

	return &Config{
		DatabaseURL:             dbURL,
		SECUserAgent:            os.Getenv("SEC_USER_AGENT"),
		HTTPRequestDelaySeconds: getenvFloat("HTTP_REQUEST_DELAY_SECONDS", 0.3),
		HTTPMaxRetries:          getenvInt("HTTP_MAX_RETRIES", 3),
		HTTPBackoffBaseSeconds:  getenvFloat("HTTP_BACKOFF_BASE_SECONDS", 1.0),
		ConvergenceWindow:       time.Duration(windowDays) * 24 * time.Hour,
		ScoringWeightsCEL:       os.Getenv("SCORING_WEIGHTS_CEL"),
		EvidenceArchiveURI:        os.Getenv("EVIDENCE_ARCHIVE_URI"),
		EvidenceArchivePassphrase: os.Getenv("EVIDENCE_ARCHIVE_PASSPHRASE"),
		RunCacheRedisURL:        os.Getenv("RUN_CACHE_REDIS_URL"),
		RegimeOilPriceUSD:       getenvFloat("REGIME_OIL_PRICE_USD", 0),
		HasRegimeOilPrice:       hasOilPrice,
		RegimeUraniumPriceUSD:   getenvFloat("REGIME_URANIUM_PRICE_USD", 0),
		HasRegimeUraniumPrice:   hasUraniumPrice,
		RegimeUraniumTrend:      os.Getenv("REGIME_URANIUM_TREND"),
	}, nil
}
