package config

import (
	"errors"
	"testing"
)

func clearEnv(t *testing.T) {
	vars := []string{
		"DATABASE_URL", "SEC_USER_AGENT", "HTTP_REQUEST_DELAY_SECONDS",
		"HTTP_MAX_RETRIES", "HTTP_BACKOFF_BASE_SECONDS", "CONVERGENCE_WINDOW_DAYS",
		"SCORING_WEIGHTS_CEL", "EVIDENCE_ARCHIVE_URI", "EVIDENCE_ARCHIVE_PASSPHRASE", "RUN_CACHE_REDIS_URL",
		"REGIME_OIL_PRICE_USD", "REGIME_URANIUM_PRICE_USD", "REGIME_URANIUM_TREND",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Errorf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPRequestDelaySeconds != 0.3 {
		t.Errorf("expected default delay 0.3, got %v", cfg.HTTPRequestDelaySeconds)
	}
	if cfg.HTTPMaxRetries != 3 {
		t.Errorf("expected default retries 3, got %d", cfg.HTTPMaxRetries)
	}
	if cfg.ConvergenceWindow.Hours() != 30*24 {
		t.Errorf("expected default 30-day window, got %v", cfg.ConvergenceWindow)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("HTTP_MAX_RETRIES", "5")
	t.Setenv("CONVERGENCE_WINDOW_DAYS", "14")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPMaxRetries != 5 {
		t.Errorf("expected override retries 5, got %d", cfg.HTTPMaxRetries)
	}
	if cfg.ConvergenceWindow.Hours() != 14*24 {
		t.Errorf("expected 14-day window override, got %v", cfg.ConvergenceWindow)
	}
}
