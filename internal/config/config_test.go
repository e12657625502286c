package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"FATEBOOK_BASE_URL", "LOG_LEVEL", "REQUEST_TIMEOUT", "REQUESTS_PER_SEC", "FORM_TIMEOUT", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SSLMODE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.FatebookBaseURL != "https://fatebook.io" {
		t.Errorf("FatebookBaseURL = %q", cfg.FatebookBaseURL)
	}
	if cfg.RequestTimeoutDuration() != 30*time.Second {
		t.Errorf("RequestTimeoutDuration = %v", cfg.RequestTimeoutDuration())
	}
	if cfg.RequestsPerSec != 5 || cfg.FormTimeoutDuration() != 10*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DB.Host != "localhost" || cfg.DB.Port != "5432" || cfg.DB.SSLMode != "disable" {
		t.Errorf("unexpected DB defaults: %+v", cfg.DB)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FATEBOOK_BASE_URL", "http://localhost:3000")
	t.Setenv("FATEBOOK_API_KEY", "k")
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("REQUESTS_PER_SEC", "not-a-number")
	t.Setenv("FORM_TIMEOUT", "-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.FatebookBaseURL != "http://localhost:3000" || cfg.FatebookAPIKey != "k" {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.RequestTimeout != 5 {
		t.Errorf("RequestTimeout = %d", cfg.RequestTimeout)
	}
	if cfg.RequestsPerSec != 5 {
		t.Errorf("invalid value should fall back to default, got %d", cfg.RequestsPerSec)
	}
	if cfg.FormTimeout != 600 {
		t.Errorf("negative value should fall back to default, got %d", cfg.FormTimeout)
	}
}
