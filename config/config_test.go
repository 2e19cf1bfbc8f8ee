package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDefaultAccessors(t *testing.T) {
	cfg := Config{}
	if cfg.CallTimeout() != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.CallTimeout())
	}
	if cfg.RetryLimit() != DefaultMaxRetries {
		t.Errorf("expected default retry limit, got %d", cfg.RetryLimit())
	}
	if cfg.RetryDelay() != DefaultRetryBaseDelay {
		t.Errorf("expected default retry delay, got %v", cfg.RetryDelay())
	}
	if cfg.ResponseTTL() != DefaultCacheTTL {
		t.Errorf("expected default cache TTL, got %v", cfg.ResponseTTL())
	}
	if cfg.RateLimit() != DefaultRateLimitPerMinute {
		t.Errorf("expected default rate limit, got %d", cfg.RateLimit())
	}
	if !cfg.CachingEnabled() {
		t.Error("caching should default to enabled")
	}
	if !cfg.DeduplicationEnabled() {
		t.Error("deduplication should default to enabled")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
timeout: 10s
max_retries: 5
rate_limit_per_minute: 30
enable_caching: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CallTimeout() != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.CallTimeout())
	}
	if cfg.RetryLimit() != 5 {
		t.Errorf("expected max_retries 5, got %d", cfg.RetryLimit())
	}
	if cfg.RateLimit() != 30 {
		t.Errorf("expected rate limit 30, got %d", cfg.RateLimit())
	}
	if cfg.CachingEnabled() {
		t.Error("explicit enable_caching: false should disable caching")
	}
	// Keys absent from the file keep defaults.
	if cfg.ResponseTTL() != DefaultCacheTTL {
		t.Errorf("expected default cache_ttl, got %v", cfg.ResponseTTL())
	}
	if !cfg.DeduplicationEnabled() {
		t.Error("absent toggle should keep its default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, "config.yaml", "max_retries: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for negative max_retries")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	base := writeFile(t, "base.yaml", `
timeout: 20s
max_retries: 4
`)
	override := writeFile(t, "override.yaml", `
max_retries: 1
rate_limit_per_minute: 10
`)

	cfg, err := LoadWithOverrides(base, override)
	if err != nil {
		t.Fatalf("LoadWithOverrides: %v", err)
	}
	if cfg.RetryLimit() != 1 {
		t.Errorf("override should win for max_retries, got %d", cfg.RetryLimit())
	}
	if cfg.RateLimit() != 10 {
		t.Errorf("override should set rate limit, got %d", cfg.RateLimit())
	}
	if cfg.CallTimeout() != 20*time.Second {
		t.Errorf("base value should survive when override is silent, got %v", cfg.CallTimeout())
	}
}

func TestZeroValuedOverrideWinsMerge(t *testing.T) {
	base := writeFile(t, "base.yaml", `
max_retries: 3
rate_limit_per_minute: 60
timeout: 20s
`)
	override := writeFile(t, "override.yaml", `
max_retries: 0
rate_limit_per_minute: 0
timeout: 0s
`)

	cfg, err := LoadWithOverrides(base, override)
	if err != nil {
		t.Fatalf("LoadWithOverrides: %v", err)
	}
	if cfg.RetryLimit() != 0 {
		t.Errorf("explicit max_retries: 0 was lost in the merge, got %d", cfg.RetryLimit())
	}
	if cfg.RateLimit() != 0 {
		t.Errorf("explicit rate_limit_per_minute: 0 was lost in the merge, got %d", cfg.RateLimit())
	}
	if cfg.CallTimeout() != 0 {
		t.Errorf("explicit timeout: 0s was lost in the merge, got %v", cfg.CallTimeout())
	}
}

func TestLoadWithOverridesEmptyPaths(t *testing.T) {
	cfg, err := LoadWithOverrides("", "")
	if err != nil {
		t.Fatalf("LoadWithOverrides: %v", err)
	}
	if cfg.RetryLimit() != DefaultMaxRetries || cfg.RateLimit() != DefaultRateLimitPerMinute {
		t.Errorf("expected defaults when both layers are empty, got %+v", cfg)
	}
}
