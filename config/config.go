// Package config holds the gateway's recognized options, YAML loading, and
// layered merging of a base file with an override file.
package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Built-in values applied when a key is absent from every layer.
const (
	DefaultTimeout            = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultRetryBaseDelay     = 500 * time.Millisecond
	DefaultCacheTTL           = 5 * time.Minute
	DefaultRateLimitPerMinute = 60
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "500ms" or "30s", or from a bare nanosecond integer.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Config is the full set of recognized client options. Every field is a
// pointer so an absent key is distinguishable from an explicit zero when
// merging layers: zero disables a feature (deadline, retries, throttle),
// nil falls back to the default. Use the accessor methods for resolved
// values.
type Config struct {
	// Timeout is the per-call deadline. Zero disables the deadline.
	Timeout *Duration `yaml:"timeout"`

	// MaxRetries bounds re-attempts after the first try.
	MaxRetries *int `yaml:"max_retries"`

	// RetryBaseDelay seeds the exponential backoff schedule.
	RetryBaseDelay *Duration `yaml:"retry_base_delay"`

	// CacheTTL is the default lifetime of cached responses.
	CacheTTL *Duration `yaml:"cache_ttl"`

	// RateLimitPerMinute is the rolling-window admission limit. Zero
	// disables throttling.
	RateLimitPerMinute *int `yaml:"rate_limit_per_minute"`

	EnableCaching       *bool `yaml:"enable_caching"`
	EnableDeduplication *bool `yaml:"enable_deduplication"`
}

// Default returns the built-in configuration with every key set.
func Default() Config {
	return Config{
		Timeout:             lo.ToPtr(Duration(DefaultTimeout)),
		MaxRetries:          lo.ToPtr(DefaultMaxRetries),
		RetryBaseDelay:      lo.ToPtr(Duration(DefaultRetryBaseDelay)),
		CacheTTL:            lo.ToPtr(Duration(DefaultCacheTTL)),
		RateLimitPerMinute:  lo.ToPtr(DefaultRateLimitPerMinute),
		EnableCaching:       lo.ToPtr(true),
		EnableDeduplication: lo.ToPtr(true),
	}
}

// CallTimeout resolves the per-call deadline.
func (c Config) CallTimeout() time.Duration {
	return time.Duration(lo.FromPtrOr(c.Timeout, Duration(DefaultTimeout)))
}

// RetryLimit resolves the retry bound.
func (c Config) RetryLimit() int {
	return lo.FromPtrOr(c.MaxRetries, DefaultMaxRetries)
}

// RetryDelay resolves the backoff base delay.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(lo.FromPtrOr(c.RetryBaseDelay, Duration(DefaultRetryBaseDelay)))
}

// ResponseTTL resolves the default cache lifetime.
func (c Config) ResponseTTL() time.Duration {
	return time.Duration(lo.FromPtrOr(c.CacheTTL, Duration(DefaultCacheTTL)))
}

// RateLimit resolves the rolling-window admission limit.
func (c Config) RateLimit() int {
	return lo.FromPtrOr(c.RateLimitPerMinute, DefaultRateLimitPerMinute)
}

// CachingEnabled resolves the caching toggle, defaulting to enabled.
func (c Config) CachingEnabled() bool {
	return lo.FromPtrOr(c.EnableCaching, true)
}

// DeduplicationEnabled resolves the deduplication toggle, defaulting to
// enabled.
func (c Config) DeduplicationEnabled() bool {
	return lo.FromPtrOr(c.EnableDeduplication, true)
}

// Validate rejects configurations the pipeline cannot honor.
func (c Config) Validate() error {
	if c.Timeout != nil && *c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", time.Duration(*c.Timeout))
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", *c.MaxRetries)
	}
	if c.RetryBaseDelay != nil && *c.RetryBaseDelay < 0 {
		return fmt.Errorf("retry_base_delay must not be negative, got %v", time.Duration(*c.RetryBaseDelay))
	}
	if c.CacheTTL != nil && *c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %v", time.Duration(*c.CacheTTL))
	}
	if c.RateLimitPerMinute != nil && *c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative, got %d", *c.RateLimitPerMinute)
	}
	return nil
}

// Load reads a YAML config file. Keys absent from the file stay nil and
// resolve to their defaults through the accessors.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-specified config path is intentional
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadWithOverrides reads a base config file, then merges an override file
// on top of it, the override winning for every key it sets, including keys
// set to zero. Either path may be empty to skip that layer.
func LoadWithOverrides(basePath, overridePath string) (Config, error) {
	var base Config
	if basePath != "" {
		var err error
		base, err = Load(basePath)
		if err != nil {
			return Config{}, err
		}
	}

	if overridePath == "" {
		return base, nil
	}

	data, err := os.ReadFile(overridePath) //nolint:gosec // G304: user-specified config path is intentional
	if err != nil {
		return Config{}, fmt.Errorf("failed to read override file %s: %w", overridePath, err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Config{}, fmt.Errorf("failed to parse override file %s: %w", overridePath, err)
	}

	// Keys the override leaves nil fall back to the base layer; a set
	// pointer survives the merge even when it points at zero.
	if err := mergo.Merge(&override, base); err != nil {
		return Config{}, fmt.Errorf("failed to merge config layers: %w", err)
	}
	if err := override.Validate(); err != nil {
		return Config{}, err
	}
	return override, nil
}
