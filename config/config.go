package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kickcheck/reconciler/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig         `mapstructure:"app"`
	StockX     MarketplaceConfig `mapstructure:"stockx"`
	Alias      MarketplaceConfig `mapstructure:"alias"`
	RateLimit  RateLimitConfig   `mapstructure:"ratelimit"`
	Matching   MatchingConfig    `mapstructure:"matching"`
	Resolver   ResolverConfig    `mapstructure:"resolver"`
	Processing ProcessingConfig  `mapstructure:"processing"`
	Cache      CacheConfig       `mapstructure:"cache"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Debug bool   `mapstructure:"debug"`
}

// MarketplaceConfig holds the connection settings for one marketplace API
type MarketplaceConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds the request pacing and retry configuration shared
// by both marketplace clients
type RateLimitConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	Breaker    BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
}

// MatchingConfig holds fuzzy matching configuration
type MatchingConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
	EnableFuzzy   bool    `mapstructure:"enable_fuzzy"`
	FuzzyDistance int     `mapstructure:"fuzzy_distance"`
}

// ResolverConfig holds size variant resolution configuration
type ResolverConfig struct {
	CategoryFallbackOrder []string `mapstructure:"category_fallback_order"`
}

// CategoryOrder converts the configured fallback order to size categories
func (c ResolverConfig) CategoryOrder() []domain.SizeCategory {
	order := make([]domain.SizeCategory, 0, len(c.CategoryFallbackOrder))
	for _, name := range c.CategoryFallbackOrder {
		order = append(order, domain.SizeCategory(name))
	}
	return order
}

// ProcessingConfig holds batch processing configuration
type ProcessingConfig struct {
	Parallel      bool `mapstructure:"parallel"`
	MaxWorkers    int  `mapstructure:"max_workers"`
	ProgressEvery int  `mapstructure:"progress_every"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// Load loads configuration from environment variables and config files.
// An explicit path must exist; otherwise the config file is optional and
// defaults plus environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/kickcheck/")
	}

	// Environment variable settings
	v.SetEnvPrefix("KICKCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "kickcheck-reconciler")
	v.SetDefault("app.debug", false)

	// Marketplace defaults. The empty api_key defaults register the keys
	// with viper so the KICKCHECK_*_API_KEY env vars are picked up on
	// unmarshal.
	v.SetDefault("stockx.api_key", "")
	v.SetDefault("stockx.base_url", "https://api.stockx.com/v2")
	v.SetDefault("stockx.timeout", "30s")
	v.SetDefault("alias.api_key", "")
	v.SetDefault("alias.base_url", "https://api.alias.org/api/v1")
	v.SetDefault("alias.timeout", "30s")

	// Rate limit defaults
	v.SetDefault("ratelimit.interval", "2s")
	v.SetDefault("ratelimit.max_retries", 3)
	v.SetDefault("ratelimit.base_delay", "2s")
	v.SetDefault("ratelimit.breaker.enabled", true)
	v.SetDefault("ratelimit.breaker.failure_threshold", 5)
	v.SetDefault("ratelimit.breaker.recovery_timeout", "60s")

	// Matching defaults
	v.SetDefault("matching.min_confidence", 0.6)
	v.SetDefault("matching.enable_fuzzy", true)
	v.SetDefault("matching.fuzzy_distance", 2)

	// Resolver defaults
	v.SetDefault("resolver.category_fallback_order", []string{"men", "women", "youth", "child"})

	// Processing defaults
	v.SetDefault("processing.parallel", false)
	v.SetDefault("processing.max_workers", 3)
	v.SetDefault("processing.progress_every", 5)

	// Cache defaults
	v.SetDefault("cache.cleanup_interval", "10m")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.StockX.APIKey == "" {
		return fmt.Errorf("StockX API key is required (set KICKCHECK_STOCKX_API_KEY)")
	}
	if config.Alias.APIKey == "" {
		return fmt.Errorf("Alias API key is required (set KICKCHECK_ALIAS_API_KEY)")
	}

	if config.StockX.Timeout <= 0 || config.Alias.Timeout <= 0 {
		return fmt.Errorf("marketplace timeouts must be positive")
	}

	if config.RateLimit.Interval < 0 {
		return fmt.Errorf("ratelimit interval must not be negative")
	}
	if config.RateLimit.MaxRetries < 0 {
		return fmt.Errorf("ratelimit max_retries must not be negative")
	}
	if config.RateLimit.BaseDelay <= 0 {
		return fmt.Errorf("ratelimit base_delay must be positive")
	}
	if config.RateLimit.Breaker.Enabled {
		if config.RateLimit.Breaker.FailureThreshold < 1 {
			return fmt.Errorf("breaker failure_threshold must be at least 1")
		}
		if config.RateLimit.Breaker.RecoveryTimeout <= 0 {
			return fmt.Errorf("breaker recovery_timeout must be positive")
		}
	}

	if config.Matching.MinConfidence < 0 || config.Matching.MinConfidence > 1 {
		return fmt.Errorf("matching min_confidence must be between 0 and 1, got: %v", config.Matching.MinConfidence)
	}
	if config.Matching.FuzzyDistance < 0 {
		return fmt.Errorf("matching fuzzy_distance must not be negative")
	}

	for _, name := range config.Resolver.CategoryFallbackOrder {
		if !domain.ValidCategory(domain.SizeCategory(name)) {
			return fmt.Errorf("unknown size category in fallback order: %q", name)
		}
	}

	if config.Processing.MaxWorkers < 1 {
		return fmt.Errorf("processing max_workers must be at least 1")
	}
	if config.Processing.ProgressEvery < 1 {
		return fmt.Errorf("processing progress_every must be at least 1")
	}

	if config.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("cache cleanup_interval must be positive")
	}

	return nil
}
