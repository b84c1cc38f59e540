package smartrouter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level router configuration.
type Config struct {
	// Strategy selects the cost/quality trade-off applied when no routing
	// rule matches. Defaults to balanced.
	Strategy Strategy `yaml:"strategy"`

	// DailyBudget is the daily spend cap in dollars. 0 means unlimited.
	// When the cap is reached, strategy selection collapses to the
	// cheapest eligible model; requests are never rejected.
	DailyBudget float64 `yaml:"daily_budget"`

	// CacheTTLSeconds controls how long responses are replayed from cache.
	// 0 disables caching.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// EnableFallback retries a failed provider call once on the fallback
	// model.
	EnableFallback bool `yaml:"enable_fallback"`

	// FallbackModel is the model used for the fallback retry.
	FallbackModel string `yaml:"fallback_model"`

	// BaselineModel is the reference model that savings are measured
	// against.
	BaselineModel string `yaml:"baseline_model"`

	// Models overrides the built-in catalog when non-empty.
	Models []ModelProfile `yaml:"models"`

	// Credentials maps provider name to API key. Values are handed to the
	// Provider via Credential and are never logged or embedded in errors.
	Credentials map[string]string `yaml:"provider_credentials"`
}

// DefaultConfig returns the configuration used when a field is left at its
// zero value.
func DefaultConfig() Config {
	return Config{
		Strategy:        DefaultStrategy,
		CacheTTLSeconds: 3600,
		EnableFallback:  true,
		FallbackModel:   DefaultFallbackModel,
		BaselineModel:   DefaultBaselineModel,
	}
}

// LoadConfig reads and parses a YAML config file. Environment variables in
// the format ${VAR} are expanded before parsing, and absent keys keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("smartrouter: read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("smartrouter: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Credential returns the API key configured for a provider, or "" when none
// is set.
func (c Config) Credential(provider string) string {
	return c.Credentials[provider]
}

// withDefaults fills the fields whose zero value cannot be meant literally.
// Zero DailyBudget and CacheTTLSeconds are valid settings (unlimited,
// disabled) and stay as given.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.FallbackModel == "" {
		c.FallbackModel = def.FallbackModel
	}
	if c.BaselineModel == "" {
		c.BaselineModel = def.BaselineModel
	}
	return c
}

// Validate checks the config for required fields and consistency.
func (c Config) Validate() error {
	if _, err := ParseStrategy(string(c.Strategy)); c.Strategy != "" && err != nil {
		return fmt.Errorf("smartrouter: config: %w", err)
	}
	if c.DailyBudget < 0 {
		return fmt.Errorf("smartrouter: config: daily_budget must not be negative, got %v", c.DailyBudget)
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("smartrouter: config: cache_ttl_seconds must not be negative, got %d", c.CacheTTLSeconds)
	}

	ids := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("smartrouter: config: models[%d]: id is required", i)
		}
		if m.Provider == "" {
			return fmt.Errorf("smartrouter: config: models[%d] (%s): provider is required", i, m.ID)
		}
		if m.InputPer1K < 0 || m.OutputPer1K < 0 {
			return fmt.Errorf("smartrouter: config: models[%d] (%s): prices must not be negative", i, m.ID)
		}
		if ids[m.ID] {
			return fmt.Errorf("smartrouter: config: duplicate model id %q", m.ID)
		}
		ids[m.ID] = true
	}

	return nil
}
