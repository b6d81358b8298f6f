package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// MaxKeySlots bounds the OPENROUTER_API_KEY_<n> slots scanned from the environment.
const MaxKeySlots = 11

// DefaultModels is the model fallback order used when none is configured.
var DefaultModels = []string{
	"google/gemini-2.0-flash-exp:free:online",
	"mistralai/mistral-small-3.2-24b-instruct:free:online",
	"deepseek/deepseek-r1-distill-llama-70b:free:online",
	"meta-llama/llama-3.3-70b-instruct:free:online",
}

// OpenRouterConfig configures the keyword gateway: an ordered key pool and an
// ordered model pool.
type OpenRouterConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKeys        []string      `mapstructure:"api_keys"`
	KeyEnvPrefix   string        `mapstructure:"key_env_prefix"`
	Models         []string      `mapstructure:"models"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	Referer        string        `mapstructure:"referer"`
	Title          string        `mapstructure:"title"`
}

// ResolveKeys appends OPENROUTER_API_KEY_0..10 (or <KeyEnvPrefix>_<n>) to the
// configured keys. Blank slots are skipped and duplicates dropped, order kept.
func (c *OpenRouterConfig) ResolveKeys() {
	prefix := c.keyPrefix()
	candidates := append([]string{}, c.APIKeys...)
	for i := 0; i < MaxKeySlots; i++ {
		candidates = append(candidates, os.Getenv(fmt.Sprintf("%s_%d", prefix, i)))
	}

	seen := make(map[string]struct{}, len(candidates))
	keys := make([]string, 0, len(candidates))
	for _, k := range candidates {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	c.APIKeys = keys
}

// Validate reports the first problem that would stop the gateway from working.
func (c *OpenRouterConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("openrouter: base_url is required")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("openrouter: at least one model is required")
	}
	if len(c.APIKeys) == 0 {
		return fmt.Errorf("openrouter: no api keys (set %s_0..%d)", c.keyPrefix(), MaxKeySlots-1)
	}
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("openrouter: attempt_timeout must be positive")
	}
	return nil
}

func (c *OpenRouterConfig) keyPrefix() string {
	if c.KeyEnvPrefix == "" {
		return "OPENROUTER_API_KEY"
	}
	return c.KeyEnvPrefix
}
