package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/gonarrative/internal/llm"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, envKey string) {
		if *dst == "" {
			*dst = strings.TrimSpace(os.Getenv(envKey))
		}
	}
	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	// The provider-specific key can only be chosen once the provider is
	// known; otherwise ApplyFileConfig or ApplyDefaults picks it up.
	if cfg.LLMProvider != "" {
		setString(&cfg.LLMAPIKey, providerKeyEnv(cfg.LLMProvider))
	}
	setString(&cfg.Industry, "INDUSTRY")
	setString(&cfg.CacheBackend, "CACHE_BACKEND")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")

	if cfg.LLMMaxTokens == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("LLM_MAX_TOKENS"))); err == nil {
			cfg.LLMMaxTokens = n
		}
	}
	if cfg.LLMTemperature == 0 {
		if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv("LLM_TEMPERATURE")), 64); err == nil {
			cfg.LLMTemperature = f
		}
	}

	// Optional durations
	setDuration := func(dst *time.Duration, envKey string) {
		if *dst != 0 {
			return
		}
		if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.LLMTimeout, "LLM_TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// providerKeyEnv names the provider-specific API key variable.
func providerKeyEnv(provider string) string {
	if strings.EqualFold(strings.TrimSpace(provider), llm.ProviderAnthropic) {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}
