package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/gonarrative/internal/llm"
	"github.com/hyperifyio/gonarrative/internal/narrative"
	"github.com/hyperifyio/gonarrative/internal/prompt"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and env.
type FileConfig struct {
	LLM struct {
		Provider     string        `yaml:"provider" json:"provider"`
		BaseURL      string        `yaml:"base" json:"base"`
		Model        string        `yaml:"model" json:"model"`
		APIKey       string        `yaml:"key" json:"key"`
		MaxTokens    int           `yaml:"maxTokens" json:"maxTokens"`
		Temperature  float64       `yaml:"temperature" json:"temperature"`
		Timeout      time.Duration `yaml:"timeout" json:"timeout"`
		SystemPrompt string        `yaml:"systemPrompt" json:"systemPrompt"`
	} `yaml:"llm" json:"llm"`

	Industry string `yaml:"industry" json:"industry"`
	Verbose  bool   `yaml:"verbose" json:"verbose"`

	Cache struct {
		Backend     string        `yaml:"backend" json:"backend"`
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		RedisAddr   string        `yaml:"redisAddr" json:"redisAddr"`
	} `yaml:"cache" json:"cache"`

	Server struct {
		Listen         string   `yaml:"listen" json:"listen"`
		CORSOrigins    []string `yaml:"corsOrigins" json:"corsOrigins"`
		MaxUploadBytes int64    `yaml:"maxUploadBytes" json:"maxUploadBytes"`
	} `yaml:"server" json:"server"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for any fields that are
// still unset after flags and environment were applied.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = fc.LLM.Provider
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" {
		// env still beats the file, now that the provider is settled
		cfg.LLMAPIKey = strings.TrimSpace(os.Getenv(providerKeyEnv(cfg.LLMProvider)))
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = fc.LLM.MaxTokens
	}
	if cfg.LLMTemperature == 0 {
		cfg.LLMTemperature = fc.LLM.Temperature
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = fc.LLM.Timeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = fc.LLM.SystemPrompt
	}
	if cfg.Industry == "" {
		cfg.Industry = fc.Industry
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if cfg.CacheBackend == "" {
		cfg.CacheBackend = fc.Cache.Backend
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = fc.Cache.RedisAddr
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fc.Server.Listen
	}
	if len(cfg.CORSOrigins) == 0 && len(fc.Server.CORSOrigins) > 0 {
		cfg.CORSOrigins = append([]string{}, fc.Server.CORSOrigins...)
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = fc.Server.MaxUploadBytes
	}
}

// ApplyDefaults fills whatever flags, env and file left unset.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = llm.ProviderOpenAI
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = strings.TrimSpace(os.Getenv(providerKeyEnv(cfg.LLMProvider)))
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = narrative.DefaultModel
		if cfg.LLMProvider == llm.ProviderAnthropic {
			cfg.LLMModel = narrative.DefaultAnthropicModel
		}
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = narrative.DefaultMaxTokens
	}
	if cfg.LLMTemperature == 0 {
		cfg.LLMTemperature = narrative.DefaultTemperature
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = narrative.DefaultTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = narrative.DefaultSystemPrompt
	}
	if strings.TrimSpace(cfg.Industry) == "" {
		cfg.Industry = prompt.DefaultIndustry
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = CacheMemory
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
}

// ValidateConfig checks ranges and enumerations. The API key is checked
// separately by CheckCredential because offline commands do not need it.
func ValidateConfig(cfg Config) error {
	switch cfg.LLMProvider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		return fmt.Errorf("config: unknown llm.provider %q (use %s or %s)", cfg.LLMProvider, llm.ProviderOpenAI, llm.ProviderAnthropic)
	}
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required (or set LLM_MODEL)")
	}
	if cfg.LLMMaxTokens <= 0 {
		return errors.New("config: llm.maxTokens must be positive")
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		return fmt.Errorf("config: llm.temperature %.2f out of range 0-2", cfg.LLMTemperature)
	}
	if cfg.LLMTimeout <= 0 {
		return errors.New("config: llm.timeout must be positive")
	}
	switch cfg.CacheBackend {
	case CacheNone, CacheMemory, CacheFile:
	case CacheRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: cache.redisAddr is required for the redis backend (or set REDIS_ADDR)")
		}
	default:
		return fmt.Errorf("config: unknown cache.backend %q (use none, memory, file or redis)", cfg.CacheBackend)
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: negative upload limit is not allowed")
	}
	return nil
}

// CredentialHelp tells the user every place an API key can come from.
const CredentialHelp = `no API key configured for the text-generation service.
Set one of:
  --llm.key <key>                   command-line flag
  LLM_API_KEY=<key>                 environment (or OPENAI_API_KEY / ANTHROPIC_API_KEY)
  LLM_API_KEY=<key> in .env         dotenv file in the working directory
  llm.key: <key>                    config file passed with --config`

// CheckCredential reports a missing API key as a narrative.ClientError of
// kind AuthenticationMissing, with CredentialHelp attached.
func CheckCredential(cfg Config) error {
	if err := narrative.CheckCredential(cfg.LLMAPIKey); err != nil {
		return fmt.Errorf("%s: %w", CredentialHelp, err)
	}
	return nil
}
