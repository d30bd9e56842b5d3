package app

import "time"

// Config holds runtime configuration for every command.
type Config struct {
	// LLM
	LLMProvider    string
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKey      string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration
	SystemPrompt   string

	// Narrative
	Industry string

	// Cache
	CacheBackend     string
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	RedisAddr        string

	// Server
	ListenAddr     string
	CORSOrigins    []string
	MaxUploadBytes int64

	Verbose bool
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultCacheDir       = ".gonarrative-cache"
	DefaultListenAddr     = ":8080"
	DefaultMaxUploadBytes = 1 << 20
)
