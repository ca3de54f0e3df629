package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the support agent service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	// Toolbox server hosting the remote support tools.
	ToolboxBaseURL string
	ToolsetName    string
	ToolboxTimeout time.Duration

	// Generation provider (OpenAI-compatible chat completions).
	AgentModel string
	APIKey     string
	BaseURL    string

	// Direct web search provider.
	TavilyAPIKey     string
	WebSearchTimeout time.Duration

	// Conversation memory backend. RedisURL wins over DatabaseURL; with
	// neither set the service keeps memory in-process.
	RedisURL       string
	DatabaseURL    string
	MemoryTTL      time.Duration
	MemoryMaxTurns int

	// Answer cache.
	CacheTTL             time.Duration
	LocalCacheMaxEntries int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "supportdesk"),
		AllowAnyOrigin:   false,
		ToolboxBaseURL:   envOrDefault("TOOLBOX_BASE_URL", "http://127.0.0.1:5000"),
		ToolsetName:      envOrDefault("TOOLBOX_TOOLSET", "support-toolset"),
		ToolboxTimeout:   10 * time.Second,
		AgentModel:       envOrDefault("AGENT_MODEL", "gpt-4o-mini"),
		APIKey:           firstEnv("API_KEY", "OPENAI_API_KEY"),
		BaseURL:          firstEnv("BASE_URL", "OPENAI_BASE_URL"),
		TavilyAPIKey:     envTrimmed("TAVILY_API_KEY"),
		WebSearchTimeout: 8 * time.Second,
		RedisURL:         firstEnv("MEMORY_REDIS_URL", "REDIS_URL"),
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		MemoryTTL:        24 * time.Hour,
		MemoryMaxTurns:   10,
		CacheTTL:         time.Hour,
		// Bounds the in-process cache used while the remote store is down.
		LocalCacheMaxEntries: 1024,
		ShutdownTimeout:      15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ToolboxTimeout, err = durationFromEnv("TOOLBOX_TIMEOUT", cfg.ToolboxTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.WebSearchTimeout, err = durationFromEnv("WEB_SEARCH_TIMEOUT", cfg.WebSearchTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryTTL, err = durationFromEnv("MEMORY_TTL", cfg.MemoryTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheTTL, err = durationFromEnv("CACHE_TTL", cfg.CacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryMaxTurns, err = intFromEnv("MEMORY_MAX_TURNS", cfg.MemoryMaxTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.LocalCacheMaxEntries, err = intFromEnv("LOCAL_CACHE_MAX_ENTRIES", cfg.LocalCacheMaxEntries)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.MemoryMaxTurns <= 0 {
		return Config{}, fmt.Errorf("MEMORY_MAX_TURNS must be positive")
	}
	if cfg.MemoryTTL <= 0 {
		return Config{}, fmt.Errorf("MEMORY_TTL must be positive")
	}
	if cfg.CacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be positive")
	}
	if cfg.LocalCacheMaxEntries <= 0 {
		return Config{}, fmt.Errorf("LOCAL_CACHE_MAX_ENTRIES must be positive")
	}
	if strings.TrimSpace(cfg.ToolboxBaseURL) == "" {
		return Config{}, fmt.Errorf("TOOLBOX_BASE_URL must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// firstEnv returns the first non-empty value among the given keys.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
