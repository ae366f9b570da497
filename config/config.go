package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetch     FetchConfig     `yaml:"fetch"`
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	CORS      CORSConfig      `yaml:"cors"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8000
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// FetchConfig controls how source pages are retrieved.
type FetchConfig struct {
	// Timeout bounds a single source fetch.
	Timeout time.Duration `yaml:"timeout"` // default: 10s

	// TLSFingerprint dials HTTPS with a Chrome-like ClientHello.
	TLSFingerprint bool `yaml:"tls_fingerprint"` // default: true

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes"` // default: 10 MiB
}

// LLMConfig points at an OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`    // default: "gpt-4o-mini"
	BaseURL     string        `yaml:"base_url"` // default: "https://api.openai.com/v1"
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"` // default: 60s
}

// SearchConfig controls the retrieval-and-aggregation pipeline.
type SearchConfig struct {
	// MaxSources caps how many selected URLs are consulted.
	MaxSources int `yaml:"max_sources"` // default: 3

	// MaxConcurrency bounds parallel source processing. 0 means one
	// goroutine per source.
	MaxConcurrency int `yaml:"max_concurrency"`

	// MaxContentTokens truncates page content before summarization.
	// 0 disables truncation.
	MaxContentTokens int `yaml:"max_content_tokens"` // default: 6000

	// ContentFormat is "text" or "markdown".
	ContentFormat string `yaml:"content_format"` // default: "text"

	// FallbackSearchURL is a fmt template receiving the escaped query.
	FallbackSearchURL string `yaml:"fallback_search_url"`

	// DedupeDistance is the SimHash distance at or below which two
	// summaries count as duplicates during synthesis. Negative disables.
	DedupeDistance int `yaml:"dedupe_distance"` // default: 3

	// Timeout bounds a whole search call.
	Timeout time.Duration `yaml:"timeout"` // default: 90s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"` // default: true
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 2
	Burst             int     `yaml:"burst"`               // default: 5
}

// CacheConfig controls the search result cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"` // default: 500
}

// CORSConfig controls cross-origin access for browser front ends.
type CORSConfig struct {
	// AllowOrigins lists permitted origins; "*" allows any. Empty disables
	// CORS handling.
	AllowOrigins []string      `yaml:"allow_origins"` // default: ["*"]
	MaxAge       time.Duration `yaml:"max_age"`       // default: 12h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// DefaultFallbackSearchURL is used when selection yields no usable URL.
const DefaultFallbackSearchURL = "https://www.google.com/search?q=%s"

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000, Mode: "release"},
		Fetch: FetchConfig{
			Timeout:        10 * time.Second,
			TLSFingerprint: true,
			MaxBodyBytes:   10 << 20,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		Search: SearchConfig{
			MaxSources:        3,
			MaxContentTokens:  6000,
			ContentFormat:     "text",
			FallbackSearchURL: DefaultFallbackSearchURL,
			DedupeDistance:    3,
			Timeout:           90 * time.Second,
		},
		Auth:      AuthConfig{Enabled: true},
		RateLimit: RateLimitConfig{RequestsPerSecond: 2, Burst: 5},
		Cache:     CacheConfig{MaxEntries: 500},
		CORS:      CORSConfig{AllowOrigins: []string{"*"}, MaxAge: 12 * time.Hour},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cfg := Defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile reads a YAML file on top of the defaults and then applies
// environment overrides. An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = envOr("SCOUT_HOST", cfg.Server.Host)
	cfg.Server.Port = envIntOr("SCOUT_PORT", cfg.Server.Port)
	cfg.Server.Mode = envOr("SCOUT_MODE", cfg.Server.Mode)

	cfg.Fetch.Timeout = envDurationOr("SCOUT_FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.TLSFingerprint = envBoolOr("SCOUT_TLS_FINGERPRINT", cfg.Fetch.TLSFingerprint)
	cfg.Fetch.MaxBodyBytes = int64(envIntOr("SCOUT_MAX_BODY_BYTES", int(cfg.Fetch.MaxBodyBytes)))

	cfg.LLM.APIKey = envOr("SCOUT_LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = envOr("SCOUT_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = envOr("SCOUT_LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Temperature = envFloatOr("SCOUT_LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.MaxTokens = envIntOr("SCOUT_LLM_MAX_TOKENS", cfg.LLM.MaxTokens)
	cfg.LLM.Timeout = envDurationOr("SCOUT_LLM_TIMEOUT", cfg.LLM.Timeout)

	cfg.Search.MaxSources = envIntOr("SCOUT_MAX_SOURCES", cfg.Search.MaxSources)
	cfg.Search.MaxConcurrency = envIntOr("SCOUT_MAX_CONCURRENCY", cfg.Search.MaxConcurrency)
	cfg.Search.MaxContentTokens = envIntOr("SCOUT_MAX_CONTENT_TOKENS", cfg.Search.MaxContentTokens)
	cfg.Search.ContentFormat = envOr("SCOUT_CONTENT_FORMAT", cfg.Search.ContentFormat)
	cfg.Search.FallbackSearchURL = envOr("SCOUT_FALLBACK_SEARCH_URL", cfg.Search.FallbackSearchURL)
	cfg.Search.DedupeDistance = envIntOr("SCOUT_DEDUPE_DISTANCE", cfg.Search.DedupeDistance)
	cfg.Search.Timeout = envDurationOr("SCOUT_SEARCH_TIMEOUT", cfg.Search.Timeout)

	cfg.Auth.Enabled = envBoolOr("SCOUT_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.APIKeys = envSliceOr("SCOUT_API_KEYS", cfg.Auth.APIKeys)

	cfg.RateLimit.RequestsPerSecond = envFloatOr("SCOUT_RATE_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.Burst = envIntOr("SCOUT_RATE_BURST", cfg.RateLimit.Burst)

	cfg.Cache.MaxEntries = envIntOr("SCOUT_CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)

	cfg.CORS.AllowOrigins = envSliceOr("SCOUT_CORS_ORIGINS", cfg.CORS.AllowOrigins)
	cfg.CORS.MaxAge = envDurationOr("SCOUT_CORS_MAX_AGE", cfg.CORS.MaxAge)

	cfg.Log.Level = envOr("SCOUT_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("SCOUT_LOG_FORMAT", cfg.Log.Format)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
