package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// FallbackBehavior defines how an assessment proceeds when a remote
// collaborator (feeds, cache, storage) is unavailable.
type FallbackBehavior string

const (
	FallbackLocal FallbackBehavior = "local" // score from local signals only (default)
	FallbackFlag  FallbackBehavior = "flag"  // score locally but mark the result degraded
)

// Config holds global settings for the PageWarden gateway.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Core Settings ===
	SignaturesPath string // Optional YAML signature document overriding the embedded set
	ListenAddr     string // HTTP listen address (default: ":8080")

	// === Reputation Feeds ===
	// Remote feeds are optional; both disabled means local-only scoring.
	FeedAURL    string // Malware feed endpoint (empty = disabled)
	FeedBURL    string // Phishing feed endpoint (empty = disabled)
	FeedAPIKey  string // Shared bearer token for both feeds
	FeedTimeout time.Duration

	// === Domain Profile Cache ===
	RedisAddr     string // Redis address (empty = cache disabled)
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration // Domain profile TTL (default: 45m)

	// === Assessment Storage ===
	PostgresDSN string // Postgres DSN (empty = persistence disabled)

	// === Fallback & Error Handling ===
	FallbackBehavior FallbackBehavior

	// === Concurrency ===
	MaxConcurrentAssessments int // Weighted cap on in-flight assessments (default: 64)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		SignaturesPath: GetEnv("PAGEWARDEN_SIGNATURES", ""),
		ListenAddr:     GetEnv("PAGEWARDEN_LISTEN_ADDR", ":8080"),

		FeedAURL:    GetEnv("PAGEWARDEN_FEED_A_URL", ""),
		FeedBURL:    GetEnv("PAGEWARDEN_FEED_B_URL", ""),
		FeedAPIKey:  GetEnv("PAGEWARDEN_FEED_API_KEY", ""),
		FeedTimeout: time.Duration(GetEnvInt("PAGEWARDEN_FEED_TIMEOUT_MS", 5000)) * time.Millisecond,

		RedisAddr:     GetEnv("PAGEWARDEN_REDIS_ADDR", ""),
		RedisPassword: GetEnv("PAGEWARDEN_REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("PAGEWARDEN_REDIS_DB", 0),
		CacheTTL:      time.Duration(clampInt(GetEnvInt("PAGEWARDEN_CACHE_TTL_MINUTES", 45), 30, 60)) * time.Minute,

		PostgresDSN: GetEnv("PAGEWARDEN_POSTGRES_DSN", ""),

		FallbackBehavior: FallbackBehavior(GetEnv("PAGEWARDEN_FALLBACK", "local")),

		MaxConcurrentAssessments: clampInt(GetEnvInt("PAGEWARDEN_MAX_ASSESSMENTS", 64), 1, 4096),
	}
}

// NewLocalConfig creates a Config for local-only operation: no feeds, no
// cache, no persistence. Use this for development or air-gapped deployments.
func NewLocalConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.FeedAURL = ""
	cfg.FeedBURL = ""
	cfg.RedisAddr = ""
	cfg.PostgresDSN = ""
	return cfg
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing.
// Exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

// Validate checks configuration consistency. Feed URLs without an API key
// are rejected so a misconfigured deployment fails at startup rather than
// silently scoring without remote signals.
func (c *Config) Validate() error {
	var problems []string

	if (c.FeedAURL != "" || c.FeedBURL != "") && c.FeedAPIKey == "" {
		problems = append(problems, "PAGEWARDEN_FEED_API_KEY is required when a feed URL is set")
	}
	switch c.FallbackBehavior {
	case FallbackLocal, FallbackFlag:
	default:
		problems = append(problems, fmt.Sprintf("unknown fallback behavior %q", c.FallbackBehavior))
	}
	if c.CacheTTL < 30*time.Minute || c.CacheTTL > 60*time.Minute {
		problems = append(problems, "cache TTL must be between 30 and 60 minutes")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before starting the server.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}
