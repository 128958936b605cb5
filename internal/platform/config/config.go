package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"authcallback/internal/domain"
)

// DefaultRecordFilename is the fixed name of the JSON file within the
// provider's home directory holding the default record.
const DefaultRecordFilename = "callback-default-response.json"

// Config holds all configuration for the auth daemon.
type Config struct {
	ListenAddr     string
	CallbackURI    string // HTTP(S) URI invoked for each authentication attempt
	UseMockService bool   // bypass the callback and answer from the default record
	Home           string // base directory holding the default record file
	LogLevel       string
	SessionTTL     time.Duration
	RateLimit      RateLimitConfig
}

// RateLimitConfig holds token bucket parameters for per-IP rate limiting.
type RateLimitConfig struct {
	Rate  float64
	Burst int
}

// Load reads configuration from environment variables. The callback URI
// is required and the mock flag must parse as a boolean; either failing
// is a startup error, never a per-request one. Everything else falls
// back to defaults.
func Load() (Config, error) {
	uri := os.Getenv("CALLBACK_AUTH_URI")
	if uri == "" {
		return Config{}, fmt.Errorf("%w: CALLBACK_AUTH_URI", domain.ErrMissingProperty)
	}
	if _, err := url.Parse(uri); err != nil {
		return Config{}, fmt.Errorf("parsing CALLBACK_AUTH_URI: %w", err)
	}

	useMock, err := envBool("CALLBACK_USE_MOCK_SERVICE", false)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ListenAddr:     envOr("AUTHD_ADDR", ":8080"),
		CallbackURI:    uri,
		UseMockService: useMock,
		Home:           envOr("CALLBACK_HOME", "/etc/authcallback"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		SessionTTL:     envDuration("SESSION_TTL", time.Hour),
		RateLimit: RateLimitConfig{
			Rate:  envFloat("RATE_LIMIT_RATE", 10),
			Burst: envInt("RATE_LIMIT_BURST", 20),
		},
	}, nil
}

// DefaultRecordPath returns the location of the default record file:
// the fixed filename joined to the configured home directory.
func (c Config) DefaultRecordPath() string {
	return filepath.Join(c.Home, DefaultRecordFilename)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s as boolean: %w", key, err)
	}
	return b, nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return n
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return f
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return d
	}
	return fallback
}
