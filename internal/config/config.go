// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database location, token signing, and
// rate limiting.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// AuthConfig defines token signing and lifetime settings.
//
// SecretKey and Algorithm are treated as opaque primitives by the rest of the
// application; their values must never appear in responses or logs.
type AuthConfig struct {
	SecretKey string        // SECRET_KEY
	Algorithm string        // JWT_ALGORITHM (HS256|HS384|HS512)
	TokenTTL  time.Duration // ACCESS_TOKEN_EXPIRE_MINUTES (minutes)
}

// RateLimitConfig defines the sliding-window admission control settings.
type RateLimitConfig struct {
	MaxRequests int           // RATE_MAX_REQUESTS (per window, per client)
	Window      time.Duration // RATE_WINDOW_SECONDS
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	// Storage
	DBPath string // SQLite path

	// Auth
	Auth AuthConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Web protection
	CORS CORSConfig
}

// DefaultSecretKey is the development fallback signing key. It is deliberately
// conspicuous; deployments must override SECRET_KEY.
const DefaultSecretKey = "CHANGE_THIS_SECRET_IN_DEVELOPMENT"

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		// Storage
		DBPath: getenv("DB_PATH", "okr.db"),

		// Auth
		Auth: AuthConfig{
			SecretKey: getenv("SECRET_KEY", DefaultSecretKey),
			Algorithm: strings.ToUpper(getenv("JWT_ALGORITHM", "HS256")),
			TokenTTL:  time.Duration(getint("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24)) * time.Minute,
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			MaxRequests: getint("RATE_MAX_REQUESTS", 5),
			Window:      time.Duration(getint("RATE_WINDOW_SECONDS", 60)) * time.Second,
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Auth.SecretKey) == "" {
		return cfg, errors.New("SECRET_KEY must not be empty")
	}
	switch cfg.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return cfg, errors.New("JWT_ALGORITHM must be one of: HS256, HS384, HS512")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return cfg, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be > 0")
	}
	if cfg.RateLimit.MaxRequests < 1 {
		return cfg, errors.New("RATE_MAX_REQUESTS must be >= 1")
	}
	if cfg.RateLimit.Window <= 0 {
		return cfg, errors.New("RATE_WINDOW_SECONDS must be > 0")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
