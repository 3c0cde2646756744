package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env string // "local", "dev", "prod"

	// Backend
	APIBaseURL     string
	RequestTimeout time.Duration

	// Session
	RedisAddr string // empty keeps the token in memory
	TokenKey  string

	// Identity: Firebase when an API key is set, the local provider otherwise
	FirebaseAPIKey   string
	FirebaseEndpoint string
	GoogleIDToken    string

	// Media & chat
	ImgBBAPIKey    string
	ImgBBEndpoint  string
	GeminiAPIKey   string
	GeminiEndpoint string
	GeminiModel    string
	ChatWindow     int

	// Cache
	CacheStaleTime time.Duration

	// Events: empty disables cross-session invalidation
	NatsUrl string

	// Telemetry: empty disables tracing export
	OtelEndpoint string
}

// Load reads the configuration from the environment, with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("APP_ENV", "local"),
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:3000"),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 20*time.Second),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		TokenKey:         getEnv("TOKEN_KEY", "impactctl:session:token"),
		FirebaseAPIKey:   getEnv("FIREBASE_API_KEY", ""),
		FirebaseEndpoint: getEnv("FIREBASE_ENDPOINT", "https://identitytoolkit.googleapis.com/v1"),
		GoogleIDToken:    getEnv("GOOGLE_ID_TOKEN", ""),
		ImgBBAPIKey:      getEnv("IMGBB_API_KEY", ""),
		ImgBBEndpoint:    getEnv("IMGBB_ENDPOINT", "https://api.imgbb.com/1/upload"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiEndpoint:   getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ChatWindow:       getEnvInt("CHAT_HISTORY_WINDOW", 10),
		CacheStaleTime:   getEnvDuration("CACHE_STALE_TIME", 0),
		NatsUrl:          getEnv("NATS_URL", ""),
		OtelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return nil, fmt.Errorf("API_BASE_URL must be an http(s) URL, got %q", cfg.APIBaseURL)
	}
	if cfg.Env == "prod" && cfg.FirebaseAPIKey == "" {
		return nil, fmt.Errorf("FIREBASE_API_KEY is required in production")
	}
	if cfg.ChatWindow <= 0 {
		return nil, fmt.Errorf("CHAT_HISTORY_WINDOW must be positive, got %d", cfg.ChatWindow)
	}

	return cfg, nil
}

// Redacted masks secrets for the startup log.
func (c Config) Redacted() Config {
	for _, s := range []*string{&c.FirebaseAPIKey, &c.ImgBBAPIKey, &c.GeminiAPIKey, &c.GoogleIDToken} {
		if *s != "" {
			*s = "***"
		}
	}
	return c
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if s, err := strconv.Atoi(value); err == nil {
		return time.Duration(s) * time.Second
	}
	return fallback
}
