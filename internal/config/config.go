package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	BaseURL       string
	SessionSecret string
	SessionTTL    time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	GeoIPPath     string
	FlushInterval time.Duration
	BufferSize    int
	CacheSize     int
	CacheTTL      time.Duration

	// ClassifyHosting fetches public cloud ranges and counts their traffic
	// as bots.
	ClassifyHosting bool
}

// Load reads the configuration from the environment, after merging a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load() // no .env outside development

	secret := os.Getenv("LINKSGO_SESSION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("LINKSGO_SESSION_SECRET is required")
	}

	baseURL := strings.TrimRight(envOrDefault("LINKSGO_BASE_URL", "http://localhost:8080"), "/")
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("LINKSGO_BASE_URL must be an absolute URL")
	}

	cfg := &Config{
		Port:          envOrDefault("LINKSGO_PORT", "8080"),
		Env:           envOrDefault("LINKSGO_ENV", "development"),
		DatabaseURL:   envOrDefault("LINKSGO_DATABASE_URL", "./linksgo.db"),
		BaseURL:       baseURL,
		SessionSecret: secret,
		SessionTTL:    parseDuration("LINKSGO_SESSION_TTL", 7*24*time.Hour),

		GoogleClientID:     os.Getenv("LINKSGO_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("LINKSGO_GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:   envOrDefault("LINKSGO_OAUTH_REDIRECT_URL", baseURL+"/auth/callback"),

		GeoIPPath:     os.Getenv("LINKSGO_GEOIP_PATH"),
		FlushInterval: parseDuration("LINKSGO_FLUSH_INTERVAL", 5*time.Second),
		BufferSize:    parseInt("LINKSGO_BUFFER_SIZE", 10000),
		CacheSize:     parseInt("LINKSGO_CACHE_SIZE", 1000),
		CacheTTL:      parseDuration("LINKSGO_CACHE_TTL", time.Minute),

		ClassifyHosting: parseBool("LINKSGO_CLASSIFY_HOSTING", false),
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("LINKSGO_SESSION_TTL must be positive")
	}
	if cfg.FlushInterval <= 0 {
		return nil, fmt.Errorf("LINKSGO_FLUSH_INTERVAL must be positive")
	}
	if cfg.BufferSize <= 0 {
		return nil, fmt.Errorf("LINKSGO_BUFFER_SIZE must be positive")
	}
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("LINKSGO_CACHE_SIZE must be positive")
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("LINKSGO_CACHE_TTL must be positive")
	}

	return cfg, nil
}

// Production reports whether the service runs with production settings.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// OAuthEnabled reports whether Google sign-in has credentials.
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
