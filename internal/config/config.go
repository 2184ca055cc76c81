// Package config provides configuration loading from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"
)

// Defaults shared with the packages that consume them.
const (
	DefaultBaseURL          = "http://localhost:8000"
	DefaultCacheQuotaBytes  = 5 << 20
	DefaultCacheMaxAgeSec   = 300
	DefaultPageCacheItems   = 16
	DefaultMaxQueryLength   = 100
	DefaultLoadingDelayMs   = 100
	DefaultSettleTimeoutMs  = 10000
	DefaultFetchTimeoutMs   = 15000
	DefaultHTTPClientTimeMs = 10000
)

// Config holds all configuration for the search client and its hosts.
type Config struct {
	APIBaseURL        string        // KOTOBA_API_BASE_URL, default "http://localhost:8000"
	HTTPClientTimeout time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 10000ms
	FetchTimeout      time.Duration // FETCH_TIMEOUT_MS, default 15000ms; 0 disables
	LoadingDelay      time.Duration // LOADING_DELAY_MS, default 100ms
	SettleTimeout     time.Duration // SETTLE_TIMEOUT_MS, default 10000ms
	KanaConvertType   string        // KANA_CONVERT_TYPE, default "" (server default)
	MaxQueryLength    int           // MAX_QUERY_LENGTH, default 100 runes

	// Response cache
	CacheBackend       string        // CACHE_BACKEND, "memory" (default) or "sqlite"
	CachePath          string        // CACHE_PATH, sqlite database file, default "kotoba-cache.db"
	CacheQuotaBytes    int64         // CACHE_QUOTA_BYTES, default 5 MiB
	CacheDefaultMaxAge time.Duration // CACHE_DEFAULT_MAX_AGE_S, default 300s
	PageCacheMaxItems  int           // PAGE_CACHE_MAX_ITEMS, default 16

	MetricsAddr string // METRICS_ADDR, default "" (disabled)

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" (default) or "json"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		APIBaseURL:        getEnvString("KOTOBA_API_BASE_URL", DefaultBaseURL),
		HTTPClientTimeout: getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", DefaultHTTPClientTimeMs),
		FetchTimeout:      getEnvDurationMs("FETCH_TIMEOUT_MS", DefaultFetchTimeoutMs),
		LoadingDelay:      getEnvDurationMs("LOADING_DELAY_MS", DefaultLoadingDelayMs),
		SettleTimeout:     getEnvDurationMs("SETTLE_TIMEOUT_MS", DefaultSettleTimeoutMs),
		KanaConvertType:   getEnvString("KANA_CONVERT_TYPE", ""),
		MaxQueryLength:    getEnvInt("MAX_QUERY_LENGTH", DefaultMaxQueryLength),

		CacheBackend:       getEnvString("CACHE_BACKEND", CacheBackendMemory),
		CachePath:          getEnvString("CACHE_PATH", "kotoba-cache.db"),
		CacheQuotaBytes:    getEnvInt64("CACHE_QUOTA_BYTES", DefaultCacheQuotaBytes),
		CacheDefaultMaxAge: time.Duration(getEnvInt("CACHE_DEFAULT_MAX_AGE_S", DefaultCacheMaxAgeSec)) * time.Second,
		PageCacheMaxItems:  getEnvInt("PAGE_CACHE_MAX_ITEMS", DefaultPageCacheItems),

		MetricsAddr: getEnvString("METRICS_ADDR", ""),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheBackendMemory, CacheBackendSQLite:
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheBackendMemory, CacheBackendSQLite, c.CacheBackend)
	}
	if c.CacheQuotaBytes <= 0 {
		return fmt.Errorf("CACHE_QUOTA_BYTES must be positive, got %d", c.CacheQuotaBytes)
	}
	if c.PageCacheMaxItems <= 0 {
		return fmt.Errorf("PAGE_CACHE_MAX_ITEMS must be positive, got %d", c.PageCacheMaxItems)
	}
	if c.MaxQueryLength <= 0 {
		return fmt.Errorf("MAX_QUERY_LENGTH must be positive, got %d", c.MaxQueryLength)
	}
	return nil
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
