package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, DefaultBaseURL, cfg.APIBaseURL)
	assert.Equal(t, 100*time.Millisecond, cfg.LoadingDelay)
	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
	assert.Equal(t, int64(5<<20), cfg.CacheQuotaBytes)
	assert.Equal(t, 300*time.Second, cfg.CacheDefaultMaxAge)
	assert.Equal(t, 16, cfg.PageCacheMaxItems)
	assert.Equal(t, 100, cfg.MaxQueryLength)
	assert.Empty(t, cfg.KanaConvertType)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.LogCompress)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("KOTOBA_API_BASE_URL", "https://kotoba.example")
	t.Setenv("LOADING_DELAY_MS", "250")
	t.Setenv("CACHE_BACKEND", "sqlite")
	t.Setenv("CACHE_QUOTA_BYTES", "8589934592")
	t.Setenv("CACHE_DEFAULT_MAX_AGE_S", "60")
	t.Setenv("KANA_CONVERT_TYPE", "hira")
	t.Setenv("LOG_COMPRESS", "off")

	cfg := Load()

	assert.Equal(t, "https://kotoba.example", cfg.APIBaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.LoadingDelay)
	assert.Equal(t, CacheBackendSQLite, cfg.CacheBackend)
	assert.Equal(t, int64(8<<30), cfg.CacheQuotaBytes)
	assert.Equal(t, time.Minute, cfg.CacheDefaultMaxAge)
	assert.Equal(t, "hira", cfg.KanaConvertType)
	assert.False(t, cfg.LogCompress)
}

func TestLoad_IgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("PAGE_CACHE_MAX_ITEMS", "lots")
	t.Setenv("LOG_COMPRESS", "maybe")

	cfg := Load()

	assert.Equal(t, DefaultPageCacheItems, cfg.PageCacheMaxItems)
	assert.True(t, cfg.LogCompress)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.CacheBackend = "redis" }, "CACHE_BACKEND"},
		{"zero quota", func(c *Config) { c.CacheQuotaBytes = 0 }, "CACHE_QUOTA_BYTES"},
		{"zero page cache", func(c *Config) { c.PageCacheMaxItems = 0 }, "PAGE_CACHE_MAX_ITEMS"},
		{"zero query length", func(c *Config) { c.MaxQueryLength = -1 }, "MAX_QUERY_LENGTH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
