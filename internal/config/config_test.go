package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	c := FromEnv(mapEnv(nil))

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "static", c.GeoStrategy)
	assert.Equal(t, 4*time.Second, c.GeoTimeout)
	assert.Equal(t, "hosted", c.InferenceStrategy)
	assert.Equal(t, 15*time.Second, c.InferenceTimeout)
	assert.Equal(t, 4096, c.CacheSize)
	assert.Equal(t, time.Duration(0), c.CacheTTL)
	assert.Equal(t, 24*time.Hour, c.RedisCacheTTL)
	assert.Empty(t, c.InferenceAPIKey)
	assert.False(t, c.StatsEnabled)
	assert.False(t, c.TLSEnable)
	assert.True(t, c.StaticDefault)
	assert.Equal(t, "en", c.StaticDefaultLanguage)
	assert.Equal(t, "Welcome", c.StaticDefaultMessage)
}

func TestFromEnvOverrides(t *testing.T) {
	c := FromEnv(mapEnv(map[string]string{
		"API_BASE":            "/api/",
		"GEO_STRATEGY":        "AZURE",
		"INFERENCE_API_KEY":   "secret",
		"INFERENCE_TIMEOUT_S": "18",
		"WELCOME_CACHE_SIZE":  "16",
		"WELCOME_CACHE_TTL_S": "60",
		"RATE_LIMIT_ENABLED":  "true",
		"RATE_LIMIT_QPS":      "5",

		"STATIC_DEFAULT_ENABLED": "false",
	}))

	assert.Equal(t, "/api", c.APIBase)
	assert.Equal(t, "azure", c.GeoStrategy)
	assert.Equal(t, "secret", c.InferenceAPIKey)
	assert.Equal(t, 18*time.Second, c.InferenceTimeout)
	assert.Equal(t, 16, c.CacheSize)
	assert.Equal(t, time.Minute, c.CacheTTL)
	assert.True(t, c.RateLimitEnabled)
	assert.Equal(t, 5, c.RateLimitQPS)
	assert.False(t, c.StaticDefault)
}

func TestFromEnvBadNumbersFallBack(t *testing.T) {
	c := FromEnv(mapEnv(map[string]string{
		"WELCOME_CACHE_SIZE": "-3",
		"GEO_TIMEOUT_S":      "abc",
	}))

	assert.Equal(t, 4096, c.CacheSize)
	assert.Equal(t, 4*time.Second, c.GeoTimeout)
}
