package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLimitsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "limits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadConfig_RequiresUpstream(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "")
	t.Setenv("LIMITS_CONFIG", "")
	_, err := readConfig()
	assert.EqualError(t, err, "UPSTREAM_URL is required")
}

func TestReadConfig_EnvValues(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:8081")
	t.Setenv("MAX_BANDWIDTH_BPS", "1024")
	t.Setenv("CONCURRENCY_MAX", "5")
	t.Setenv("CONNECTION_TIMEOUT", "2s")
	t.Setenv("MAX_URL_LENGTH", "100")
	t.Setenv("MAX_QUERY_STRING_LENGTH", "50")
	t.Setenv("MAX_CONTENT_LENGTH", "2048")
	t.Setenv("RATE_RPS", "0.5")
	t.Setenv("RATE_BURST", "")
	t.Setenv("LIMITS_CONFIG", "")

	cfg, err := readConfig()
	require.NoError(t, err)

	assert.Equal(t, limitsConfig{
		MaxBandwidthBPS:      1024,
		ConcurrencyMax:       5,
		ConnectionTimeout:    2 * time.Second,
		MaxURLLength:         100,
		MaxQueryStringLength: 50,
		MaxContentLength:     2048,
		RateRPS:              0.5,
		RateBurst:            1,
	}, cfg.limits)
	assert.Equal(t, cfg.limits, cfg.envLimits)
}

func TestReadConfig_StatsNeedRedisAddr(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:8081")
	t.Setenv("LIMITS_STATS_ENABLED", "true")
	t.Setenv("LIMITS_STATS_REDIS_ADDR", "")
	t.Setenv("LIMITS_CONFIG", "")

	_, err := readConfig()
	assert.Error(t, err)
}

func TestReadConfig_FileOverridesEnv(t *testing.T) {
	path := writeLimitsFile(t, "concurrency_max: 7\nconnection_timeout: 15s\n")
	t.Setenv("UPSTREAM_URL", "http://localhost:8081")
	t.Setenv("CONCURRENCY_MAX", "5")
	t.Setenv("MAX_URL_LENGTH", "100")
	t.Setenv("LIMITS_CONFIG", path)

	cfg, err := readConfig()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.limits.ConcurrencyMax)
	assert.Equal(t, 15*time.Second, cfg.limits.ConnectionTimeout)
	assert.Equal(t, 100, cfg.limits.MaxURLLength)
	assert.Equal(t, 5, cfg.envLimits.ConcurrencyMax)
}

func TestLoadLimitsFile(t *testing.T) {
	path := writeLimitsFile(t, `
max_bandwidth_bps: 65536
concurrency_max: 50
connection_timeout: 1m
max_url_length: 2048
max_query_string_length: 1024
max_content_length: 1048576
rate_rps: 2.5
rate_burst: 4
`)

	l, err := loadLimitsFile(path, limitsConfig{RateRPS: 1, RateBurst: 1})
	require.NoError(t, err)

	assert.Equal(t, limitsConfig{
		MaxBandwidthBPS:      65536,
		ConcurrencyMax:       50,
		ConnectionTimeout:    time.Minute,
		MaxURLLength:         2048,
		MaxQueryStringLength: 1024,
		MaxContentLength:     1 << 20,
		RateRPS:              2.5,
		RateBurst:            4,
	}, l)
}

func TestLoadLimitsFile_Errors(t *testing.T) {
	base := limitsConfig{RateRPS: 1, RateBurst: 1}

	_, err := loadLimitsFile(filepath.Join(t.TempDir(), "missing.yaml"), base)
	assert.Error(t, err)

	_, err = loadLimitsFile(writeLimitsFile(t, "unknown_key: 1\n"), base)
	assert.ErrorContains(t, err, "unknown key")

	_, err = loadLimitsFile(writeLimitsFile(t, "concurrency_max: many\n"), base)
	assert.ErrorContains(t, err, "concurrency_max")

	_, err = loadLimitsFile(writeLimitsFile(t, "rate_rps: 0\n"), base)
	assert.ErrorContains(t, err, "rate_rps must be > 0")
}

func TestLimitsHolder_ZeroDisablesLengthGuards(t *testing.T) {
	h := newLimitsHolder(limitsConfig{MaxURLLength: 10})
	assert.Equal(t, 10, h.urlLength())
	assert.Equal(t, math.MaxInt, h.queryStringLength())
	assert.Equal(t, int64(math.MaxInt64), h.contentLength())

	h.Store(limitsConfig{MaxContentLength: 20, ConcurrencyMax: 3, ConnectionTimeout: time.Second, MaxBandwidthBPS: 9})
	assert.Equal(t, math.MaxInt, h.urlLength())
	assert.Equal(t, int64(20), h.contentLength())
	assert.Equal(t, 3, h.concurrency())
	assert.Equal(t, time.Second, h.timeout())
	assert.Equal(t, int64(9), h.bandwidth())
}
