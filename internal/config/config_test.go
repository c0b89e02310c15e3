package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "https://restcountries.com/v3.1", cfg.Upstream.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Upstream.PropagateStatus)
	assert.Equal(t, PolicyLenient, cfg.Pipeline.MalformedPolicy)
	assert.Equal(t, 10, cfg.Pipeline.TopN)
	assert.Equal(t, 3, cfg.Pipeline.MinBorders)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COUNTRY_API_SERVER_ADDR", ":9999")
	t.Setenv("COUNTRY_API_CACHE_TTL", "30s")
	t.Setenv("COUNTRY_API_UPSTREAM_PROPAGATE_STATUS", "false")
	t.Setenv("COUNTRY_API_PIPELINE_MALFORMED_POLICY", "strict")

	cfg, err := Load("", "")

	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Upstream.PropagateStatus)
	assert.Equal(t, PolicyStrict, cfg.Pipeline.MalformedPolicy)
}

func TestDefault_TimeoutsLeaveRoomForErrorBody(t *testing.T) {
	cfg := Default()

	assert.Less(t, cfg.Upstream.Timeout, cfg.Server.RequestTimeout)
	assert.Less(t, cfg.Server.RequestTimeout, cfg.Server.WriteTimeout)
}

func TestValidate_NoWriteDeadline(t *testing.T) {
	cfg := Default()
	cfg.Server.WriteTimeout = 0

	assert.NoError(t, cfg.Validate())
}

func TestLoad_ZeroMinBorders(t *testing.T) {
	t.Setenv("COUNTRY_API_PIPELINE_MIN_BORDERS", "0")

	cfg, err := Load("", "")

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Pipeline.MinBorders)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7000"
cache:
  backend: none
log:
  format: json
`), 0o644))

	cfg, err := Load(path, "")

	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Pipeline.TopN)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("COUNTRY_API_PIPELINE_TOP_N=5\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("COUNTRY_API_PIPELINE_TOP_N") })

	cfg, err := Load("", envFile)

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Pipeline.TopN)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_MissingConfigFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"policy", func(c *Config) { c.Pipeline.MalformedPolicy = "ignore" }, "pipeline.malformed_policy"},
		{"backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"size", func(c *Config) { c.Cache.Size = 0 }, "cache.size"},
		{"ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"top n", func(c *Config) { c.Pipeline.TopN = 0 }, "pipeline.top_n"},
		{"min borders", func(c *Config) { c.Pipeline.MinBorders = -1 }, "pipeline.min_borders"},
		{"burst", func(c *Config) { c.RateLimit.Burst = 0 }, "ratelimit"},
		{"base url", func(c *Config) { c.Upstream.BaseURL = "" }, "upstream.base_url"},
		{"upstream timeout unset", func(c *Config) { c.Upstream.Timeout = 0 }, "upstream.timeout"},
		{"request timeout unset", func(c *Config) { c.Server.RequestTimeout = 0 }, "server.request_timeout"},
		{"upstream outlasts request", func(c *Config) { c.Upstream.Timeout = c.Server.RequestTimeout }, "upstream.timeout"},
		{"request outlasts write", func(c *Config) { c.Server.WriteTimeout = c.Server.RequestTimeout }, "server.request_timeout"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}
