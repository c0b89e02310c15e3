// Package config loads service settings from defaults, an optional config
// file, a .env file and COUNTRY_API_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/grzegorczykanna/UBSWebAPI/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. COUNTRY_API_SERVER_ADDR.
const EnvPrefix = "COUNTRY_API"

// Malformed record policies.
const (
	PolicyLenient = "lenient"
	PolicyStrict  = "strict"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       logging.Config  `mapstructure:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RequestTimeout bounds one fetch-transform-render pipeline.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// UpstreamConfig points at the REST Countries provider.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// PropagateStatus answers upstream failures with the upstream status
	// code; when false they all become 500.
	PropagateStatus bool `mapstructure:"propagate_status"`
}

// PipelineConfig tunes normalization and the views.
type PipelineConfig struct {
	MalformedPolicy string `mapstructure:"malformed_policy"`
	TopN            int    `mapstructure:"top_n"`
	MinBorders      int    `mapstructure:"min_borders"`
}

// CacheConfig selects and sizes the cache backend.
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"`
	Size        int           `mapstructure:"size"`
	TTL         time.Duration `mapstructure:"ttl"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	// RedisDialTimeout bounds the startup connection retries.
	RedisDialTimeout time.Duration `mapstructure:"redis_dial_timeout"`
}

// RateLimitConfig bounds requests per client address.
type RateLimitConfig struct {
	// RPS of zero disables rate limiting.
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

var defaults = map[string]any{
	"server.addr":               ":8000",
	"server.read_timeout":       5 * time.Second,
	"server.write_timeout":      20 * time.Second,
	"server.idle_timeout":       120 * time.Second,
	"server.shutdown_timeout":   15 * time.Second,
	"server.request_timeout":    15 * time.Second,
	"upstream.base_url":         "https://restcountries.com/v3.1",
	"upstream.timeout":          10 * time.Second,
	"upstream.propagate_status": true,
	"pipeline.malformed_policy": PolicyLenient,
	"pipeline.top_n":            10,
	"pipeline.min_borders":      3,
	"cache.backend":             CacheMemory,
	"cache.size":                128,
	"cache.ttl":                 5 * time.Minute,
	"cache.redis_addr":          "localhost:6379",
	"cache.redis_db":            0,
	"cache.redis_prefix":        "country-api:",
	"cache.redis_dial_timeout":  5 * time.Second,
	"ratelimit.rps":             20.0,
	"ratelimit.burst":           40,
	"log.level":                 "info",
	"log.format":                "text",
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Load reads configuration. configFile may be empty; envFile names a
// dotenv file that is ignored when missing.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks enum values and limits.
func (c *Config) Validate() error {
	switch c.Pipeline.MalformedPolicy {
	case PolicyLenient, PolicyStrict:
	default:
		return &Error{Field: "pipeline.malformed_policy", Message: fmt.Sprintf("unknown policy %q", c.Pipeline.MalformedPolicy)}
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return &Error{Field: "cache.backend", Message: fmt.Sprintf("unknown backend %q", c.Cache.Backend)}
	}
	if c.Cache.Backend == CacheMemory && c.Cache.Size <= 0 {
		return &Error{Field: "cache.size", Message: "must be positive"}
	}
	if c.Cache.Backend != CacheNone && c.Cache.TTL <= 0 {
		return &Error{Field: "cache.ttl", Message: "must be positive"}
	}
	if c.Cache.RedisDialTimeout < 0 {
		return &Error{Field: "cache.redis_dial_timeout", Message: "must not be negative"}
	}
	if c.Pipeline.TopN <= 0 {
		return &Error{Field: "pipeline.top_n", Message: "must be positive"}
	}
	if c.Pipeline.MinBorders < 0 {
		return &Error{Field: "pipeline.min_borders", Message: "must not be negative"}
	}
	if c.RateLimit.RPS < 0 || (c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0) {
		return &Error{Field: "ratelimit", Message: "rps must be >= 0 and burst positive when enabled"}
	}
	if c.Upstream.BaseURL == "" {
		return &Error{Field: "upstream.base_url", Message: "required"}
	}
	return c.validateTimeouts()
}

// validateTimeouts enforces upstream.timeout < server.request_timeout <
// server.write_timeout, so a failed request still has time to write its
// error body. A zero write timeout means no write deadline.
func (c *Config) validateTimeouts() error {
	if c.Upstream.Timeout <= 0 {
		return &Error{Field: "upstream.timeout", Message: "must be positive"}
	}
	if c.Server.RequestTimeout <= 0 {
		return &Error{Field: "server.request_timeout", Message: "must be positive"}
	}
	if c.Upstream.Timeout >= c.Server.RequestTimeout {
		return &Error{Field: "upstream.timeout", Message: fmt.Sprintf("must be shorter than server.request_timeout (%s)", c.Server.RequestTimeout)}
	}
	if c.Server.WriteTimeout > 0 && c.Server.RequestTimeout >= c.Server.WriteTimeout {
		return &Error{Field: "server.request_timeout", Message: fmt.Sprintf("must be shorter than server.write_timeout (%s)", c.Server.WriteTimeout)}
	}
	return nil
}

// Error reports an invalid setting.
type Error struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
