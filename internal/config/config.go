package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/simp-lee/datatable/internal/query"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Data    DataConfig    `koanf:"data"`
	Query   QueryConfig   `koanf:"query"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string          `koanf:"host"`
	Port       int             `koanf:"port"`
	Mode       string          `koanf:"mode"`
	CSRFSecret string          `koanf:"csrf_secret"`
	Timeout    string          `koanf:"timeout"`
	CORS       CORSConfig      `koanf:"cors"`
	RateLimit  RateLimitConfig `koanf:"rate_limit"`
	Cache      CacheConfig     `koanf:"cache"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled    bool    `koanf:"enabled"`
	RPS        float64 `koanf:"rps"`
	Burst      int     `koanf:"burst"`
	MaxClients int     `koanf:"max_clients"`
}

// CacheConfig holds query result cache settings.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	TTL     string `koanf:"ttl"`
	MaxSize int    `koanf:"max_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// DataConfig controls generation of the in-memory datasets.
type DataConfig struct {
	Seed          uint64 `koanf:"seed"`
	Tasks         int    `koanf:"tasks"`
	Users         int    `koanf:"users"`
	ReferenceDate string `koanf:"reference_date"`
	Span          string `koanf:"span"`
}

// QueryConfig holds query limits and input behavior.
type QueryConfig struct {
	MaxPageSize int    `koanf:"max_page_size"`
	Debounce    string `koanf:"debounce"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Defaults applied by Validate when a value is left empty.
const (
	DefaultMaxPageSize = 100
	DefaultDebounce    = 250 * time.Millisecond
	DefaultMaxClients  = 10000
	DefaultMetricsPath = "/metrics"
	defaultSpan        = "17520h"
)

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__QUERY__MAX_PAGE_SIZE=50 overrides query.max_page_size.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	// APP__DATA__REFERENCE_DATE -> data.reference_date
	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values, normalizing
// strings and filling defaults in place.
func (c *Config) Validate() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Whitespace-only durations mean unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)
	c.Server.Cache.TTL = strings.TrimSpace(c.Server.Cache.TTL)
	c.Query.Debounce = strings.TrimSpace(c.Query.Debounce)
	c.Data.Span = strings.TrimSpace(c.Data.Span)

	if err := validateOptionalDuration("server.timeout", c.Server.Timeout); err != nil {
		return err
	}
	if err := validateOptionalDuration("server.cors.max_age", c.Server.CORS.MaxAge); err != nil {
		return err
	}

	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %v: must be positive when rate limiting is enabled", c.Server.RateLimit.RPS)
		}
		if c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", c.Server.RateLimit.Burst)
		}
		if c.Server.RateLimit.MaxClients < 0 {
			return fmt.Errorf("invalid server.rate_limit.max_clients %d: must not be negative", c.Server.RateLimit.MaxClients)
		}
		if c.Server.RateLimit.MaxClients == 0 {
			c.Server.RateLimit.MaxClients = DefaultMaxClients
		}
	}

	if c.Server.Cache.Enabled {
		d, err := time.ParseDuration(c.Server.Cache.TTL)
		if err != nil {
			return fmt.Errorf("invalid server.cache.ttl %q: %w", c.Server.Cache.TTL, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid server.cache.ttl %q: must be greater than 0", c.Server.Cache.TTL)
		}
		if c.Server.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid server.cache.max_size %d: must be positive when caching is enabled", c.Server.Cache.MaxSize)
		}
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}

	if err := c.Data.validate(); err != nil {
		return err
	}

	if c.Query.MaxPageSize < 0 {
		return fmt.Errorf("invalid query.max_page_size %d: must not be negative", c.Query.MaxPageSize)
	}
	if c.Query.MaxPageSize == 0 {
		c.Query.MaxPageSize = DefaultMaxPageSize
	}
	if c.Query.MaxPageSize < query.DefaultPageSize {
		return fmt.Errorf("invalid query.max_page_size %d: must be at least the default page size %d", c.Query.MaxPageSize, query.DefaultPageSize)
	}
	if err := validateOptionalDuration("query.debounce", c.Query.Debounce); err != nil {
		return err
	}

	if c.Metrics.Enabled {
		path := strings.TrimSpace(c.Metrics.Path)
		if path == "" {
			path = DefaultMetricsPath
		}
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("invalid metrics.path %q: must start with '/'", c.Metrics.Path)
		}
		c.Metrics.Path = path
	}

	return nil
}

func (d *DataConfig) validate() error {
	if d.Tasks < 0 {
		return fmt.Errorf("invalid data.tasks %d: must not be negative", d.Tasks)
	}
	if d.Users < 0 {
		return fmt.Errorf("invalid data.users %d: must not be negative", d.Users)
	}

	d.ReferenceDate = strings.TrimSpace(d.ReferenceDate)
	if d.ReferenceDate != "" {
		if _, err := time.Parse(query.DateLayout, d.ReferenceDate); err != nil {
			return fmt.Errorf("invalid data.reference_date %q: must be YYYY-MM-DD: %w", d.ReferenceDate, err)
		}
	}

	if d.Span == "" {
		d.Span = defaultSpan
	}
	span, err := time.ParseDuration(d.Span)
	if err != nil {
		return fmt.Errorf("invalid data.span %q: %w", d.Span, err)
	}
	if span <= 0 {
		return fmt.Errorf("invalid data.span %q: must be greater than 0", d.Span)
	}
	return nil
}

func validateOptionalDuration(name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: must be a valid duration (e.g. \"30s\", \"250ms\"): %w", name, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, value)
	}
	return nil
}

// TimeoutDuration returns server.timeout, or 0 when unset.
func (s ServerConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.Timeout)
	return d
}

// TTLDuration returns server.cache.ttl, or 0 when unset.
func (c CacheConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// DebounceDuration returns query.debounce or DefaultDebounce.
func (q QueryConfig) DebounceDuration() time.Duration {
	if d, err := time.ParseDuration(q.Debounce); err == nil && d > 0 {
		return d
	}
	return DefaultDebounce
}

// Reference returns data.reference_date as a UTC time, or the zero time when
// unset.
func (d DataConfig) Reference() time.Time {
	t, _ := time.Parse(query.DateLayout, d.ReferenceDate)
	return t
}

// SpanDuration returns data.span.
func (d DataConfig) SpanDuration() time.Duration {
	span, _ := time.ParseDuration(d.Span)
	return span
}
