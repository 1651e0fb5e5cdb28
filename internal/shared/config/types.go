package config

import (
	"os"
	"time"
)

// ValueSource records which layer supplied a config field.
type ValueSource string

const (
	SourceDefault  ValueSource = "default"
	SourceFile     ValueSource = "file"
	SourceEnv      ValueSource = "environment"
	SourceOverride ValueSource = "override"
)

const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Chrome  ChromeConfig  `yaml:"chrome"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	Debug              bool          `yaml:"debug"`
}

type StorageConfig struct {
	Provider      string        `yaml:"provider"`
	Dir           string        `yaml:"dir"`
	DatabaseURL   string        `yaml:"database_url"`
	DraftTTL      time.Duration `yaml:"draft_ttl"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

type ChromeConfig struct {
	ExecPath      string        `yaml:"exec_path"`
	Headless      bool          `yaml:"headless"`
	Timeout       time.Duration `yaml:"timeout"`
	ViewportWidth int           `yaml:"viewport_width"`
}

type FetchConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxBytes   int64         `yaml:"max_bytes"`
	MaxRetries int           `yaml:"max_retries"`
	// AllowPrivateNetworks lets logo URLs resolve to loopback, private and
	// link-local addresses. Off unless running against local assets.
	AllowPrivateNetworks bool `yaml:"allow_private_networks"`
}

type SessionConfig struct {
	CacheSize int `yaml:"cache_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8080,
			AllowedOrigins:     []string{"*"},
			MaxUploadBytes:     20 << 20,
			RateLimitPerMinute: 240,
			RateLimitBurst:     40,
			ShutdownTimeout:    10 * time.Second,
		},
		Storage: StorageConfig{
			Provider:      StorageFile,
			Dir:           "~/.restoree/drafts",
			DraftTTL:      30 * 24 * time.Hour,
			SweepSchedule: "17 3 * * *",
		},
		Chrome: ChromeConfig{
			Headless:      true,
			Timeout:       45 * time.Second,
			ViewportWidth: 1240,
		},
		Fetch: FetchConfig{
			Timeout:    15 * time.Second,
			MaxBytes:   10 << 20,
			MaxRetries: 2,
		},
		Session: SessionConfig{CacheSize: 256},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Overrides carries caller-supplied values, typically CLI flags. Nil fields
// are left alone.
type Overrides struct {
	Host            *string
	Port            *int
	StorageProvider *string
	StorageDir      *string
	DatabaseURL     *string
	ChromePath      *string
	LogLevel        *string
	LogFormat       *string
	Debug           *bool
}

// Metadata tracks the provenance of each field that left its default.
type Metadata struct {
	sources    map[string]ValueSource
	configPath string
	loadedAt   time.Time
}

// Source returns the layer that last set field.
func (m Metadata) Source(field string) ValueSource {
	if src, ok := m.sources[field]; ok {
		return src
	}
	return SourceDefault
}

// Sources returns a copy of the provenance map.
func (m Metadata) Sources() map[string]ValueSource {
	out := make(map[string]ValueSource, len(m.sources))
	for k, v := range m.sources {
		out[k] = v
	}
	return out
}

// ConfigPath is the file that was consulted, whether or not it existed.
func (m Metadata) ConfigPath() string { return m.configPath }

// LoadedAt is when Load ran.
func (m Metadata) LoadedAt() time.Time { return m.loadedAt }

// EnvLookup resolves the value for an environment variable.
type EnvLookup func(string) (string, bool)

// DefaultEnvLookup reads the process environment.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}
