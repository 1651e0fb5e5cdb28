package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "RESTOREE_CONFIG_PATH"
	defaultConfigDir  = ".restoree"
	defaultConfigName = "config.yaml"
)

// Option customises Load.
type Option func(*loadOptions)

type loadOptions struct {
	envLookup  EnvLookup
	readFile   func(string) ([]byte, error)
	homeDir    func() (string, error)
	configPath string
	overrides  Overrides
}

// WithEnv replaces the environment lookup.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loadOptions) {
		if lookup != nil {
			o.envLookup = lookup
		}
	}
}

// WithFileReader replaces os.ReadFile.
func WithFileReader(read func(string) ([]byte, error)) Option {
	return func(o *loadOptions) {
		if read != nil {
			o.readFile = read
		}
	}
}

// WithHomeDir replaces os.UserHomeDir.
func WithHomeDir(home func() (string, error)) Option {
	return func(o *loadOptions) {
		if home != nil {
			o.homeDir = home
		}
	}
}

// WithConfigPath pins the config file location.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) { o.configPath = path }
}

// WithOverrides applies caller values after every other layer.
func WithOverrides(overrides Overrides) Option {
	return func(o *loadOptions) { o.overrides = overrides }
}

// Load resolves configuration with precedence default < file < env < overrides.
func Load(opts ...Option) (Config, Metadata, error) {
	options := loadOptions{
		envLookup: DefaultEnvLookup,
		readFile:  os.ReadFile,
		homeDir:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&options)
	}

	meta := Metadata{sources: map[string]ValueSource{}, loadedAt: time.Now()}
	cfg := Default()

	path := strings.TrimSpace(options.configPath)
	if path == "" {
		path = ResolveConfigPath(options.envLookup, options.homeDir)
	}
	meta.configPath = path

	before := cfg
	if err := applyFile(&cfg, path, options.readFile); err != nil {
		return Config{}, Metadata{}, err
	}
	recordChanges(&meta, before, cfg, SourceFile)

	before = cfg
	if err := applyEnv(&cfg, options.envLookup); err != nil {
		return Config{}, Metadata{}, err
	}
	recordChanges(&meta, before, cfg, SourceEnv)

	before = cfg
	applyOverrides(&cfg, options.overrides)
	recordChanges(&meta, before, cfg, SourceOverride)

	cfg.Storage.Dir = ExpandHome(cfg.Storage.Dir, options.homeDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, Metadata{}, err
	}
	return cfg, meta, nil
}

// ResolveConfigPath returns RESTOREE_CONFIG_PATH when set, otherwise
// ~/.restoree/config.yaml, falling back to ./configs/config.yaml.
func ResolveConfigPath(envLookup EnvLookup, homeDir func() (string, error)) string {
	if envLookup == nil {
		envLookup = DefaultEnvLookup
	}
	if value, ok := envLookup(configPathEnv); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	if homeDir != nil {
		if home, err := homeDir(); err == nil && strings.TrimSpace(home) != "" {
			return filepath.Join(home, defaultConfigDir, defaultConfigName)
		}
	}
	return filepath.Join("configs", defaultConfigName)
}

// ExpandHome resolves a leading "~" against homeDir.
func ExpandHome(path string, homeDir func() (string, error)) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	home, err := homeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func applyFile(cfg *Config, path string, read func(string) ([]byte, error)) error {
	if path == "" {
		return nil
	}
	data, err := read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

type envBinding struct {
	key   string
	apply func(cfg *Config, value string) error
}

var envBindings = []envBinding{
	{"RESTOREE_HOST", func(c *Config, v string) error { c.Server.Host = v; return nil }},
	{"RESTOREE_PORT", func(c *Config, v string) error { return parseInt(v, &c.Server.Port) }},
	{"RESTOREE_ALLOWED_ORIGINS", func(c *Config, v string) error { c.Server.AllowedOrigins = splitList(v); return nil }},
	{"RESTOREE_DEBUG", func(c *Config, v string) error { return parseBool(v, &c.Server.Debug) }},
	{"RESTOREE_STORAGE_PROVIDER", func(c *Config, v string) error { c.Storage.Provider = strings.ToLower(v); return nil }},
	{"RESTOREE_STORAGE_DIR", func(c *Config, v string) error { c.Storage.Dir = v; return nil }},
	{"RESTOREE_DATABASE_URL", func(c *Config, v string) error { c.Storage.DatabaseURL = v; return nil }},
	{"RESTOREE_DRAFT_TTL", func(c *Config, v string) error { return parseDuration(v, &c.Storage.DraftTTL) }},
	{"RESTOREE_CHROME_PATH", func(c *Config, v string) error { c.Chrome.ExecPath = v; return nil }},
	{"RESTOREE_CHROME_HEADLESS", func(c *Config, v string) error { return parseBool(v, &c.Chrome.Headless) }},
	{"RESTOREE_FETCH_TIMEOUT", func(c *Config, v string) error { return parseDuration(v, &c.Fetch.Timeout) }},
	{"RESTOREE_FETCH_ALLOW_PRIVATE", func(c *Config, v string) error { return parseBool(v, &c.Fetch.AllowPrivateNetworks) }},
	{"RESTOREE_LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"RESTOREE_LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = v; return nil }},
	{"RESTOREE_METRICS_ENABLED", func(c *Config, v string) error { return parseBool(v, &c.Metrics.Enabled) }},
}

func applyEnv(cfg *Config, lookup EnvLookup) error {
	for _, binding := range envBindings {
		value, ok := lookup(binding.key)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if err := binding.apply(cfg, value); err != nil {
			return fmt.Errorf("%s: %w", binding.key, err)
		}
	}
	return nil
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.Host != nil {
		cfg.Server.Host = *o.Host
	}
	if o.Port != nil {
		cfg.Server.Port = *o.Port
	}
	if o.Debug != nil {
		cfg.Server.Debug = *o.Debug
	}
	if o.StorageProvider != nil {
		cfg.Storage.Provider = strings.ToLower(*o.StorageProvider)
	}
	if o.StorageDir != nil {
		cfg.Storage.Dir = *o.StorageDir
	}
	if o.DatabaseURL != nil {
		cfg.Storage.DatabaseURL = *o.DatabaseURL
	}
	if o.ChromePath != nil {
		cfg.Chrome.ExecPath = *o.ChromePath
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		cfg.Logging.Format = *o.LogFormat
	}
}

// trackedFields lists the fields whose provenance is reported.
var trackedFields = map[string]func(Config) string{
	"server.host":            func(c Config) string { return c.Server.Host },
	"server.port":            func(c Config) string { return strconv.Itoa(c.Server.Port) },
	"server.allowed_origins": func(c Config) string { return strings.Join(c.Server.AllowedOrigins, ",") },
	"server.debug":           func(c Config) string { return strconv.FormatBool(c.Server.Debug) },
	"storage.provider":       func(c Config) string { return c.Storage.Provider },
	"storage.dir":            func(c Config) string { return c.Storage.Dir },
	"storage.database_url":   func(c Config) string { return c.Storage.DatabaseURL },
	"storage.draft_ttl":      func(c Config) string { return c.Storage.DraftTTL.String() },
	"chrome.exec_path":       func(c Config) string { return c.Chrome.ExecPath },
	"chrome.headless":        func(c Config) string { return strconv.FormatBool(c.Chrome.Headless) },
	"fetch.timeout":          func(c Config) string { return c.Fetch.Timeout.String() },
	"fetch.allow_private":    func(c Config) string { return strconv.FormatBool(c.Fetch.AllowPrivateNetworks) },
	"logging.level":          func(c Config) string { return c.Logging.Level },
	"logging.format":         func(c Config) string { return c.Logging.Format },
	"metrics.enabled":        func(c Config) string { return strconv.FormatBool(c.Metrics.Enabled) },
}

func recordChanges(meta *Metadata, before, after Config, source ValueSource) {
	for field, get := range trackedFields {
		if get(before) != get(after) {
			meta.sources[field] = source
		}
	}
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Provider {
	case StorageFile:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return errors.New("storage.dir is required for the file provider")
		}
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
			return errors.New("storage.database_url is required for the postgres provider")
		}
	default:
		return fmt.Errorf("unsupported storage provider %q", c.Storage.Provider)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Session.CacheSize <= 0 {
		return errors.New("session.cache_size must be positive")
	}
	return nil
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func parseDuration(v string, dst *time.Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
