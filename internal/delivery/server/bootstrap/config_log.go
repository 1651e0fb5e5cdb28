package bootstrap

import (
	"errors"
	"os"
	"sort"
	"strings"
	"time"

	"restoree/internal/shared/config"
	"restoree/internal/shared/logging"
)

// LogServerConfiguration prints a redacted snapshot of cfg with the layer
// that supplied each non-default field.
func LogServerConfiguration(logger logging.Logger, cfg config.Config, meta config.Metadata) {
	logger = logging.OrNop(logger)
	logger.Info("=== Server Configuration ===")

	if path := meta.ConfigPath(); path != "" {
		if info, err := os.Stat(path); err == nil {
			logger.Info("Config file: %s (mtime %s)", path, info.ModTime().UTC().Format(time.RFC3339))
		} else if errors.Is(err, os.ErrNotExist) {
			logger.Debug("Config file missing: %s (defaults apply)", path)
		} else {
			logger.Warn("Config file stat failed: %v", err)
		}
	}

	logger.Info("Listen: %s:%d (source=%s)", cfg.Server.Host, cfg.Server.Port, meta.Source("server.port"))
	logger.Info("Storage: %s (source=%s)", cfg.Storage.Provider, meta.Source("storage.provider"))
	switch cfg.Storage.Provider {
	case config.StorageFile:
		logger.Info("Draft dir: %s", cfg.Storage.Dir)
	case config.StoragePostgres:
		logger.Debug("Database URL: (set; source=%s)", meta.Source("storage.database_url"))
	}
	if cfg.Storage.DraftTTL > 0 {
		logger.Info("Draft TTL: %s, sweep %q", cfg.Storage.DraftTTL, cfg.Storage.SweepSchedule)
	}
	chrome := cfg.Chrome.ExecPath
	if strings.TrimSpace(chrome) == "" {
		chrome = "(auto)"
	}
	logger.Info("Chrome: %s headless=%v timeout=%s", chrome, cfg.Chrome.Headless, cfg.Chrome.Timeout)
	logger.Debug("Logo fetch: timeout=%s max_bytes=%d retries=%d", cfg.Fetch.Timeout, cfg.Fetch.MaxBytes, cfg.Fetch.MaxRetries)
	logger.Info("Metrics: enabled=%v", cfg.Metrics.Enabled)

	sources := meta.Sources()
	fields := make([]string, 0, len(sources))
	for field := range sources {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		logger.Debug("Override %s from %s", field, sources[field])
	}
}
