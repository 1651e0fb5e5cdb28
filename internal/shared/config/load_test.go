package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(values map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func fakeHome() (string, error) { return "/home/restorer", nil }

func missingFile(string) ([]byte, error) { return nil, os.ErrNotExist }

func TestLoadDefaults(t *testing.T) {
	cfg, meta, err := Load(WithEnv(envMap(nil)), WithFileReader(missingFile), WithHomeDir(fakeHome))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Storage.Provider != StorageFile {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Storage.Dir != filepath.Join("/home/restorer", ".restoree/drafts") {
		t.Fatalf("storage dir not expanded: %q", cfg.Storage.Dir)
	}
	if meta.Source("server.port") != SourceDefault {
		t.Fatalf("port source = %s", meta.Source("server.port"))
	}
	if meta.ConfigPath() != filepath.Join("/home/restorer", ".restoree", "config.yaml") {
		t.Fatalf("config path = %q", meta.ConfigPath())
	}
}

func TestLoadPrecedence(t *testing.T) {
	file := []byte(`
server:
  port: 9000
  host: 0.0.0.0
storage:
  provider: memory
  draft_ttl: 72h
logging:
  level: debug
`)
	read := func(path string) ([]byte, error) {
		if path != "/etc/restoree.yaml" {
			t.Fatalf("unexpected path %q", path)
		}
		return file, nil
	}
	env := envMap(map[string]string{
		"RESTOREE_CONFIG_PATH": "/etc/restoree.yaml",
		"RESTOREE_PORT":        "9100",
		"RESTOREE_LOG_FORMAT":  "json",
	})
	port := 9200

	cfg, meta, err := Load(WithEnv(env), WithFileReader(read), WithHomeDir(fakeHome), WithOverrides(Overrides{Port: &port}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9200 || meta.Source("server.port") != SourceOverride {
		t.Fatalf("port = %d (%s), want override", cfg.Server.Port, meta.Source("server.port"))
	}
	if cfg.Server.Host != "0.0.0.0" || meta.Source("server.host") != SourceFile {
		t.Fatalf("host = %q (%s), want file", cfg.Server.Host, meta.Source("server.host"))
	}
	if cfg.Logging.Format != "json" || meta.Source("logging.format") != SourceEnv {
		t.Fatalf("log format = %q (%s), want env", cfg.Logging.Format, meta.Source("logging.format"))
	}
	if cfg.Storage.DraftTTL != 72*time.Hour {
		t.Fatalf("draft ttl = %s", cfg.Storage.DraftTTL)
	}
	if cfg.Storage.Provider != StorageMemory {
		t.Fatalf("provider = %q", cfg.Storage.Provider)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, _, err := Load(
		WithEnv(envMap(map[string]string{"RESTOREE_PORT": "eighty"})),
		WithFileReader(missingFile),
		WithHomeDir(fakeHome),
	)
	if err == nil {
		t.Fatalf("expected parse error for RESTOREE_PORT")
	}

	_, _, err = Load(
		WithEnv(envMap(map[string]string{"RESTOREE_STORAGE_PROVIDER": "postgres"})),
		WithFileReader(missingFile),
		WithHomeDir(fakeHome),
	)
	if err == nil {
		t.Fatalf("expected validation error for postgres without database url")
	}
}
