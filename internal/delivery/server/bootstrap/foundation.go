package bootstrap

import (
	"context"
	"fmt"
	"os"

	"restoree/internal/app/certification"
	"restoree/internal/infra/assets"
	"restoree/internal/infra/draftstore"
	"restoree/internal/infra/httpclient"
	"restoree/internal/infra/render"
	"restoree/internal/observability"
	"restoree/internal/shared/config"
	"restoree/internal/shared/logging"
)

// Foundation holds everything the server and CLI commands share. Create it
// with BuildFoundation and defer Cleanup.
type Foundation struct {
	Config   config.Config
	Meta     config.Metadata
	Logger   logging.Logger
	Metrics  *observability.MetricsCollector
	Storage  DraftStorage
	Service  *certification.Service
	Degraded *DegradedComponents

	cleanups []func()
}

// FoundationOptions adjusts BuildFoundation for non-server callers.
type FoundationOptions struct {
	// Store replaces the configured storage backend; the janitor is skipped.
	Store certification.DraftStore
}

// InstallLogging makes the configured slog logger the process default and
// returns it.
func InstallLogging(cfg config.LoggingConfig) *observability.Logger {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: os.Stderr,
	})
	logger.Install()
	return logger
}

// BuildFoundation wires logging, metrics, storage, the janitor and the
// certification service from cfg.
func BuildFoundation(ctx context.Context, cfg config.Config, meta config.Metadata, opts FoundationOptions) (*Foundation, error) {
	logger := logging.NewSlogLogger("Bootstrap", InstallLogging(cfg.Logging).Slog())
	f := &Foundation{
		Config:   cfg,
		Meta:     meta,
		Logger:   logger,
		Degraded: NewDegradedComponents(),
	}

	stages := []Stage{
		{
			Name: "metrics", Required: true,
			Init: func() error {
				m, err := observability.NewMetricsCollector(observability.MetricsConfig{Enabled: cfg.Metrics.Enabled})
				if err != nil {
					return err
				}
				f.Metrics = m
				f.addCleanup(func() {
					if err := m.Shutdown(context.Background()); err != nil {
						logger.Warn("Metrics shutdown failed: %v", err)
					}
				})
				return nil
			},
		},
		{
			Name: "storage", Required: false,
			Init: func() error {
				if opts.Store != nil {
					f.Storage = DraftStorage{Store: opts.Store, Close: func() {}}
					return nil
				}
				storage, err := BuildDraftStorage(ctx, cfg.Storage)
				if err != nil {
					// Drafts still work for the life of the process.
					mem := draftstore.NewMemoryStore()
					f.Storage = DraftStorage{Store: mem, Pruner: mem, Close: func() {}}
					return fmt.Errorf("%s storage unavailable, using memory: %w", cfg.Storage.Provider, err)
				}
				f.Storage = storage
				f.addCleanup(storage.Close)
				return nil
			},
		},
		{
			Name: "janitor", Required: false,
			Init: func() error {
				if f.Storage.Pruner == nil || cfg.Storage.DraftTTL <= 0 || cfg.Storage.SweepSchedule == "" {
					return nil
				}
				janitor := &draftstore.Janitor{
					Pruner: f.Storage.Pruner,
					TTL:    cfg.Storage.DraftTTL,
					Logger: logging.NewComponentLogger("DraftJanitor"),
				}
				stop, err := janitor.Start(ctx, cfg.Storage.SweepSchedule)
				if err != nil {
					return err
				}
				f.addCleanup(stop)
				return nil
			},
		},
		{
			Name: "service", Required: true,
			Init: func() error {
				svc, err := BuildService(cfg, f.Storage.Store, f.Metrics)
				if err != nil {
					return err
				}
				f.Service = svc
				return nil
			},
		},
	}

	if err := RunStages(stages, f.Degraded, logger); err != nil {
		f.Cleanup()
		return nil, err
	}
	return f, nil
}

// BuildService assembles the certification service over store.
func BuildService(cfg config.Config, store certification.DraftStore, metrics *observability.MetricsCollector) (*certification.Service, error) {
	rasterizer := render.NewChromeRasterizer(render.ChromeConfig{
		ExecPath:      cfg.Chrome.ExecPath,
		Headless:      cfg.Chrome.Headless,
		Timeout:       cfg.Chrome.Timeout,
		ViewportWidth: cfg.Chrome.ViewportWidth,
	}, logging.NewComponentLogger("Rasterizer"))

	fetchLogger := logging.NewComponentLogger("LogoFetch")
	var clientOpts []httpclient.Option
	if cfg.Fetch.AllowPrivateNetworks {
		fetchLogger.Warn("Logo fetches may reach private network addresses")
		clientOpts = append(clientOpts, httpclient.AllowPrivateNetworks())
	}
	embedder := assets.NewEmbedder(
		httpclient.New(cfg.Fetch.Timeout, fetchLogger, clientOpts...),
		assets.EmbedderConfig{MaxBytes: cfg.Fetch.MaxBytes, MaxRetries: cfg.Fetch.MaxRetries},
		fetchLogger,
	)

	return certification.NewService(store, rasterizer, embedder,
		certification.WithLogger(logging.NewComponentLogger("Certification")),
		certification.WithMetrics(metrics),
		certification.WithCacheSize(cfg.Session.CacheSize),
		certification.WithPhotoReader(assets.ReadPhotos, cfg.Server.MaxUploadBytes),
	)
}

// Cleanup releases resources in reverse order of acquisition.
func (f *Foundation) Cleanup() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
	f.cleanups = nil
}

func (f *Foundation) addCleanup(fn func()) {
	if fn != nil {
		f.cleanups = append(f.cleanups, fn)
	}
}
