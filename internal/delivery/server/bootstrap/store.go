package bootstrap

import (
	"context"
	"fmt"

	"restoree/internal/app/certification"
	"restoree/internal/infra/draftstore"
	"restoree/internal/shared/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DraftStorage is the configured persistence backend.
type DraftStorage struct {
	Store  certification.DraftStore
	Pruner draftstore.Pruner
	Close  func()
}

// BuildDraftStorage opens the backend named by cfg.Provider.
func BuildDraftStorage(ctx context.Context, cfg config.StorageConfig) (DraftStorage, error) {
	switch cfg.Provider {
	case config.StorageMemory:
		store := draftstore.NewMemoryStore()
		return DraftStorage{Store: store, Pruner: store, Close: func() {}}, nil
	case config.StorageFile:
		store, err := draftstore.NewFileStore(cfg.Dir)
		if err != nil {
			return DraftStorage{}, err
		}
		return DraftStorage{Store: store, Pruner: store, Close: func() {}}, nil
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return DraftStorage{}, fmt.Errorf("open postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return DraftStorage{}, fmt.Errorf("ping postgres: %w", err)
		}
		store := draftstore.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return DraftStorage{}, err
		}
		return DraftStorage{Store: store, Pruner: store, Close: pool.Close}, nil
	default:
		return DraftStorage{}, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}
