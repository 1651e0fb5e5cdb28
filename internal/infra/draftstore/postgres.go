package draftstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restoree/internal/domain/certificate"
	"restoree/internal/shared/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const draftTable = "certificate_drafts"

// PostgresStore keeps one JSONB row per session key.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
	now    func() time.Time
}

// NewPostgresStore wraps an existing pool. Call EnsureSchema before use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logging.NewComponentLogger("DraftPostgresStore"),
		now:    time.Now,
	}
}

// EnsureSchema creates the drafts table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("draft store not initialized")
	}
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    session_id TEXT PRIMARY KEY,
    payload JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);`, draftTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_certificate_drafts_updated_at ON %s (updated_at);`, draftTable),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) (*certificate.Draft, error) {
	if err := checkKey(ctx, key); err != nil {
		return nil, err
	}
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("draft store not initialized")
	}

	var raw []byte
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE session_id = $1`, draftTable)
	if err := s.pool.QueryRow(ctx, query, key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return decodeDraft(raw)
}

func (s *PostgresStore) Save(ctx context.Context, key string, d *certificate.Draft) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return fmt.Errorf("draft store not initialized")
	}
	now := s.now()
	data, err := encodeDraft(d, now)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (session_id, payload, updated_at)
VALUES ($1, $2::jsonb, $3)
ON CONFLICT (session_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
`, draftTable)
	if _, err := s.pool.Exec(ctx, query, key, data, now); err != nil {
		logging.OrNop(s.logger).Error("Failed to persist draft %s: %v", key, err)
		return err
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return fmt.Errorf("draft store not initialized")
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, draftTable), key)
	return err
}

func (s *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("draft store not initialized")
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE updated_at < $1`, draftTable), cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
