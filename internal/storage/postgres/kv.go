package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/makkenzo/pixel-service-api/internal/storage/kv"
)

// KV emulates the key-value contract on a single relational table. The
// adapter stays within the same weak semantics as the other backends even
// though Postgres could offer more, so the layers above never come to
// depend on transactional behavior that Redis cannot match.
type KV struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

var _ kv.Store = (*KV)(nil)

func NewKV(db *pgxpool.Pool, logger *zap.Logger) *KV {
	return &KV{
		db:     db,
		logger: logger.Named("PostgresKV"),
	}
}

// EnsureSchema creates the backing table if it does not exist yet. One
// table with a text primary key is the entire schema.
func (s *KV) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS pixel_kv (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := s.db.Exec(ctx, query); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			s.logger.Error("Failed to ensure pixel_kv schema",
				zap.String("code", pgErr.Code),
				zap.Error(err),
			)
		}
		return fmt.Errorf("ensure pixel_kv schema: %w", err)
	}
	return nil
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM pixel_kv WHERE key = $1`

	var value []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("postgres get %q: %w", key, err)
	}
	return value, nil
}

func (s *KV) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO pixel_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres put %q: %w", key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM pixel_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete %q: %w", key, err)
	}
	return nil
}

// List reads one page of keys under the prefix in index order. It fetches
// limit+1 rows to learn whether the namespace continues past the page.
func (s *KV) List(ctx context.Context, prefix string, limit int) (kv.Page, error) {
	query := `SELECT key FROM pixel_kv WHERE key LIKE $1 || '%' ORDER BY key LIMIT $2`

	var fetch any = limit + 1
	if limit <= 0 {
		fetch = nil // LIMIT NULL reads the whole namespace
	}

	rows, err := s.db.Query(ctx, query, prefix, fetch)
	if err != nil {
		return kv.Page{}, fmt.Errorf("postgres list %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return kv.Page{}, fmt.Errorf("postgres list scan: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return kv.Page{}, fmt.Errorf("postgres list rows: %w", err)
	}

	if limit > 0 && len(keys) > limit {
		return kv.Page{Keys: keys[:limit], Complete: false}, nil
	}
	return kv.Page{Keys: keys, Complete: true}, nil
}
