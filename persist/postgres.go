package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jacentio/socialmedia/platform"
)

// PgxConn is the subset of pgx used by PostgresStore. *pgx.Conn and *pgxpool.Pool
// both satisfy it.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createSnapshotTable = `CREATE TABLE IF NOT EXISTS platform_snapshots (
	name            TEXT PRIMARY KEY,
	snapshot        JSONB NOT NULL,
	last_post_id    BIGINT NOT NULL,
	last_account_id BIGINT NOT NULL,
	saved_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	upsertSnapshot = `INSERT INTO platform_snapshots (name, snapshot, last_post_id, last_account_id, saved_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (name) DO UPDATE SET
	snapshot = EXCLUDED.snapshot,
	last_post_id = EXCLUDED.last_post_id,
	last_account_id = EXCLUDED.last_account_id,
	saved_at = EXCLUDED.saved_at`

	selectSnapshot = `SELECT snapshot FROM platform_snapshots WHERE name = $1`

	deleteSnapshot = `DELETE FROM platform_snapshots WHERE name = $1`
)

// PostgresStore keeps one JSONB row per platform name.
type PostgresStore struct {
	db   PgxConn
	name string
}

// NewPostgresStore creates a PostgresStore for the named platform.
func NewPostgresStore(db PgxConn, name string) *PostgresStore {
	return &PostgresStore{db: db, name: name}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createSnapshotTable); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Save upserts the platform's row.
func (s *PostgresStore) Save(ctx context.Context, snap *platform.Snapshot) error {
	data, err := Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, upsertSnapshot, s.name, data, snap.LastPostID, snap.LastAccountID); err != nil {
		return fmt.Errorf("upsert snapshot %q: %w", s.name, err)
	}
	return nil
}

// Load reads the platform's row. A missing row yields ErrNoSnapshot.
func (s *PostgresStore) Load(ctx context.Context) (*platform.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(ctx, selectSnapshot, s.name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot %q: %w", s.name, err)
	}
	return Unmarshal(data)
}

// Delete removes the platform's row. Deleting a missing row is not an error.
func (s *PostgresStore) Delete(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, deleteSnapshot, s.name); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", s.name, err)
	}
	return nil
}
