package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore wraps db. Call Migrate once at boot.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{sqlStore{
		db:         db,
		getQ:       `SELECT payload FROM decision_snapshots WHERE user_id = $1 AND snapshot_date = $2`,
		previousQ:  `SELECT payload FROM decision_snapshots WHERE user_id = $1 AND snapshot_date < $2 ORDER BY snapshot_date DESC LIMIT 1`,
		deleteQ:    `DELETE FROM decision_snapshots WHERE user_id = $1 AND snapshot_date = $2`,
		deleteFrom: `DELETE FROM decision_snapshots WHERE user_id = $1 AND snapshot_date >= $2`,
		upsertQ: `
		INSERT INTO decision_snapshots (user_id, snapshot_date, global_status, fingerprint, rule_version, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, snapshot_date) DO UPDATE SET
			global_status = EXCLUDED.global_status,
			fingerprint = EXCLUDED.fingerprint,
			rule_version = EXCLUDED.rule_version,
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at`,
	}}
}

// Migrate creates the snapshot table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS decision_snapshots (
		user_id TEXT NOT NULL,
		snapshot_date TEXT NOT NULL,
		global_status TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		rule_version TEXT,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ,
		PRIMARY KEY (user_id, snapshot_date)
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
