package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the lite-mode store.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore creates the table if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{sqlStore{
		db:         db,
		getQ:       `SELECT payload FROM decision_snapshots WHERE user_id = ? AND snapshot_date = ?`,
		previousQ:  `SELECT payload FROM decision_snapshots WHERE user_id = ? AND snapshot_date < ? ORDER BY snapshot_date DESC LIMIT 1`,
		deleteQ:    `DELETE FROM decision_snapshots WHERE user_id = ? AND snapshot_date = ?`,
		deleteFrom: `DELETE FROM decision_snapshots WHERE user_id = ? AND snapshot_date >= ?`,
		upsertQ: `
		INSERT INTO decision_snapshots (user_id, snapshot_date, global_status, fingerprint, rule_version, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, snapshot_date) DO UPDATE SET
			global_status = excluded.global_status,
			fingerprint = excluded.fingerprint,
			rule_version = excluded.rule_version,
			payload = excluded.payload,
			created_at = excluded.created_at`,
	}}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS decision_snapshots (
		user_id TEXT NOT NULL,
		snapshot_date TEXT NOT NULL,
		global_status TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		rule_version TEXT,
		payload BLOB NOT NULL,
		created_at DATETIME,
		PRIMARY KEY (user_id, snapshot_date)
	);`
	if _, err := s.db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("sqlite migrate: %w", err)
	}
	return nil
}
