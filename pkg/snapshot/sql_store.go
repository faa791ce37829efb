package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// sqlStore holds the statements shared by the SQLite and Postgres stores.
// Only placeholder syntax differs between the two dialects.
type sqlStore struct {
	db         *sql.DB
	getQ       string
	upsertQ    string
	deleteQ    string
	deleteFrom string
	previousQ  string
}

func (s *sqlStore) Get(ctx context.Context, userID, date string) (*contracts.DailyDecisionSnapshot, error) {
	return s.queryOne(ctx, s.getQ, userID, date)
}

func (s *sqlStore) Previous(ctx context.Context, userID, date string) (*contracts.DailyDecisionSnapshot, error) {
	return s.queryOne(ctx, s.previousQ, userID, date)
}

func (s *sqlStore) queryOne(ctx context.Context, query string, args ...any) (*contracts.DailyDecisionSnapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decode(payload)
}

func (s *sqlStore) Upsert(ctx context.Context, snap *contracts.DailyDecisionSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.upsertQ,
		snap.UserID, snap.Date, string(snap.GlobalStatus), snap.Fingerprint, snap.RuleVersion, string(payload), snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, userID, date string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteQ, userID, date); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *sqlStore) DeleteFrom(ctx context.Context, userID, fromDate string) (int, error) {
	res, err := s.db.ExecContext(ctx, s.deleteFrom, userID, fromDate)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted snapshots: %w", err)
	}
	return int(n), nil
}
