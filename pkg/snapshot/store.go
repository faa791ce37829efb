package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// Store persists snapshots keyed by (userID, date). Dates are YYYY-MM-DD and
// compare chronologically as strings.
type Store interface {
	// Get returns contracts.ErrSnapshotNotFound when no row exists and
	// contracts.ErrInvalidSnapshot when the stored row fails validation.
	Get(ctx context.Context, userID, date string) (*contracts.DailyDecisionSnapshot, error)
	// Upsert replaces any existing snapshot for the same key.
	Upsert(ctx context.Context, s *contracts.DailyDecisionSnapshot) error
	// Delete removes one day. Deleting a missing day is not an error.
	Delete(ctx context.Context, userID, date string) error
	// DeleteFrom removes every snapshot dated on or after fromDate and
	// returns how many were removed.
	DeleteFrom(ctx context.Context, userID, fromDate string) (int, error)
	// Previous returns the latest snapshot dated strictly before date.
	Previous(ctx context.Context, userID, date string) (*contracts.DailyDecisionSnapshot, error)
}

func encode(s *contracts.DailyDecisionSnapshot) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// decode parses and validates a stored payload. Rows that do not match the
// schema fail closed.
func decode(payload []byte) (*contracts.DailyDecisionSnapshot, error) {
	var s contracts.DailyDecisionSnapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func checkKey(userID, date string) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", contracts.ErrInvalidSnapshot)
	}
	if _, err := contracts.ParseDate(date); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidSnapshot, err)
	}
	return nil
}
