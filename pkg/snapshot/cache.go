package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/retry"
)

// Outcome of a cache lookup.
type Outcome string

const (
	Hit  Outcome = "hit"
	Miss Outcome = "miss"
	// Stale means a snapshot exists but was computed from other inputs.
	Stale Outcome = "stale"
	// Invalid means the stored row failed validation and is ignored.
	Invalid Outcome = "invalid"
	// Bypass means the caller skipped the lookup and recomputed.
	Bypass Outcome = "bypass"
)

// Cache is the read-through decision cache. Misses are never errors.
type Cache struct {
	store  Store
	policy retry.Policy
	logger *slog.Logger
}

// NewCache wraps store. Writes are retried under policy.
func NewCache(store Store, policy retry.Policy) *Cache {
	return &Cache{
		store:  store,
		policy: policy,
		logger: slog.Default().With("component", "snapshot"),
	}
}

// Store returns the underlying store.
func (c *Cache) Store() Store { return c.store }

// Lookup returns the stored snapshot only if its fingerprint matches.
func (c *Cache) Lookup(ctx context.Context, userID, date, fingerprint string) (*contracts.DailyDecisionSnapshot, Outcome, error) {
	snap, err := c.store.Get(ctx, userID, date)
	switch {
	case errors.Is(err, contracts.ErrSnapshotNotFound):
		return nil, Miss, nil
	case errors.Is(err, contracts.ErrInvalidSnapshot):
		c.logger.WarnContext(ctx, "ignoring invalid snapshot", "user_id", userID, "date", date, "error", err)
		return nil, Invalid, nil
	case err != nil:
		return nil, Miss, fmt.Errorf("snapshot lookup: %w", err)
	}
	if snap.Fingerprint != fingerprint {
		return nil, Stale, nil
	}
	return snap, Hit, nil
}

// Previous returns the most recent snapshot before date, or nil.
func (c *Cache) Previous(ctx context.Context, userID, date string) *contracts.DailyDecisionSnapshot {
	snap, err := c.store.Previous(ctx, userID, date)
	if err != nil {
		if !errors.Is(err, contracts.ErrSnapshotNotFound) {
			c.logger.WarnContext(ctx, "previous snapshot unavailable", "user_id", userID, "date", date, "error", err)
		}
		return nil
	}
	return snap
}

// Save upserts snap, retrying transient failures. The returned error wraps
// contracts.ErrPersistence.
func (c *Cache) Save(ctx context.Context, snap *contracts.DailyDecisionSnapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("%w: %w", contracts.ErrPersistence, err)
	}
	err := retry.Do(ctx, c.policy, retry.Params{Operation: "snapshot.upsert", Key: snap.UserID + "/" + snap.Date},
		func(ctx context.Context) error {
			return c.store.Upsert(ctx, snap)
		})
	if err != nil {
		return fmt.Errorf("%w: %w", contracts.ErrPersistence, err)
	}
	return nil
}

// InvalidateDay drops one day after a gatekeeper input changed.
func (c *Cache) InvalidateDay(ctx context.Context, userID, date string) error {
	if err := checkKey(userID, date); err != nil {
		return err
	}
	return c.store.Delete(ctx, userID, date)
}

// InvalidateFrom drops today and every future day after a profile change.
// Past snapshots are history and are kept.
func (c *Cache) InvalidateFrom(ctx context.Context, userID, today string) (int, error) {
	if err := checkKey(userID, today); err != nil {
		return 0, err
	}
	n, err := c.store.DeleteFrom(ctx, userID, today)
	if err != nil {
		return 0, err
	}
	c.logger.InfoContext(ctx, "invalidated future snapshots", "user_id", userID, "from", today, "deleted", n)
	return n, nil
}
