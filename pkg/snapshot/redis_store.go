package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// deleteFromScript removes every snapshot on or after a date atomically.
// KEYS[1] = per-user date index (sorted set, score = YYYYMMDD)
// ARGV[1] = snapshot key prefix for the user
// ARGV[2] = minimum score to delete
var deleteFromScript = redis.NewScript(`
local index = KEYS[1]
local prefix = ARGV[1]
local min = ARGV[2]

local dates = redis.call("ZRANGEBYSCORE", index, min, "+inf")
for _, d in ipairs(dates) do
    redis.call("DEL", prefix .. d)
end
redis.call("ZREMRANGEBYSCORE", index, min, "+inf")
return #dates
`)

// RedisStore keeps one JSON value per day plus a per-user sorted index of
// dates for range operations.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store backed by Redis.
func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreWithClient(rdb)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "apex:snapshot"}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) userPrefix(userID string) string {
	return fmt.Sprintf("%s:%s:", s.prefix, userID)
}

func (s *RedisStore) indexKey(userID string) string {
	return fmt.Sprintf("%s:index:%s", s.prefix, userID)
}

func dateScore(date string) (float64, error) {
	if _, err := contracts.ParseDate(date); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.ReplaceAll(date, "-", ""))
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

func (s *RedisStore) Get(ctx context.Context, userID, date string) (*contracts.DailyDecisionSnapshot, error) {
	payload, err := s.client.Get(ctx, s.userPrefix(userID)+date).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, contracts.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decode(payload)
}

func (s *RedisStore) Upsert(ctx context.Context, snap *contracts.DailyDecisionSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	score, err := dateScore(snap.Date)
	if err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidSnapshot, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.userPrefix(snap.UserID)+snap.Date, payload, 0)
		pipe.ZAdd(ctx, s.indexKey(snap.UserID), redis.Z{Score: score, Member: snap.Date})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID, date string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.userPrefix(userID)+date)
		pipe.ZRem(ctx, s.indexKey(userID), date)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteFrom(ctx context.Context, userID, fromDate string) (int, error) {
	score, err := dateScore(fromDate)
	if err != nil {
		return 0, fmt.Errorf("delete from: %w", err)
	}
	n, err := deleteFromScript.Run(ctx, s.client,
		[]string{s.indexKey(userID)},
		s.userPrefix(userID), strconv.FormatFloat(score, 'f', 0, 64),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Previous(ctx context.Context, userID, date string) (*contracts.DailyDecisionSnapshot, error) {
	score, err := dateScore(date)
	if err != nil {
		return nil, fmt.Errorf("previous: %w", err)
	}
	dates, err := s.client.ZRevRangeByScore(ctx, s.indexKey(userID), &redis.ZRangeBy{
		Max:   "(" + strconv.FormatFloat(score, 'f', 0, 64),
		Min:   "-inf",
		Count: 1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshots: %w", err)
	}
	if len(dates) == 0 {
		return nil, contracts.ErrSnapshotNotFound
	}
	return s.Get(ctx, userID, dates[0])
}
