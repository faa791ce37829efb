package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/MartinT518/APEX-performance-sub001/pkg/config"
	"github.com/MartinT518/APEX-performance-sub001/pkg/snapshot"
)

// openedStore is a snapshot store plus whatever must be closed with it.
type openedStore struct {
	snapshot.Store
	Backend string
	ping    func(ctx context.Context) error
	close   func() error
}

func (s *openedStore) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *openedStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func openStore(ctx context.Context, cfg *config.Config) (*openedStore, error) {
	switch cfg.SnapshotBackend {
	case config.BackendMemory:
		log.Println("[apex] lite mode: using in-memory snapshots")
		return &openedStore{Store: snapshot.NewMemoryStore(), Backend: config.BackendMemory}, nil

	case config.BackendSQLite:
		return setupLiteMode(cfg.SQLitePath)

	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		ps := snapshot.NewPostgresStore(db)
		if err := ps.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Println("[apex] postgres: connected")
		return &openedStore{Store: ps, Backend: config.BackendPostgres, ping: db.PingContext, close: db.Close}, nil

	case config.BackendRedis:
		rs := snapshot.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Printf("[apex] redis: connected to %s", cfg.RedisAddr)
		return &openedStore{Store: rs, Backend: config.BackendRedis, ping: rs.Ping, close: rs.Close}, nil

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

// setupLiteMode opens the embedded SQLite snapshot store.
func setupLiteMode(dbPath string) (*openedStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	st, err := snapshot.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("[apex] lite mode: using sqlite at %s", dbPath)
	return &openedStore{Store: st, Backend: config.BackendSQLite, ping: db.PingContext, close: db.Close}, nil
}
