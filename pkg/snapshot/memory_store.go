package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// MemoryStore keeps encoded snapshots in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, userID, date string) (*contracts.DailyDecisionSnapshot, error) {
	m.mu.RLock()
	payload, ok := m.rows[userID][date]
	m.mu.RUnlock()
	if !ok {
		return nil, contracts.ErrSnapshotNotFound
	}
	return decode(payload)
}

func (m *MemoryStore) Upsert(_ context.Context, s *contracts.DailyDecisionSnapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	payload, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[s.UserID] == nil {
		m.rows[s.UserID] = make(map[string][]byte)
	}
	m.rows[s.UserID][s.Date] = payload
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows[userID], date)
	return nil
}

func (m *MemoryStore) DeleteFrom(_ context.Context, userID, fromDate string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for date := range m.rows[userID] {
		if date >= fromDate {
			delete(m.rows[userID], date)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Previous(_ context.Context, userID, date string) (*contracts.DailyDecisionSnapshot, error) {
	m.mu.RLock()
	var dates []string
	for d := range m.rows[userID] {
		if d < date {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		m.mu.RUnlock()
		return nil, contracts.ErrSnapshotNotFound
	}
	sort.Strings(dates)
	payload := m.rows[userID][dates[len(dates)-1]]
	m.mu.RUnlock()
	return decode(payload)
}
