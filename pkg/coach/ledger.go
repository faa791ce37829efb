package coach

import (
	"fmt"
	"sync"
	"time"

	"github.com/MartinT518/APEX-performance-sub001/pkg/canonicalize"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// LedgerEntry is a tamper-evident record of one computed decision.
type LedgerEntry struct {
	DecisionID   string                 `json:"decision_id"`
	Timestamp    time.Time              `json:"timestamp"`
	UserID       string                 `json:"user_id"`
	Date         string                 `json:"date"`
	GlobalStatus contracts.GlobalStatus `json:"global_status"`
	Action       contracts.Action       `json:"action"`
	RuleVersion  string                 `json:"rule_version"`
	Fingerprint  string                 `json:"fingerprint"`

	// PreviousHash links the entry to the one before it.
	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
}

// Ledger is an in-memory hash chain of decisions. When capacity is reached
// the oldest entries are dropped and the chain is anchored on the hash of
// the last dropped entry.
type Ledger struct {
	mu       sync.Mutex
	entries  []LedgerEntry
	anchor   string
	capacity int
}

// NewLedger returns a ledger holding at most capacity entries. A capacity
// of zero or less keeps everything.
func NewLedger(capacity int) *Ledger {
	return &Ledger{capacity: capacity}
}

// Append links e to the chain and returns the stored copy.
func (l *Ledger) Append(e LedgerEntry) (LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.PreviousHash = l.head()
	e.Timestamp = e.Timestamp.UTC()
	hash, err := entryHash(&e)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("ledger: %w", err)
	}
	e.Hash = hash
	l.entries = append(l.entries, e)

	if l.capacity > 0 && len(l.entries) > l.capacity {
		drop := len(l.entries) - l.capacity
		l.anchor = l.entries[drop-1].Hash
		l.entries = append([]LedgerEntry(nil), l.entries[drop:]...)
	}
	return e, nil
}

// Head returns the hash of the newest entry.
func (l *Ledger) Head() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head()
}

func (l *Ledger) head() string {
	if len(l.entries) == 0 {
		return l.anchor
	}
	return l.entries[len(l.entries)-1].Hash
}

// Entries returns a copy of the retained chain.
func (l *Ledger) Entries() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LedgerEntry(nil), l.entries...)
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Verify checks every link and every entry hash.
func (l *Ledger) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return verifyChain(l.entries, l.anchor)
}

func verifyChain(entries []LedgerEntry, anchor string) error {
	prev := anchor
	for i := range entries {
		e := entries[i]
		if e.PreviousHash != prev {
			return fmt.Errorf("ledger broken at index %d: previous hash mismatch", i)
		}
		computed, err := entryHash(&e)
		if err != nil {
			return fmt.Errorf("ledger: rehash index %d: %w", i, err)
		}
		if computed != e.Hash {
			return fmt.Errorf("ledger integrity failure at index %d: computed %s, stored %s", i, computed, e.Hash)
		}
		prev = e.Hash
	}
	return nil
}

// entryHash is the SHA-256 of the canonical entry without its own hash.
func entryHash(e *LedgerEntry) (string, error) {
	unhashed := *e
	unhashed.Hash = ""
	return canonicalize.CanonicalHash(unhashed)
}
