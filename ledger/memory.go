package ledger

import (
	"sync"
	"time"

	"github.com/coordframe/delegation/types"
)

// InMemory is the default ledger backend: an ordered, mutex-guarded slice.
// Entries are comparable by Seq. No hashing is performed — use New(true)
// for the Merkle-chained variant.
type InMemory struct {
	mu      sync.RWMutex
	entries []types.LedgerEntry
	merkle  bool
}

// New creates an in-memory ledger. When merkle is true, each entry carries
// hash_i = H(seq || prev_hash || payload) and the backend satisfies
// MerkleBackend.
func New(merkle bool) *InMemory {
	return &InMemory{merkle: merkle}
}

// Append assigns the next sequence number under the single write lock,
// optionally extending the Merkle hash chain.
func (l *InMemory) Append(entry types.LedgerEntry) (types.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Seq = uint64(len(l.entries)) + 1
	entry.Timestamp = time.Now()

	if l.merkle {
		var prevHash []byte
		if len(l.entries) > 0 {
			prevHash = l.entries[len(l.entries)-1].Hash
		}
		entry.PrevHash = prevHash
		entry.Hash = hashEntry(entry.Seq, prevHash, entry.Payload)
	}

	l.entries = append(l.entries, entry)
	return entry, nil
}

// Iter returns a snapshot copy of every entry in sequence order.
func (l *InMemory) Iter() []types.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *InMemory) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *InMemory) QueryByTask(taskID string) []types.LedgerEntry {
	return l.filter(func(e types.LedgerEntry) bool { return e.TaskID == taskID })
}

func (l *InMemory) QueryByAgent(agentID string) []types.LedgerEntry {
	return l.filter(func(e types.LedgerEntry) bool { return e.AgentID == agentID })
}

func (l *InMemory) QueryByKind(kind types.LedgerEventKind) []types.LedgerEntry {
	return l.filter(func(e types.LedgerEntry) bool { return e.Kind == kind })
}

func (l *InMemory) QueryByTimeRange(from, to time.Time) []types.LedgerEntry {
	return l.filter(func(e types.LedgerEntry) bool {
		return !e.Timestamp.Before(from) && !e.Timestamp.After(to)
	})
}

func (l *InMemory) filter(pred func(types.LedgerEntry) bool) []types.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []types.LedgerEntry
	for _, e := range l.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// MerkleRoot returns the hash of the last appended entry, or nil if the
// ledger was not created in Merkle mode or is empty.
func (l *InMemory) MerkleRoot() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.merkle || len(l.entries) == 0 {
		return nil
	}
	return l.entries[len(l.entries)-1].Hash
}

// VerifyChain recomputes every hash in sequence and compares against the
// stored values, returning kernelerrors.ErrLedgerIntegrity on mismatch.
func (l *InMemory) VerifyChain() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return verifyChain(l.entries, l.merkle)
}
