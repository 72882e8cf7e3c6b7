// Package ledger implements the append-only, tamper-evident audit trail
// described in spec.md §4.10. Writes are totally ordered under a single
// logical lock (monotonic sequence numbers require it); reads are
// lock-free snapshots taken under a brief read lock.
package ledger

import (
	"time"

	"github.com/coordframe/delegation/types"
)

// Backend is the narrow interface every ledger implementation satisfies.
// Components depend on this interface, never a concrete backend, so a
// Redis-backed ledger can be swapped in without touching the coordinator.
type Backend interface {
	// Append assigns the next sequence number, timestamps the entry, and
	// returns the finalized copy (with Seq/Timestamp/Hash populated).
	Append(entry types.LedgerEntry) (types.LedgerEntry, error)

	// Iter returns every entry in sequence order. It is a point-in-time
	// snapshot, not a live view.
	Iter() []types.LedgerEntry

	QueryByTask(taskID string) []types.LedgerEntry
	QueryByAgent(agentID string) []types.LedgerEntry
	QueryByKind(kind types.LedgerEventKind) []types.LedgerEntry
	QueryByTimeRange(from, to time.Time) []types.LedgerEntry

	// Len reports the number of entries written so far.
	Len() int
}

// MerkleBackend is implemented additionally by backends running in Merkle
// mode (spec.md §4.10): they expose the current root and can verify the
// full hash chain.
type MerkleBackend interface {
	Backend
	MerkleRoot() []byte
	VerifyChain() error
}
