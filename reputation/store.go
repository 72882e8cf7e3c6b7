package reputation

import (
	"sync"

	"github.com/coordframe/delegation/types"
)

// Store holds the live reputation vector for every known agent, keyed by
// agent ID. It is the system of record for assignment scoring and the
// Pareto optimizer; the permission matrix does not consult it.
type Store struct {
	mu   sync.RWMutex
	byID map[string]types.Reputation
}

// NewStore returns an empty store. Agents are seeded with
// types.NeutralReputation() on first access.
func NewStore() *Store {
	return &Store{byID: make(map[string]types.Reputation)}
}

// Get returns the current reputation for agentID, seeding a neutral
// starting point if the agent has never been observed.
func (s *Store) Get(agentID string) types.Reputation {
	s.mu.RLock()
	r, ok := s.byID[agentID]
	s.mu.RUnlock()
	if ok {
		return r
	}
	return types.NeutralReputation()
}

// Set overwrites an agent's reputation outright, used by snapshot restore.
func (s *Store) Set(agentID string, r types.Reputation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[agentID] = r
}

// Observe applies one EMA observation to agentID's reputation and persists
// the result, returning the updated vector.
func (s *Store) Observe(agentID string, obs Observation) types.Reputation {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.byID[agentID]
	if r == (types.Reputation{}) {
		r = types.NeutralReputation()
	}
	r = Apply(r, obs)
	s.byID[agentID] = r
	return r
}

// ApplyOutcome mutates agentID's reputation with fn and, while still
// holding the per-store lock, invokes persist to record the change
// alongside a ledger write. If persist fails the reputation mutation is
// rolled back so the two never diverge — spec.md requires the reputation
// update and its ledger entry to commit as a single unit.
func (s *Store) ApplyOutcome(agentID string, fn func(types.Reputation) types.Reputation, persist func(types.Reputation) error) (types.Reputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.byID[agentID]
	if !ok {
		before = types.NeutralReputation()
	}
	after := fn(before)

	if persist != nil {
		if err := persist(after); err != nil {
			return before, err
		}
	}
	s.byID[agentID] = after
	return after, nil
}

// Snapshot returns a copy of the full reputation table, for ledger replay
// or periodic checkpointing.
func (s *Store) Snapshot() map[string]types.Reputation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]types.Reputation, len(s.byID))
	for k, v := range s.byID {
		out[k] = v
	}
	return out
}

// Restore replaces the entire table, used when rehydrating from a
// checkpoint.
func (s *Store) Restore(snapshot map[string]types.Reputation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]types.Reputation, len(snapshot))
	for k, v := range snapshot {
		s.byID[k] = v
	}
}
