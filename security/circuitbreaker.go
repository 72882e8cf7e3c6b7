// Package security runs the threat detectors and per-agent circuit
// breakers described in spec.md §4.6: Sybil, collusion, and behavioral
// anomaly detection, plus the Closed/Open/HalfOpen gate that suspends an
// agent from assignment after repeated failures or a detector flag.
package security

import (
	"sync"
	"time"

	"github.com/coordframe/delegation/types"
)

const (
	// DefaultFailureThreshold is the number of consecutive failures that
	// trips Closed -> Open.
	DefaultFailureThreshold = 5
	// DefaultCooldown is how long an Open breaker waits before probing
	// again via HalfOpen.
	DefaultCooldown = 60 * time.Second
)

// breakerRecord is the per-agent circuit breaker state. Unlike the
// teacher's general-purpose breaker (built for wrapping arbitrary
// outbound calls with atomics and orphaned-goroutine cleanup), this one
// only ever transitions on explicit contract-outcome and detector-flag
// events the coordinator feeds it, so a single mutex is enough.
type breakerRecord struct {
	state               types.CircuitState
	consecutiveFailures int
	openedAt            time.Time
	failureThreshold    int
	cooldown            time.Duration
}

// Breakers tracks one circuit breaker per agent.
type Breakers struct {
	mu       sync.Mutex
	byAgent  map[string]*breakerRecord
	failureThreshold int
	cooldown         time.Duration
}

// NewBreakers creates a breaker table. A zero threshold/cooldown falls
// back to the package defaults.
func NewBreakers(failureThreshold int, cooldown time.Duration) *Breakers {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Breakers{
		byAgent:          make(map[string]*breakerRecord),
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
	}
}

func (b *Breakers) record(agentID string) *breakerRecord {
	r, ok := b.byAgent[agentID]
	if !ok {
		r = &breakerRecord{state: types.CircuitClosed, failureThreshold: b.failureThreshold, cooldown: b.cooldown}
		b.byAgent[agentID] = r
	}
	return r
}

// State returns agentID's current breaker state, resolving an expired
// Open cooldown into HalfOpen as a side effect (the standard lazy
// transition so a caller doesn't need a background timer goroutine per
// agent).
func (b *Breakers) State(agentID string) types.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.record(agentID)
	if r.state == types.CircuitOpen && time.Since(r.openedAt) >= r.cooldown {
		r.state = types.CircuitHalfOpen
	}
	return r.state
}

// RecordSuccess records a successful contract outcome. In HalfOpen, the
// single probe succeeding closes the breaker and resets its failure
// count; in Closed it just resets the streak.
func (b *Breakers) RecordSuccess(agentID string) types.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.record(agentID)
	r.consecutiveFailures = 0
	if r.state == types.CircuitHalfOpen {
		r.state = types.CircuitClosed
	}
	return r.state
}

// RecordFailure records a failed contract outcome, tripping Closed ->
// Open once consecutiveFailures reaches the threshold. A failure while
// HalfOpen (the probe) immediately reopens the breaker.
func (b *Breakers) RecordFailure(agentID string) types.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.record(agentID)
	r.consecutiveFailures++
	switch r.state {
	case types.CircuitHalfOpen:
		b.trip(r)
	case types.CircuitClosed:
		if r.consecutiveFailures >= r.failureThreshold {
			b.trip(r)
		}
	}
	return r.state
}

// Trip forces an agent's breaker open immediately, regardless of its
// failure streak — used when a detector flags severity above threshold
// (spec.md §4.6).
func (b *Breakers) Trip(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trip(b.record(agentID))
}

func (b *Breakers) trip(r *breakerRecord) {
	r.state = types.CircuitOpen
	r.openedAt = time.Now()
}

// Reset forces an agent's breaker back to Closed, clearing its failure
// streak — used by an operator override or after a dispute clears the
// agent.
func (b *Breakers) Reset(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.record(agentID)
	r.state = types.CircuitClosed
	r.consecutiveFailures = 0
}
