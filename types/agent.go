package types

import (
	"crypto/ed25519"
	"time"
)

// CircuitState is the three-state per-agent gate guarding assignment
// (spec.md §4.6).
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Agent is a registered participant in the delegation market. Capability
// set and public key are immutable after registration; reputation and
// circuit-breaker state are mutated by the coordinator/security subsystem.
type Agent struct {
	ID           string
	Name         string
	Capabilities map[string]bool
	PublicKey    ed25519.PublicKey

	// MaxLoad/CurrentLoad implement span-of-control: an agent at capacity
	// is ineligible for new assignment regardless of reputation.
	MaxLoad     int
	CurrentLoad int

	Reputation    Reputation
	CircuitState  CircuitState
	RegisteredAt  time.Time
	Quarantined   bool
}

// NewAgent registers an agent with a neutral starting reputation.
func NewAgent(id, name string, capabilities []string, pubKey ed25519.PublicKey, maxLoad int) *Agent {
	capSet := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		capSet[c] = true
	}
	return &Agent{
		ID:           id,
		Name:         name,
		Capabilities: capSet,
		PublicKey:    pubKey,
		MaxLoad:      maxLoad,
		Reputation:   NeutralReputation(),
		CircuitState: CircuitClosed,
		RegisteredAt: time.Now(),
	}
}

// HasCapability reports whether the agent advertises cap.
func (a *Agent) HasCapability(cap string) bool {
	return a.Capabilities[cap]
}

// HasCapacity reports whether the agent can take on another contract.
func (a *Agent) HasCapacity() bool {
	return a.MaxLoad <= 0 || a.CurrentLoad < a.MaxLoad
}

// IsEligible reports whether the agent's circuit breaker allows assignment
// and it is not quarantined by Security.
func (a *Agent) IsEligible() bool {
	return a.CircuitState == CircuitClosed && !a.Quarantined
}
