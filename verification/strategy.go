// Package verification implements the four verifier strategies of
// spec.md §4.7 and the dispute state machine that adjudicates challenges
// to a verification result.
package verification

import (
	"crypto/ed25519"

	"github.com/coordframe/delegation/types"
)

// Strategy identifies which verifier handles a task's output.
type Strategy int

const (
	StrategyDirectInspection Strategy = iota
	StrategyThirdPartyAudit
	StrategyCryptographic
	StrategyGameTheoretic
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirectInspection:
		return "DirectInspection"
	case StrategyThirdPartyAudit:
		return "ThirdPartyAudit"
	case StrategyCryptographic:
		return "Cryptographic"
	case StrategyGameTheoretic:
		return "GameTheoretic"
	default:
		return "Unknown"
	}
}

// Choose picks the verifier strategy for a task's characteristics, per
// spec.md §4.7. Cryptographic verification is always run first as a cheap
// gate regardless of which strategy Choose returns — callers should treat
// it as a precondition, not an alternative (see Gate).
func Choose(chars types.Characteristics) Strategy {
	switch {
	case chars.Verifiability >= 0.8:
		return StrategyDirectInspection
	case chars.Criticality >= 0.7 && chars.Verifiability < 0.8:
		return StrategyThirdPartyAudit
	default:
		return StrategyGameTheoretic
	}
}

// Gate runs the cryptographic signature check that precedes every other
// strategy: it verifies that output was actually produced by the
// assignee's registered key before any scoring happens.
func Gate(output []byte, signature []byte, assigneePubKey ed25519.PublicKey) bool {
	if len(signature) == 0 || len(assigneePubKey) == 0 {
		return false
	}
	return ed25519.Verify(assigneePubKey, output, signature)
}

// Predicate is a deterministic check against a task's output, used by
// Direct Inspection.
type Predicate func(output []byte) bool

// DirectInspection applies predicate to output and returns whether it
// passed.
func DirectInspection(output []byte, predicate Predicate) bool {
	if predicate == nil {
		return false
	}
	return predicate(output)
}

// Auditor is the interface a third-party agent exposes for scoring
// another agent's output; Third-Party Audit requires the auditor be
// disjoint from the producer.
type Auditor interface {
	AgentID() string
	Score(output []byte) (quality float64, pass bool)
}

// ThirdPartyAudit hands output to auditor and returns its verdict. The
// caller is responsible for ensuring auditor.AgentID() != producerID
// before invoking this (disjointness is a selection-time property, not
// something this function can enforce after the fact).
func ThirdPartyAudit(auditor Auditor, output []byte) (quality float64, pass bool) {
	return auditor.Score(output)
}
