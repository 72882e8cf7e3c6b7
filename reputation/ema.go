// Package reputation implements the EMA multi-dimensional scoring and trust
// classification described in spec.md §3, §4.11. Updates use an adaptive
// learning rate that decays as an agent accumulates observations, so a
// single bad outcome matters less to an agent with a long track record
// than to a newcomer.
package reputation

import "github.com/coordframe/delegation/types"

const (
	alpha0 = 0.2  // base learning rate
	beta   = 0.01 // decay coefficient
)

// adaptiveAlpha computes alpha = alpha0 / (1 + n*beta) for an agent that
// has accumulated n prior observations.
func adaptiveAlpha(n int) float64 {
	return alpha0 / (1 + float64(n)*beta)
}

// ema applies one exponential-moving-average step: r <- (1-a)*r + a*obs,
// with obs clamped to [0,1] first.
func ema(current, observation, alpha float64) float64 {
	observation = types.Clamp01(observation)
	return (1-alpha)*current + alpha*observation
}

// Dimension identifies which of the five EMA scalars an observation
// updates.
type Dimension int

const (
	DimCompletionRate Dimension = iota
	DimQuality
	DimReliability
	DimSafety
	DimBehavioral
)

// Observation is one reputation-affecting event.
type Observation struct {
	Dimension Dimension
	Value     float64
}

// Apply returns a copy of r with one dimension updated via the adaptive
// EMA rule, and increments the observation counter. It is a pure function:
// callers decide whether/when to persist and whether to log it alongside
// a ledger write (see Store.ApplyOutcome for the atomic variant).
func Apply(r types.Reputation, obs Observation) types.Reputation {
	a := adaptiveAlpha(r.Observations)
	switch obs.Dimension {
	case DimCompletionRate:
		r.CompletionRate = ema(r.CompletionRate, obs.Value, a)
	case DimQuality:
		r.Quality = ema(r.Quality, obs.Value, a)
	case DimReliability:
		r.Reliability = ema(r.Reliability, obs.Value, a)
	case DimSafety:
		r.Safety = ema(r.Safety, obs.Value, a)
	case DimBehavioral:
		r.Behavioral = ema(r.Behavioral, obs.Value, a)
	}
	r.Observations++
	return r
}

// PenalizeVerificationFailure applies the -0.3 safety penalty before the
// EMA step (spec.md §4.11): the observation fed into the EMA is
// (old_safety - 0.3), clamped to [0,1].
func PenalizeVerificationFailure(r types.Reputation) types.Reputation {
	return Apply(r, Observation{Dimension: DimSafety, Value: r.Safety - 0.3})
}

// PenalizeDetectorFlag applies the -0.5 behavioral penalty before the EMA
// step (spec.md §4.11).
func PenalizeDetectorFlag(r types.Reputation) types.Reputation {
	return Apply(r, Observation{Dimension: DimBehavioral, Value: r.Behavioral - 0.5})
}
