package optimizer

import (
	"github.com/coordframe/delegation/types"
)

// weights are the normalized task-derived scalarization coefficients
// (spec.md §4.4).
type weights struct {
	cost        float64
	latency     float64
	quality     float64
	uncertainty float64
	privacyRisk float64
}

// deriveWeights maps task characteristics to the five scalarization
// weights and normalizes them to sum to 1.
func deriveWeights(chars types.Characteristics) weights {
	w := weights{
		cost:        chars.CostSensitivity,
		latency:     chars.LatencySensitivity,
		quality:     chars.QualityRequirement,
		uncertainty: chars.Criticality,
		privacyRisk: chars.PrivacyRisk,
	}
	sum := w.cost + w.latency + w.quality + w.uncertainty + w.privacyRisk
	if sum == 0 {
		// Degenerate task (all-zero characteristics): fall back to an
		// equal split so scalarization is still well-defined.
		eq := 1.0 / 5
		return weights{cost: eq, latency: eq, quality: eq, uncertainty: eq, privacyRisk: eq}
	}
	return weights{
		cost:        w.cost / sum,
		latency:     w.latency / sum,
		quality:     w.quality / sum,
		uncertainty: w.uncertainty / sum,
		privacyRisk: w.privacyRisk / sum,
	}
}

// normalize rescales raw objective values across a candidate set into
// [0,1] by min-max, so differently-scaled objectives (seconds vs. dollars)
// contribute comparably to the scalarized score. A degenerate (constant)
// objective normalizes to 0 for every candidate.
func normalize(values []float64) []float64 {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(values))
	if max == min {
		return out // all zero
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}

// SelectionResult is the outcome of Select: the winning bid's index into
// the original bids slice, plus the rationale spec.md §4.3 requires be
// written to the ledger.
type SelectionResult struct {
	WinnerIndex  int
	NonDominated []int
	Dominated    []int
	TieBreak     string
}

// Select runs the Pareto filter over bids, then breaks ties within the
// front by weighted scalarization derived from taskChars, then by higher
// agent composite reputation, then by lexicographically lowest agent id.
// reputationOf looks up an agent's current composite reputation.
func Select(bids []types.Bid, taskChars types.Characteristics, reputationOf func(agentID string) float64) (SelectionResult, bool) {
	return selectWithWeights(bids, deriveWeights(taskChars), reputationOf)
}

// SelectWithProfile is Select but with the scalarization weights taken
// from an operator-supplied WeightProfile instead of derived from task
// characteristics.
func SelectWithProfile(bids []types.Bid, profile WeightProfile, reputationOf func(agentID string) float64) (SelectionResult, bool) {
	return selectWithWeights(bids, profile.asWeights(), reputationOf)
}

func selectWithWeights(bids []types.Bid, w weights, reputationOf func(agentID string) float64) (SelectionResult, bool) {
	if len(bids) == 0 {
		return SelectionResult{}, false
	}
	nonDominated, dominated := ParetoFront(bids)
	if len(nonDominated) == 1 {
		return SelectionResult{WinnerIndex: nonDominated[0], NonDominated: nonDominated, Dominated: dominated}, true
	}

	objs := make([]objectives, len(bids))
	for i, b := range bids {
		objs[i] = toObjectives(b)
	}

	costs, lats, uncs, privs, quals := make([]float64, len(nonDominated)), make([]float64, len(nonDominated)), make([]float64, len(nonDominated)), make([]float64, len(nonDominated)), make([]float64, len(nonDominated))
	for i, idx := range nonDominated {
		costs[i] = objs[idx].cost
		lats[i] = objs[idx].latency
		uncs[i] = objs[idx].uncertainty
		privs[i] = objs[idx].privacyRisk
		quals[i] = objs[idx].quality
	}
	ncosts, nlats, nuncs, nprivs, nquals := normalize(costs), normalize(lats), normalize(uncs), normalize(privs), normalize(quals)

	scores := make([]float64, len(nonDominated))
	for i := range nonDominated {
		scores[i] = w.cost*ncosts[i] + w.latency*nlats[i] + w.uncertainty*nuncs[i] +
			w.privacyRisk*nprivs[i] + w.quality*nquals[i]
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] < scores[best] {
			best = i
		}
	}
	tieBreak := "weighted_scalarization"

	// Collect every candidate tied with the current best score.
	const eps = 1e-9
	var tied []int
	for i, s := range scores {
		if s <= scores[best]+eps {
			tied = append(tied, i)
		}
	}
	if len(tied) > 1 {
		best = breakTieByReputationThenID(tied, nonDominated, bids, reputationOf)
		tieBreak = "reputation_then_agent_id"
	} else {
		best = nonDominated[best]
	}

	return SelectionResult{
		WinnerIndex:  best,
		NonDominated: nonDominated,
		Dominated:    dominated,
		TieBreak:     tieBreak,
	}, true
}

// breakTieByReputationThenID picks, among the tied positions (indices into
// nonDominated), the bid whose agent has the highest composite reputation;
// remaining ties go to the lexicographically lowest agent id. Returns an
// index into bids.
func breakTieByReputationThenID(tiedPositions, nonDominated []int, bids []types.Bid, reputationOf func(string) float64) int {
	best := nonDominated[tiedPositions[0]]
	bestRep := reputationOf(bids[best].AgentID)
	for _, pos := range tiedPositions[1:] {
		idx := nonDominated[pos]
		rep := reputationOf(bids[idx].AgentID)
		switch {
		case rep > bestRep:
			best, bestRep = idx, rep
		case rep == bestRep && bids[idx].AgentID < bids[best].AgentID:
			best = idx
		}
	}
	return best
}
