// Package optimizer selects the winning bid for a task via Pareto-front
// filtering followed by weighted-scalarization tie-break, per spec.md §4.4.
package optimizer

import (
	"sort"

	"github.com/coordframe/delegation/types"
)

// objectives is a bid reduced to the five minimization objectives: cost,
// latency, uncertainty, privacy_risk, and quality (negated so that lower
// is always better, matching the others).
type objectives struct {
	cost        float64
	latency     float64
	uncertainty float64
	privacyRisk float64
	quality     float64 // already negated: -EstimatedQuality
}

func toObjectives(b types.Bid) objectives {
	return objectives{
		cost:        b.Cost,
		latency:     b.EstimatedLatency.Seconds(),
		uncertainty: 1 - b.Confidence,
		privacyRisk: b.PrivacyRisk,
		quality:     -b.EstimatedQuality,
	}
}

// dominates reports whether a is at least as good as b in every objective
// and strictly better in at least one (spec.md §4.4).
func (a objectives) dominates(b objectives) bool {
	le := a.cost <= b.cost && a.latency <= b.latency && a.uncertainty <= b.uncertainty &&
		a.privacyRisk <= b.privacyRisk && a.quality <= b.quality
	if !le {
		return false
	}
	return a.cost < b.cost || a.latency < b.latency || a.uncertainty < b.uncertainty ||
		a.privacyRisk < b.privacyRisk || a.quality < b.quality
}

// ParetoFront returns the indices (into bids) of the non-dominated bids,
// plus the indices of the dominated ones, preserving input order within
// each group.
func ParetoFront(bids []types.Bid) (nonDominated, dominated []int) {
	objs := make([]objectives, len(bids))
	for i, b := range bids {
		objs[i] = toObjectives(b)
	}
	for i := range bids {
		isDominated := false
		for j := range bids {
			if i == j {
				continue
			}
			if objs[j].dominates(objs[i]) {
				isDominated = true
				break
			}
		}
		if isDominated {
			dominated = append(dominated, i)
		} else {
			nonDominated = append(nonDominated, i)
		}
	}
	return nonDominated, dominated
}

// sortedFrontIndices returns a copy of idx sorted in ascending order. It
// has no caller in this module.
func sortedFrontIndices(idx []int) []int {
	out := make([]int, len(idx))
	copy(out, idx)
	sort.Ints(out)
	return out
}
