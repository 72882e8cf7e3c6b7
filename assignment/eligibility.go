// Package assignment runs the RFP/Bid market protocol: it determines which
// agents are eligible for a task, collects bids within a bounded window,
// and turns the optimizer's winning bid into a Contract.
package assignment

import "github.com/coordframe/delegation/types"

const defaultMinReputationThreshold = 0.3

// Eligible reports whether agent may receive an RFP for a task requiring
// requiredCapabilities, per spec.md §4.3: capability superset, composite
// reputation >= threshold, circuit breaker closed, not quarantined, and
// span-of-control capacity remaining.
func Eligible(agent *types.Agent, requiredCapabilities []string, minReputationThreshold float64) bool {
	if minReputationThreshold <= 0 {
		minReputationThreshold = defaultMinReputationThreshold
	}
	if !agent.IsEligible() || !agent.HasCapacity() {
		return false
	}
	for _, c := range requiredCapabilities {
		if !agent.HasCapability(c) {
			return false
		}
	}
	return agent.Reputation.Composite() >= minReputationThreshold
}

// FilterEligible returns the subset of candidates eligible to receive an
// RFP, preserving input order.
func FilterEligible(candidates []*types.Agent, requiredCapabilities []string, minReputationThreshold float64) []*types.Agent {
	var out []*types.Agent
	for _, a := range candidates {
		if Eligible(a, requiredCapabilities, minReputationThreshold) {
			out = append(out, a)
		}
	}
	return out
}
