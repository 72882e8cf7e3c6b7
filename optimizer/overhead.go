package optimizer

import (
	"fmt"

	"github.com/coordframe/delegation/kernelerrors"
)

// overheadPerHop and overheadPerSubtask calibrate the linear coordination-
// cost model: each extra hop in the delegation chain and each extra
// subtask adds a fixed coordination tax that local execution would avoid.
const (
	overheadPerHop     = 0.05
	overheadPerSubtask = 0.02
)

// EstimateCoordinationCost models the overhead of delegating versus
// executing locally, as a function of the delegation chain depth reached
// so far and the number of subtasks the decomposition would produce.
func EstimateCoordinationCost(chainDepth, subtaskCount int) float64 {
	return float64(chainDepth)*overheadPerHop + float64(subtaskCount)*overheadPerSubtask
}

// CheckBeneficial compares the estimated coordination cost against the
// expected gain from delegating (e.g. the winning bid's quality/cost
// advantage over local execution). Returns kernelerrors.ErrNoBeneficialDelegation
// when overhead outweighs gain, signaling the coordinator should execute
// locally instead (spec.md §4.4).
func CheckBeneficial(chainDepth, subtaskCount int, expectedGain float64) error {
	cost := EstimateCoordinationCost(chainDepth, subtaskCount)
	if cost >= expectedGain {
		return fmt.Errorf("optimizer.CheckBeneficial: coordination cost %.4f >= expected gain %.4f: %w",
			cost, expectedGain, kernelerrors.ErrNoBeneficialDelegation)
	}
	return nil
}
