package assignment

import (
	"fmt"
	"time"

	"github.com/coordframe/delegation/kernelerrors"
	"github.com/coordframe/delegation/types"
)

// DefaultContractTTL bounds how long a Proposed contract remains valid
// before it must be re-negotiated.
const DefaultContractTTL = 24 * time.Hour

// SelectionRationale records why a particular bid won, for the ledger
// entry spec.md §4.3 requires ("which bids were dominated, which were
// non-dominated, tie-break reason").
type SelectionRationale struct {
	NonDominated []string // bid IDs on the Pareto front
	Dominated    []string // bid IDs eliminated by dominance
	TieBreak     string   // empty if the front had a single member
	WinningBidID string
}

// AwardContract turns the optimizer's chosen bid into a Proposed contract.
// Returns kernelerrors.ErrNoBidders if winner is nil — the caller is
// expected to have already closed the RFP window before calling this.
func AwardContract(rfp RFP, winner *types.Bid, delegatorID string, approvalLevel types.ApprovalLevel, scope map[string]bool) (*types.Contract, error) {
	if winner == nil {
		return nil, fmt.Errorf("assignment.AwardContract: %w", kernelerrors.ErrNoBidders)
	}
	return types.NewContract(
		rfp.TaskID,
		winner.AgentID,
		delegatorID,
		rfp.BudgetCeiling,
		rfp.SLOThresholds,
		approvalLevel,
		scope,
		DefaultContractTTL,
	), nil
}
