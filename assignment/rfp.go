package assignment

import (
	"context"
	"time"

	"github.com/coordframe/delegation/types"
)

// DefaultBidWindow is how long the coordinator waits for bids before
// closing the window (spec.md §4.3).
const DefaultBidWindow = 2 * time.Second

// RFP is broadcast to every eligible agent for a task.
type RFP struct {
	TaskID          string
	Characteristics types.Characteristics
	BudgetCeiling   types.ResourceBudget
	SLOThresholds   types.SLO
	IssuedAt        time.Time
	Window          time.Duration
}

// NewRFP builds an RFP with the default bid window.
func NewRFP(taskID string, chars types.Characteristics, budget types.ResourceBudget, slo types.SLO) RFP {
	return RFP{
		TaskID:          taskID,
		Characteristics: chars,
		BudgetCeiling:   budget,
		SLOThresholds:   slo,
		IssuedAt:        time.Now(),
		Window:          DefaultBidWindow,
	}
}

// Bidder is the agent-side contract for responding to an RFP. Real agents
// are reached over whatever transport the deployment wires in (see
// coordination.EventBus); this interface keeps the collection loop
// transport-agnostic and easy to fake in tests.
type Bidder interface {
	AgentID() string
	Bid(ctx context.Context, rfp RFP) (types.Bid, error)
}

// CollectBids broadcasts rfp to every bidder concurrently and gathers the
// responses that arrive before rfp.Window elapses. Late bids — responses
// that arrive after the window closes — are discarded even if the
// underlying call eventually succeeds. Bidder errors are dropped silently;
// callers that need a reason per no-bid agent should log inside the
// Bidder implementation.
func CollectBids(ctx context.Context, rfp RFP, bidders []Bidder) []types.Bid {
	window := rfp.Window
	if window <= 0 {
		window = DefaultBidWindow
	}
	wctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	type result struct {
		bid types.Bid
		ok  bool
	}
	results := make(chan result, len(bidders))

	for _, b := range bidders {
		go func(b Bidder) {
			bid, err := b.Bid(wctx, rfp)
			results <- result{bid: bid, ok: err == nil}
		}(b)
	}

	var bids []types.Bid
	for i := 0; i < len(bidders); i++ {
		select {
		case r := <-results:
			if r.ok {
				bids = append(bids, r.bid)
			}
		case <-wctx.Done():
			return bids
		}
	}
	return bids
}
