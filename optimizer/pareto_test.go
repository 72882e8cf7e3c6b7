package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coordframe/delegation/types"
)

func TestParetoFrontExcludesDominatedBid(t *testing.T) {
	bids := []types.Bid{
		{AgentID: "cheap-fast", Cost: 1, EstimatedLatency: time.Second, EstimatedQuality: 0.9, Confidence: 0.9},
		{AgentID: "dominated", Cost: 2, EstimatedLatency: 2 * time.Second, EstimatedQuality: 0.5, Confidence: 0.5},
	}
	nonDominated, dominated := ParetoFront(bids)
	assert.Equal(t, []int{0}, nonDominated)
	assert.Equal(t, []int{1}, dominated)
}

func TestParetoFrontKeepsTradeoffBidsNonDominated(t *testing.T) {
	bids := []types.Bid{
		{AgentID: "cheap-slow", Cost: 1, EstimatedLatency: 10 * time.Second, EstimatedQuality: 0.6, Confidence: 0.6},
		{AgentID: "pricey-fast", Cost: 5, EstimatedLatency: time.Second, EstimatedQuality: 0.9, Confidence: 0.9},
	}
	nonDominated, dominated := ParetoFront(bids)
	assert.Len(t, nonDominated, 2)
	assert.Empty(t, dominated)
}
