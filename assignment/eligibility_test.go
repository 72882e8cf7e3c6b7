package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coordframe/delegation/types"
)

func newEligibleAgent() *types.Agent {
	a := types.NewAgent("a1", "Agent One", []string{"python", "data-cleaning"}, nil, 5)
	a.Reputation.CompletionRate = 0.8
	a.Reputation.Quality = 0.8
	a.Reputation.Reliability = 0.8
	a.Reputation.Safety = 0.8
	a.Reputation.Behavioral = 0.8
	return a
}

func TestEligibleRequiresCapabilitySuperset(t *testing.T) {
	a := newEligibleAgent()
	assert.True(t, Eligible(a, []string{"python"}, 0))
	assert.False(t, Eligible(a, []string{"python", "rust"}, 0))
}

func TestEligibleRejectsLowReputation(t *testing.T) {
	a := newEligibleAgent()
	a.Reputation = types.Reputation{}
	assert.False(t, Eligible(a, []string{"python"}, 0))
}

func TestEligibleRejectsOpenCircuit(t *testing.T) {
	a := newEligibleAgent()
	a.CircuitState = types.CircuitOpen
	assert.False(t, Eligible(a, nil, 0))
}

func TestEligibleRejectsQuarantinedAgent(t *testing.T) {
	a := newEligibleAgent()
	a.Quarantined = true
	assert.False(t, Eligible(a, nil, 0))
}

func TestEligibleRejectsAgentAtCapacity(t *testing.T) {
	a := newEligibleAgent()
	a.MaxLoad = 1
	a.CurrentLoad = 1
	assert.False(t, Eligible(a, nil, 0))
}

func TestFilterEligiblePreservesOrder(t *testing.T) {
	good := newEligibleAgent()
	good.ID = "good"
	bad := newEligibleAgent()
	bad.ID = "bad"
	bad.CircuitState = types.CircuitOpen

	out := FilterEligible([]*types.Agent{bad, good}, nil, 0)
	assert.Len(t, out, 1)
	assert.Equal(t, "good", out[0].ID)
}
