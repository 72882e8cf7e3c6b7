package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeIsExactWeightedSum(t *testing.T) {
	r := Reputation{CompletionRate: 0.8, Quality: 0.7, Reliability: 0.6, Safety: 0.9, Behavioral: 0.5}
	want := 0.4*0.8 + 0.3*0.7 + 0.15*0.6 + 0.1*0.9 + 0.05*0.5
	assert.InDelta(t, want, r.Composite(), 1e-9)
	assert.True(t, math.Abs(want-r.Composite()) < 1e-9)
}

func TestClassifyTrustBoundaries(t *testing.T) {
	assert.Equal(t, TrustUntrusted, ClassifyTrust(0.0))
	assert.Equal(t, TrustUntrusted, ClassifyTrust(0.29))
	assert.Equal(t, TrustLow, ClassifyTrust(0.3))
	assert.Equal(t, TrustLow, ClassifyTrust(0.49))
	assert.Equal(t, TrustMedium, ClassifyTrust(0.5))
	assert.Equal(t, TrustMedium, ClassifyTrust(0.69))
	assert.Equal(t, TrustHigh, ClassifyTrust(0.7))
	assert.Equal(t, TrustHigh, ClassifyTrust(0.89))
	assert.Equal(t, TrustVerified, ClassifyTrust(0.9))
	assert.Equal(t, TrustVerified, ClassifyTrust(1.0))
}

func TestNeutralReputationIsMedium(t *testing.T) {
	r := NeutralReputation()
	assert.Equal(t, TrustMedium, ClassifyTrust(r.Composite()))
}
