package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordframe/delegation/kernelerrors"
	"github.com/coordframe/delegation/types"
)

func TestCheckBeneficialRejectsWhenOverheadExceedsGain(t *testing.T) {
	err := CheckBeneficial(6, 10, 0.1)
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrNoBeneficialDelegation)
}

func TestCheckBeneficialAcceptsWhenGainExceedsOverhead(t *testing.T) {
	err := CheckBeneficial(1, 2, 1.0)
	assert.NoError(t, err)
}

func TestShouldBypassDelegationForTrivialTasks(t *testing.T) {
	assert.True(t, ShouldBypassDelegation(types.Characteristics{Criticality: 0.1, Complexity: 0.1, Uncertainty: 0.1}))
	assert.False(t, ShouldBypassDelegation(types.Characteristics{Criticality: 0.9, Complexity: 0.1, Uncertainty: 0.1}))
}
