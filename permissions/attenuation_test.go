package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordframe/delegation/kernelerrors"
)

func TestAttenuateIntersectsRequiredWithParentScope(t *testing.T) {
	parent := map[string]bool{"read": true, "write": true}
	required := map[string]bool{"read": true}

	child, err := Attenuate(parent, required)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"read": true}, child)
}

func TestAttenuateRejectsEscalationBeyondParentScope(t *testing.T) {
	parent := map[string]bool{"read": true}
	required := map[string]bool{"read": true, "delete": true}

	_, err := Attenuate(parent, required)
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrScopeEscalation)
}

func TestIsSubsetTrueWhenChildNarrower(t *testing.T) {
	assert.True(t, IsSubset(map[string]bool{"read": true}, map[string]bool{"read": true, "write": true}))
}

func TestIsSubsetFalseWhenChildHasExtraCapability(t *testing.T) {
	assert.False(t, IsSubset(map[string]bool{"read": true, "write": true}, map[string]bool{"read": true}))
}
