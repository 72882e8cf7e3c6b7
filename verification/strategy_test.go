package verification

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordframe/delegation/types"
)

func TestChoosePicksDirectInspectionForHighVerifiability(t *testing.T) {
	assert.Equal(t, StrategyDirectInspection, Choose(types.Characteristics{Verifiability: 0.9}))
}

func TestChoosePicksThirdPartyAuditForCriticalLowVerifiability(t *testing.T) {
	assert.Equal(t, StrategyThirdPartyAudit, Choose(types.Characteristics{Criticality: 0.8, Verifiability: 0.3}))
}

func TestChoosePicksGameTheoreticOtherwise(t *testing.T) {
	assert.Equal(t, StrategyGameTheoretic, Choose(types.Characteristics{Criticality: 0.2, Verifiability: 0.3}))
}

func TestGateVerifiesValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	output := []byte("task output")
	sig := ed25519.Sign(priv, output)

	assert.True(t, Gate(output, sig, pub))
}

func TestGateRejectsTamperedOutput(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	sig := ed25519.Sign(priv, []byte("original"))

	assert.False(t, Gate([]byte("tampered"), sig, pub))
}

func TestGateRejectsMissingSignature(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(nil)
	assert.False(t, Gate([]byte("x"), nil, pub))
}

func TestDirectInspectionAppliesPredicate(t *testing.T) {
	always := func([]byte) bool { return true }
	never := func([]byte) bool { return false }
	assert.True(t, DirectInspection([]byte("x"), always))
	assert.False(t, DirectInspection([]byte("x"), never))
	assert.False(t, DirectInspection([]byte("x"), nil))
}

type fakeAuditor struct {
	id      string
	quality float64
	pass    bool
}

func (f fakeAuditor) AgentID() string { return f.id }
func (f fakeAuditor) Score(output []byte) (float64, bool) { return f.quality, f.pass }

func TestThirdPartyAuditReturnsAuditorVerdict(t *testing.T) {
	quality, pass := ThirdPartyAudit(fakeAuditor{id: "auditor1", quality: 0.7, pass: true}, []byte("out"))
	assert.Equal(t, 0.7, quality)
	assert.True(t, pass)
}
