package optimizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWeightProfilesParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	contents := `
profiles:
  - name: cost_optimized
    cost: 0.6
    latency: 0.1
    quality: 0.1
    uncertainty: 0.1
    privacy_risk: 0.1
  - name: high_stakes
    cost: 0.05
    latency: 0.05
    quality: 0.4
    uncertainty: 0.3
    privacy_risk: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	profiles, err := LoadWeightProfiles(path)
	require.NoError(t, err)
	require.Contains(t, profiles, "cost_optimized")
	assert.Equal(t, 0.6, profiles["cost_optimized"].Cost)
	require.Contains(t, profiles, "high_stakes")
}

func TestWeightProfileAsWeightsNormalizes(t *testing.T) {
	p := WeightProfile{Cost: 2, Latency: 2, Quality: 2, Uncertainty: 2, PrivacyRisk: 2}
	w := p.asWeights()
	assert.InDelta(t, 0.2, w.cost, 1e-9)
	assert.InDelta(t, 0.2, w.quality, 1e-9)
}
