package optimizer

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coordframe/delegation/types"
)

// WeightProfile is a named, persistable override of the scalarization
// weights deriveWeights would otherwise compute from task characteristics.
// Operators tune these per deployment (e.g. a "cost_optimized" profile for
// a low-stakes batch pipeline) without recompiling the kernel.
type WeightProfile struct {
	Name        string  `yaml:"name"`
	Cost        float64 `yaml:"cost"`
	Latency     float64 `yaml:"latency"`
	Quality     float64 `yaml:"quality"`
	Uncertainty float64 `yaml:"uncertainty"`
	PrivacyRisk float64 `yaml:"privacy_risk"`
}

// LoadWeightProfiles reads a YAML document of named weight profiles from
// path, keyed by profile name.
func LoadWeightProfiles(path string) (map[string]WeightProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Profiles []WeightProfile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]WeightProfile, len(raw.Profiles))
	for _, p := range raw.Profiles {
		out[p.Name] = p
	}
	return out, nil
}

// asWeights normalizes a profile into the internal weights type.
func (p WeightProfile) asWeights() weights {
	sum := p.Cost + p.Latency + p.Quality + p.Uncertainty + p.PrivacyRisk
	if sum == 0 {
		return deriveWeights(types.Characteristics{})
	}
	return weights{
		cost:        p.Cost / sum,
		latency:     p.Latency / sum,
		quality:     p.Quality / sum,
		uncertainty: p.Uncertainty / sum,
		privacyRisk: p.PrivacyRisk / sum,
	}
}

// ShouldBypassDelegation is the complexity-floor check: tasks this small
// and this certain should run locally rather than pay any delegation
// overhead at all, independent of the coordination-cost comparison in
// CheckBeneficial.
func ShouldBypassDelegation(chars types.Characteristics) bool {
	return chars.Criticality < 0.2 && chars.Complexity <= 0.2 && chars.Uncertainty < 0.2
}
