// Package types defines the core data model of the coordination kernel:
// tasks, agents, contracts, delegation chains, reputation snapshots, bids,
// and ledger entries. Entities reference each other by id only — the
// Coordinator resolves references through indexed tables, never direct
// ownership, so Task/Contract/Agent never hold pointers to one another.
package types

import (
	"fmt"

	"github.com/coordframe/delegation/kernelerrors"
)

// Characteristics is the 11-dimensional real vector in [0,1] describing a
// task, per spec.md §3.
type Characteristics struct {
	Complexity         float64
	Criticality        float64
	Uncertainty        float64
	Verifiability      float64
	Reversibility      float64
	PrivacyRisk        float64
	LatencySensitivity float64
	CostSensitivity    float64
	QualityRequirement float64
	Decomposability    float64
	DomainSpecificity  float64
}

// Validate checks that every dimension is within [0,1].
func (c Characteristics) Validate() error {
	dims := map[string]float64{
		"complexity":          c.Complexity,
		"criticality":         c.Criticality,
		"uncertainty":         c.Uncertainty,
		"verifiability":       c.Verifiability,
		"reversibility":       c.Reversibility,
		"privacy_risk":        c.PrivacyRisk,
		"latency_sensitivity": c.LatencySensitivity,
		"cost_sensitivity":    c.CostSensitivity,
		"quality_requirement": c.QualityRequirement,
		"decomposability":     c.Decomposability,
		"domain_specificity":  c.DomainSpecificity,
	}
	for name, v := range dims {
		if v < 0.0 || v > 1.0 {
			return kernelerrors.New("Characteristics.Validate", name,
				fmt.Errorf("%w: %s=%v", kernelerrors.ErrInvalidCharacteristic, name, v))
		}
	}
	return nil
}

// Bucket classifies a [0,1] value into the low/med/high buckets used by the
// approval matrix: low<0.33, med<0.67, high otherwise.
type Bucket int

const (
	BucketLow Bucket = iota
	BucketMed
	BucketHigh
)

func (b Bucket) String() string {
	switch b {
	case BucketLow:
		return "low"
	case BucketMed:
		return "med"
	default:
		return "high"
	}
}

// ClassifyBucket maps a value into {low<0.33, med<0.67, high}.
func ClassifyBucket(v float64) Bucket {
	switch {
	case v < 0.33:
		return BucketLow
	case v < 0.67:
		return BucketMed
	default:
		return BucketHigh
	}
}

// Max returns the dimension-wise maximum of two Characteristics across all
// eleven dimensions. Decomposition's inheritance does not call it; it uses
// its own three-dimension inheritCharacteristics.
func Max(a, b Characteristics) Characteristics {
	return Characteristics{
		Complexity:         maxf(a.Complexity, b.Complexity),
		Criticality:        maxf(a.Criticality, b.Criticality),
		Uncertainty:        maxf(a.Uncertainty, b.Uncertainty),
		Verifiability:      maxf(a.Verifiability, b.Verifiability),
		Reversibility:      maxf(a.Reversibility, b.Reversibility),
		PrivacyRisk:        maxf(a.PrivacyRisk, b.PrivacyRisk),
		LatencySensitivity: maxf(a.LatencySensitivity, b.LatencySensitivity),
		CostSensitivity:    maxf(a.CostSensitivity, b.CostSensitivity),
		QualityRequirement: maxf(a.QualityRequirement, b.QualityRequirement),
		Decomposability:    maxf(a.Decomposability, b.Decomposability),
		DomainSpecificity:  maxf(a.DomainSpecificity, b.DomainSpecificity),
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Clamp01 clamps v into [0,1], used when clamping reputation observations.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
