package decomposition

import (
	"fmt"

	"github.com/coordframe/delegation/kernelerrors"
	"github.com/coordframe/delegation/types"
)

// Strategy identifies which of the three decomposition shapes produced a
// plan.
type Strategy int

const (
	StrategySequential Strategy = iota
	StrategyParallel
	StrategyHybrid
)

func (s Strategy) String() string {
	switch s {
	case StrategySequential:
		return "Sequential"
	case StrategyParallel:
		return "Parallel"
	case StrategyHybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// SubtaskSpec is a draft subtask before it is persisted as a types.Task:
// title plus the characteristics it would carry once parent-inheritance
// and complexity redistribution are applied.
type SubtaskSpec struct {
	Title           string
	Characteristics types.Characteristics
	DependsOn       []string // titles of sibling subtasks this one depends on
}

// Plan is the validated output of a decomposition: a set of subtask specs
// plus the dependency edges between them, already checked for cycles and
// reachability.
type Plan struct {
	Strategy Strategy
	Subtasks []SubtaskSpec
}

// Choose picks a strategy for parent per spec.md §4.2: Hybrid by default
// when complexity >= 0.6 and decomposability >= 0.4, else Parallel when
// decomposability >= 0.7, else Sequential when latency_sensitivity < 0.5.
// Falls back to Sequential so every task with decomposability > 0 has a
// deterministic strategy.
func Choose(parent types.Characteristics) Strategy {
	switch {
	case parent.Complexity >= 0.6 && parent.Decomposability >= 0.4:
		return StrategyHybrid
	case parent.Decomposability >= 0.7:
		return StrategyParallel
	default:
		return StrategySequential
	}
}

// Decompose splits parent into rawSubtasks according to strategy, applies
// characteristics inheritance and complexity redistribution, validates the
// resulting DAG, and returns a Plan. rawSubtasks describes the shape the
// caller wants (titles and intra-sibling dependencies); this function does
// not invent subtask counts.
func Decompose(strategy Strategy, parent types.Characteristics, rawSubtasks []SubtaskSpec) (*Plan, error) {
	if len(rawSubtasks) < 2 {
		return nil, fmt.Errorf("%w: decomposition requires at least 2 subtasks, got %d",
			kernelerrors.ErrCycleDetected, len(rawSubtasks))
	}

	switch strategy {
	case StrategySequential:
		chainDependencies(rawSubtasks)
	case StrategyParallel:
		clearDependencies(rawSubtasks)
	case StrategyHybrid:
		// Dependencies are taken as given by the caller; Hybrid only
		// requires the resulting DAG to have width >= 2 and depth >= 2,
		// checked below.
	}

	inherited := make([]SubtaskSpec, len(rawSubtasks))
	for i, st := range rawSubtasks {
		inherited[i] = st
		inherited[i].Characteristics = inheritCharacteristics(parent, st.Characteristics)
	}
	redistributeComplexity(parent, inherited)

	if err := validateDAG(inherited); err != nil {
		return nil, err
	}
	if strategy == StrategyHybrid {
		if err := validateHybridShape(inherited); err != nil {
			return nil, err
		}
	}

	return &Plan{Strategy: strategy, Subtasks: inherited}, nil
}

// chainDependencies rewrites specs in place into a strict linear chain:
// subtask i depends on subtask i-1.
func chainDependencies(specs []SubtaskSpec) {
	for i := range specs {
		if i == 0 {
			specs[i].DependsOn = nil
		} else {
			specs[i].DependsOn = []string{specs[i-1].Title}
		}
	}
}

// clearDependencies rewrites specs in place into fully independent
// subtasks with no ordering constraints.
func clearDependencies(specs []SubtaskSpec) {
	for i := range specs {
		specs[i].DependsOn = nil
	}
}

// inheritCharacteristics applies max-preserving inheritance of criticality,
// privacy_risk, and reversibility from the parent; every other dimension is
// left as the caller proposed (complexity is handled separately by
// redistributeComplexity).
func inheritCharacteristics(parent, draft types.Characteristics) types.Characteristics {
	draft.Criticality = maxf(parent.Criticality, draft.Criticality)
	draft.PrivacyRisk = maxf(parent.PrivacyRisk, draft.PrivacyRisk)
	draft.Reversibility = maxf(parent.Reversibility, draft.Reversibility)
	return draft
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// redistributeComplexity scales subtask complexities in place so their sum
// never exceeds parent.Complexity * 1.2 (spec.md §4.2). If the proposed sum
// already fits, values are left untouched.
func redistributeComplexity(parent types.Characteristics, specs []SubtaskSpec) {
	const overhead = 1.2
	budget := parent.Complexity * overhead

	var sum float64
	for _, s := range specs {
		sum += s.Characteristics.Complexity
	}
	if sum <= budget || sum == 0 {
		return
	}
	scale := budget / sum
	for i := range specs {
		specs[i].Characteristics.Complexity = types.Clamp01(specs[i].Characteristics.Complexity * scale)
	}
}

// validateDAG builds a graph keyed by subtask title and runs cycle and
// reachability checks.
func validateDAG(specs []SubtaskSpec) error {
	g := newGraph()
	for _, s := range specs {
		g.addNode(s.Title)
	}
	for _, s := range specs {
		for _, dep := range s.DependsOn {
			g.addEdge(s.Title, dep)
		}
	}
	return g.validate(g.roots())
}

// validateHybridShape checks the Hybrid-specific requirement that the
// longest antichain (width) is >= 2 and the longest chain (depth) is >= 2.
func validateHybridShape(specs []SubtaskSpec) error {
	depth := map[string]int{}
	var depthOf func(title string, deps []string) int
	byTitle := map[string][]string{}
	for _, s := range specs {
		byTitle[s.Title] = s.DependsOn
	}
	depthOf = func(title string, _ []string) int {
		if d, ok := depth[title]; ok {
			return d
		}
		d := 1
		for _, dep := range byTitle[title] {
			if cd := depthOf(dep, byTitle[dep]) + 1; cd > d {
				d = cd
			}
		}
		depth[title] = d
		return d
	}

	maxDepth := 0
	widthAtDepth := map[int]int{}
	for _, s := range specs {
		d := depthOf(s.Title, s.DependsOn)
		widthAtDepth[d]++
		if d > maxDepth {
			maxDepth = d
		}
	}
	maxWidth := 0
	for _, w := range widthAtDepth {
		if w > maxWidth {
			maxWidth = w
		}
	}

	if maxDepth < 2 || maxWidth < 2 {
		return fmt.Errorf("%w: hybrid decomposition requires depth>=2 and width>=2, got depth=%d width=%d",
			kernelerrors.ErrCycleDetected, maxDepth, maxWidth)
	}
	return nil
}
