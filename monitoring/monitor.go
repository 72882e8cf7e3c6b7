// Package monitoring tracks active contracts for budget, SLO, heartbeat,
// and spec-drift violations, and raises Coordinator-bound triggers when
// one fires (spec.md §4.8).
package monitoring

import (
	"time"

	"github.com/coordframe/delegation/types"
)

const (
	// DefaultHeartbeatInterval is how often an executing agent is expected
	// to check in.
	DefaultHeartbeatInterval = 30 * time.Second
	// BudgetOverrunFactor is the multiplier on a contract's resource
	// budget past which budget_exceeded fires.
	BudgetOverrunFactor = 1.1
	// CharacteristicDriftEpsilon bounds how much a parent task's
	// characteristics may mutate before spec_change fires.
	CharacteristicDriftEpsilon = 0.1
)

// CheckpointFractions are the points at which Monitoring expects a partial
// result to have been recorded (spec.md §4.8).
var CheckpointFractions = []float64{0.25, 0.5, 0.75}

// TriggerKind enumerates the events Monitoring raises to the Coordinator.
type TriggerKind string

const (
	TriggerBudgetExceeded   TriggerKind = "budget_exceeded"
	TriggerAgentUnresponsive TriggerKind = "agent_unresponsive"
	TriggerSLOViolation     TriggerKind = "slo_violation"
	TriggerSpecChange       TriggerKind = "spec_change"
)

// Trigger is one event Monitoring sends to the Coordinator.
type Trigger struct {
	Kind       TriggerKind
	TaskID     string
	ContractID string
	Detail     string
	RaisedAt   time.Time
}

// ContractMonitor tracks the live state Monitoring needs for one active
// contract: resource consumption so far, heartbeat history, and the
// checkpoint fractions already recorded.
type ContractMonitor struct {
	ContractID       string
	TaskID           string
	Budget           types.ResourceBudget
	SLO              types.SLO
	StartedAt        time.Time
	CumulativeCPU    float64
	CumulativeMemory float64
	LastHeartbeat    time.Time
	MissedHeartbeats int
	RecordedFractions map[float64]bool
	baselineChars    types.Characteristics
}

// NewContractMonitor starts tracking an active contract.
func NewContractMonitor(contractID, taskID string, budget types.ResourceBudget, slo types.SLO, baseline types.Characteristics) *ContractMonitor {
	now := time.Now()
	return &ContractMonitor{
		ContractID:        contractID,
		TaskID:            taskID,
		Budget:            budget,
		SLO:               slo,
		StartedAt:         now,
		LastHeartbeat:     now,
		RecordedFractions: make(map[float64]bool),
		baselineChars:     baseline,
	}
}

// RecordUsage accumulates resource consumption and checks for
// budget_exceeded.
func (m *ContractMonitor) RecordUsage(cpu, memory float64) *Trigger {
	m.CumulativeCPU += cpu
	m.CumulativeMemory += memory

	cpuBudget := m.Budget.CPU * BudgetOverrunFactor
	memBudget := m.Budget.Memory * BudgetOverrunFactor
	if (m.Budget.CPU > 0 && m.CumulativeCPU > cpuBudget) ||
		(m.Budget.Memory > 0 && m.CumulativeMemory > memBudget) {
		return &Trigger{Kind: TriggerBudgetExceeded, TaskID: m.TaskID, ContractID: m.ContractID,
			Detail: "cumulative resource usage exceeds 1.1x budget", RaisedAt: time.Now()}
	}
	return nil
}

// Heartbeat records a liveness check-in from the assignee, resetting the
// missed-heartbeat streak.
func (m *ContractMonitor) Heartbeat() {
	m.LastHeartbeat = time.Now()
	m.MissedHeartbeats = 0
}

// CheckHeartbeat evaluates elapsed time since the last heartbeat against
// interval and fires agent_unresponsive after two consecutive misses
// (spec.md §4.8). Each poll counts at most one missed interval.
func (m *ContractMonitor) CheckHeartbeat(interval time.Duration) *Trigger {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if time.Since(m.LastHeartbeat) < interval {
		return nil
	}
	m.MissedHeartbeats++
	m.LastHeartbeat = m.LastHeartbeat.Add(interval) // each counted miss consumes exactly one interval of silence
	if m.MissedHeartbeats >= 2 {
		return &Trigger{Kind: TriggerAgentUnresponsive, TaskID: m.TaskID, ContractID: m.ContractID,
			Detail: "two consecutive missed heartbeats", RaisedAt: time.Now()}
	}
	return nil
}

// CheckSLO projects completion time from elapsed progress and fires
// slo_violation when the projection exceeds MaxLatency.
func (m *ContractMonitor) CheckSLO(projectedCompletion time.Duration) *Trigger {
	if m.SLO.MaxLatency <= 0 {
		return nil
	}
	if projectedCompletion > m.SLO.MaxLatency {
		return &Trigger{Kind: TriggerSLOViolation, TaskID: m.TaskID, ContractID: m.ContractID,
			Detail: "projected completion exceeds max_latency", RaisedAt: time.Now()}
	}
	return nil
}

// CheckSpecDrift compares current against the baseline characteristics
// captured at monitor creation and fires spec_change if any dimension
// moved by more than CharacteristicDriftEpsilon.
func (m *ContractMonitor) CheckSpecDrift(current types.Characteristics) *Trigger {
	dims := []struct {
		name     string
		baseline float64
		current  float64
	}{
		{"complexity", m.baselineChars.Complexity, current.Complexity},
		{"criticality", m.baselineChars.Criticality, current.Criticality},
		{"uncertainty", m.baselineChars.Uncertainty, current.Uncertainty},
		{"verifiability", m.baselineChars.Verifiability, current.Verifiability},
		{"reversibility", m.baselineChars.Reversibility, current.Reversibility},
		{"privacy_risk", m.baselineChars.PrivacyRisk, current.PrivacyRisk},
		{"latency_sensitivity", m.baselineChars.LatencySensitivity, current.LatencySensitivity},
		{"cost_sensitivity", m.baselineChars.CostSensitivity, current.CostSensitivity},
		{"quality_requirement", m.baselineChars.QualityRequirement, current.QualityRequirement},
		{"decomposability", m.baselineChars.Decomposability, current.Decomposability},
		{"domain_specificity", m.baselineChars.DomainSpecificity, current.DomainSpecificity},
	}
	for _, d := range dims {
		delta := d.current - d.baseline
		if delta < 0 {
			delta = -delta
		}
		if delta > CharacteristicDriftEpsilon {
			return &Trigger{Kind: TriggerSpecChange, TaskID: m.TaskID, ContractID: m.ContractID,
				Detail: "characteristic " + d.name + " drifted beyond epsilon", RaisedAt: time.Now()}
		}
	}
	return nil
}

// RecordCheckpoint marks fraction as recorded if it is one of the
// expected CheckpointFractions and returns whether it was newly recorded.
func (m *ContractMonitor) RecordCheckpoint(fraction float64) bool {
	for _, f := range CheckpointFractions {
		if f == fraction {
			if m.RecordedFractions[f] {
				return false
			}
			m.RecordedFractions[f] = true
			return true
		}
	}
	return false
}
