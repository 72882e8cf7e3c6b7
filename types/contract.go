package types

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalLevel is derived from the criticality x reversibility matrix
// (spec.md §4.5).
type ApprovalLevel int

const (
	ApprovalStanding ApprovalLevel = iota
	ApprovalContextual
	ApprovalJIT
)

func (a ApprovalLevel) String() string {
	switch a {
	case ApprovalStanding:
		return "Standing"
	case ApprovalContextual:
		return "Contextual"
	case ApprovalJIT:
		return "JIT"
	default:
		return "Unknown"
	}
}

// ContractState tracks the contract's own lifecycle, separate from (but
// correlated with) the task state machine.
type ContractState int

const (
	ContractProposed ContractState = iota
	ContractActive
	ContractCompleted
	ContractRevoked
)

func (s ContractState) String() string {
	switch s {
	case ContractProposed:
		return "Proposed"
	case ContractActive:
		return "Active"
	case ContractCompleted:
		return "Completed"
	case ContractRevoked:
		return "Revoked"
	default:
		return "Unknown"
	}
}

// ResourceBudget bounds what a contract may consume.
type ResourceBudget struct {
	CPU      float64
	Memory   float64
	WallTime time.Duration
}

// SLO captures the service-level thresholds a contract must honor.
type SLO struct {
	MaxLatency time.Duration
	MinQuality float64
}

// Contract binds a task to an assignee under a resource budget, SLO,
// approval level, and an attenuated permission scope (spec.md §3).
type Contract struct {
	ID             string
	TaskID         string
	AssigneeID     string
	DelegatorID    string
	Budget         ResourceBudget
	SLOThresholds  SLO
	ApprovalLevel  ApprovalLevel
	PermissionScope map[string]bool // never a superset of the delegator's scope
	CreatedAt      time.Time
	ExpiresAt      time.Time
	State          ContractState
}

// NewContract builds a Proposed contract. scope must already have been
// validated as a subset of the delegator's scope by the caller
// (permissions.Attenuate) before construction.
func NewContract(taskID, assigneeID, delegatorID string, budget ResourceBudget, slo SLO, level ApprovalLevel, scope map[string]bool, ttl time.Duration) *Contract {
	now := time.Now()
	return &Contract{
		ID:              uuid.NewString(),
		TaskID:          taskID,
		AssigneeID:      assigneeID,
		DelegatorID:     delegatorID,
		Budget:          budget,
		SLOThresholds:   slo,
		ApprovalLevel:   level,
		PermissionScope: scope,
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
		State:           ContractProposed,
	}
}

// DelegationLink is one hop of a DelegationChain.
type DelegationLink struct {
	Delegator  string
	Delegatee  string
	ContractID string
	Scope      map[string]bool
}

// DelegationChain is the ordered list of hops from the original delegator
// down to the current assignee. Invariant: len(chain) <= maxDepth and
// scope[i+1] is a subset of scope[i] (spec.md §3).
type DelegationChain struct {
	Links []DelegationLink
}

// Depth returns the number of hops so far.
func (c *DelegationChain) Depth() int { return len(c.Links) }

// LastScope returns the scope of the most recent link, or nil if the chain
// is empty (root delegator has no upstream scope to compare against).
func (c *DelegationChain) LastScope() map[string]bool {
	if len(c.Links) == 0 {
		return nil
	}
	return c.Links[len(c.Links)-1].Scope
}
