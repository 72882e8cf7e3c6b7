// Package coordination owns the task lifecycle state machine and the
// Coordinator that drives it: it consults Decomposition and Assignment,
// issues Contracts gated by Permissions, hands execution to Monitoring,
// funnels results to Verification, and writes every transition to the
// Ledger (spec.md §2, §4.9).
package coordination

import (
	"fmt"

	"github.com/coordframe/delegation/kernelerrors"
	"github.com/coordframe/delegation/types"
)

// Event drives a task state transition (spec.md §4.1).
type Event int

const (
	EventDecompose Event = iota
	EventSubmitForAssignment
	EventBidsReceived
	EventContractSigned
	EventExecutionStarted
	EventResultSubmitted
	EventVerificationPassed
	EventVerificationFailed
	EventDisputeRaised
	EventDisputeResolvedOK
	EventDisputeResolvedKO
	EventRetryRequested
	EventAbandon
)

func (e Event) String() string {
	switch e {
	case EventDecompose:
		return "Decompose"
	case EventSubmitForAssignment:
		return "SubmitForAssignment"
	case EventBidsReceived:
		return "BidsReceived"
	case EventContractSigned:
		return "ContractSigned"
	case EventExecutionStarted:
		return "ExecutionStarted"
	case EventResultSubmitted:
		return "ResultSubmitted"
	case EventVerificationPassed:
		return "VerificationPassed"
	case EventVerificationFailed:
		return "VerificationFailed"
	case EventDisputeRaised:
		return "DisputeRaised"
	case EventDisputeResolvedOK:
		return "DisputeResolved(ok)"
	case EventDisputeResolvedKO:
		return "DisputeResolved(ko)"
	case EventRetryRequested:
		return "RetryRequested"
	case EventAbandon:
		return "Abandon"
	default:
		return "Unknown"
	}
}

// transitions is the exhaustive (state, event) -> state table (spec.md
// §4.1). Any (state, event) pair absent from this table is invalid.
var transitions = map[types.TaskState]map[Event]types.TaskState{
	types.TaskPending: {
		EventDecompose:           types.TaskDecomposing,
		EventSubmitForAssignment: types.TaskAwaitingAssignment,
	},
	types.TaskDecomposing: {
		EventSubmitForAssignment: types.TaskAwaitingAssignment,
	},
	types.TaskAwaitingAssignment: {
		EventBidsReceived: types.TaskNegotiating,
		EventAbandon:      types.TaskFailed,
	},
	types.TaskNegotiating: {
		EventContractSigned: types.TaskContracted,
		EventAbandon:        types.TaskFailed,
	},
	types.TaskContracted: {
		EventExecutionStarted: types.TaskInProgress,
		EventAbandon:          types.TaskFailed,
	},
	types.TaskInProgress: {
		EventResultSubmitted: types.TaskAwaitingVerification,
		EventDecompose:       types.TaskDecomposing,
		EventAbandon:         types.TaskFailed,
	},
	types.TaskAwaitingVerification: {
		EventVerificationPassed: types.TaskCompleted,
		EventVerificationFailed: types.TaskDisputed,
	},
	types.TaskDisputed: {
		EventDisputeResolvedOK: types.TaskCompleted,
		EventDisputeResolvedKO: types.TaskFailed,
	},
	types.TaskFailed: {
		EventRetryRequested: types.TaskAwaitingAssignment,
	},
}

// Apply validates the (task.State, event) precondition, mutates task in
// place on success, and returns the ledger payload the caller should
// append as a StateTransition entry. An invalid event returns
// kernelerrors.ErrInvalidTransition and does not mutate task; callers are
// expected to log that outcome as InvalidTransition themselves (spec.md
// §4.1) since only they know the correlation id to attach.
func Apply(task *types.Task, event Event, reason string) (map[string]interface{}, error) {
	byEvent, ok := transitions[task.State]
	if !ok {
		return nil, fmt.Errorf("coordination.Apply: %w: no transitions defined from state %s",
			kernelerrors.ErrInvalidTransition, task.State)
	}
	next, ok := byEvent[event]
	if !ok {
		return nil, fmt.Errorf("coordination.Apply: %w: event %s is not valid from state %s",
			kernelerrors.ErrInvalidTransition, event, task.State)
	}

	prev := task.State

	if event == EventRetryRequested {
		if task.RetryCount >= maxRetries(task) {
			return nil, fmt.Errorf("coordination.Apply: %w: task %s exhausted retries",
				kernelerrors.ErrInvalidTransition, task.ID)
		}
		task.RetryCount++
	}

	task.State = next
	return map[string]interface{}{
		"prev_state": prev.String(),
		"next_state": next.String(),
		"reason":     reason,
	}, nil
}

// DefaultMaxRetries bounds how many times a Failed task may loop back to
// AwaitingAssignment (spec.md §4.1).
const DefaultMaxRetries = 3

// maxRetries is a seam for a future per-task override; today every task
// uses the package default.
func maxRetries(_ *types.Task) int {
	return DefaultMaxRetries
}
