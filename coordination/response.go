package coordination

import "github.com/coordframe/delegation/types"

// Response is what the Coordinator decides to do in reply to a trigger
// (spec.md §4.9).
type Response int

const (
	ResponseContinue Response = iota
	ResponseRedelegate
	ResponseRedecompose
	ResponseEscalate
	ResponseTerminate
)

func (r Response) String() string {
	switch r {
	case ResponseContinue:
		return "Continue"
	case ResponseRedelegate:
		return "Re-delegate"
	case ResponseRedecompose:
		return "Re-decompose"
	case ResponseEscalate:
		return "Escalate"
	case ResponseTerminate:
		return "Terminate"
	default:
		return "Unknown"
	}
}

// TriggerKind identifies the event class the Coordinator is responding
// to, spanning Monitoring's triggers plus the Security and Verification
// signals that also feed the response table.
type TriggerKind string

const (
	TriggerBudgetExceeded     TriggerKind = "budget_exceeded"
	TriggerAgentUnresponsive  TriggerKind = "agent_unresponsive"
	TriggerSLOViolation       TriggerKind = "slo_violation"
	TriggerSpecChange         TriggerKind = "spec_change"
	TriggerCircuitBreakerOpen TriggerKind = "circuit_breaker_open"
	TriggerVerificationFailed TriggerKind = "verification_failed"
	TriggerDisputeResolvedKO  TriggerKind = "dispute_resolved_ko"
	TriggerNoBidders          TriggerKind = "no_bidders"
)

// responseTable is the deterministic (state, trigger) -> response mapping
// spec.md §4.9 requires be part of this component's contract. Every entry
// actually reachable given the state machine's legal states is listed
// explicitly rather than falling through to a default, so a missing
// combination is caught by ResponseFor returning ResponseContinue plus
// false rather than silently guessing.
var responseTable = map[types.TaskState]map[TriggerKind]Response{
	types.TaskAwaitingAssignment: {
		TriggerNoBidders: ResponseRedecompose,
	},
	types.TaskNegotiating: {
		TriggerCircuitBreakerOpen: ResponseRedelegate,
	},
	types.TaskContracted: {
		TriggerCircuitBreakerOpen: ResponseRedelegate,
		TriggerBudgetExceeded:     ResponseEscalate,
	},
	types.TaskInProgress: {
		TriggerBudgetExceeded:     ResponseEscalate,
		TriggerAgentUnresponsive:  ResponseRedelegate,
		TriggerSLOViolation:       ResponseEscalate,
		TriggerSpecChange:         ResponseRedecompose,
		TriggerCircuitBreakerOpen: ResponseRedelegate,
	},
	types.TaskAwaitingVerification: {
		TriggerVerificationFailed: ResponseContinue, // handled by the dispute flow, not a direct response
	},
	types.TaskDisputed: {
		TriggerDisputeResolvedKO: ResponseTerminate,
	},
}

// ResponseFor looks up the deterministic response for (state, trigger).
// The bool return is false when the combination has no defined entry —
// the Coordinator treats that as ResponseContinue but callers can log the
// gap.
func ResponseFor(state types.TaskState, trigger TriggerKind) (Response, bool) {
	byTrigger, ok := responseTable[state]
	if !ok {
		return ResponseContinue, false
	}
	resp, ok := byTrigger[trigger]
	if !ok {
		return ResponseContinue, false
	}
	return resp, true
}

// EscalateApprovalLevel raises an approval level one step
// (Standing -> Contextual -> JIT). Already-JIT contracts cannot escalate
// further within the kernel; the Coordinator must surface them to an
// external supervisor instead (spec.md §4.9).
func EscalateApprovalLevel(level types.ApprovalLevel) (next types.ApprovalLevel, needsExternalSupervisor bool) {
	switch level {
	case types.ApprovalStanding:
		return types.ApprovalContextual, false
	case types.ApprovalContextual:
		return types.ApprovalJIT, false
	default:
		return types.ApprovalJIT, true
	}
}
