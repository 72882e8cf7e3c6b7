package coordination

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coordframe/delegation/types"
)

func TestResponseForNoBiddersRedecomposes(t *testing.T) {
	resp, ok := ResponseFor(types.TaskAwaitingAssignment, TriggerNoBidders)
	assert.True(t, ok)
	assert.Equal(t, ResponseRedecompose, resp)
}

func TestResponseForBudgetExceededInProgressEscalates(t *testing.T) {
	resp, ok := ResponseFor(types.TaskInProgress, TriggerBudgetExceeded)
	assert.True(t, ok)
	assert.Equal(t, ResponseEscalate, resp)
}

func TestResponseForAgentUnresponsiveRedelegates(t *testing.T) {
	resp, ok := ResponseFor(types.TaskInProgress, TriggerAgentUnresponsive)
	assert.True(t, ok)
	assert.Equal(t, ResponseRedelegate, resp)
}

func TestResponseForDisputeResolvedKOTerminates(t *testing.T) {
	resp, ok := ResponseFor(types.TaskDisputed, TriggerDisputeResolvedKO)
	assert.True(t, ok)
	assert.Equal(t, ResponseTerminate, resp)
}

func TestResponseForUndefinedCombinationReturnsContinueAndFalse(t *testing.T) {
	resp, ok := ResponseFor(types.TaskCompleted, TriggerBudgetExceeded)
	assert.False(t, ok)
	assert.Equal(t, ResponseContinue, resp)
}

func TestEscalateApprovalLevelStepsThroughLevels(t *testing.T) {
	next, needsSupervisor := EscalateApprovalLevel(types.ApprovalStanding)
	assert.Equal(t, types.ApprovalContextual, next)
	assert.False(t, needsSupervisor)

	next, needsSupervisor = EscalateApprovalLevel(types.ApprovalContextual)
	assert.Equal(t, types.ApprovalJIT, next)
	assert.False(t, needsSupervisor)
}

func TestEscalateApprovalLevelAtJITSurfacesToSupervisor(t *testing.T) {
	next, needsSupervisor := EscalateApprovalLevel(types.ApprovalJIT)
	assert.Equal(t, types.ApprovalJIT, next)
	assert.True(t, needsSupervisor)
}
