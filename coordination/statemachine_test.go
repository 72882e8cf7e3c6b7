package coordination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordframe/delegation/kernelerrors"
	"github.com/coordframe/delegation/types"
)

func newTask(t *testing.T) *types.Task {
	task, err := types.NewTask("root", "desc", "", midCharacteristics())
	require.NoError(t, err)
	return task
}

func midCharacteristics() types.Characteristics {
	return types.Characteristics{
		Complexity: 0.5, Criticality: 0.5, Uncertainty: 0.5, Verifiability: 0.5,
		Reversibility: 0.5, PrivacyRisk: 0.5, LatencySensitivity: 0.5,
		CostSensitivity: 0.5, QualityRequirement: 0.5, Decomposability: 0.5,
		DomainSpecificity: 0.5,
	}
}

func TestApplyWalksHappyPathToCompleted(t *testing.T) {
	task := newTask(t)
	steps := []Event{
		EventSubmitForAssignment,
		EventBidsReceived,
		EventContractSigned,
		EventExecutionStarted,
		EventResultSubmitted,
		EventVerificationPassed,
	}
	for _, ev := range steps {
		_, err := Apply(task, ev, "progressing")
		require.NoError(t, err)
	}
	assert.Equal(t, types.TaskCompleted, task.State)
}

func TestApplyRejectsEventNotValidFromCurrentState(t *testing.T) {
	task := newTask(t)
	_, err := Apply(task, EventVerificationPassed, "skip ahead")
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrInvalidTransition)
	assert.Equal(t, types.TaskPending, task.State)
}

func TestApplyDisputedResolvesOKBackToCompleted(t *testing.T) {
	task := newTask(t)
	task.State = types.TaskDisputed
	_, err := Apply(task, EventDisputeResolvedOK, "evidence favored worker")
	require.NoError(t, err)
	assert.Equal(t, types.TaskCompleted, task.State)
}

func TestApplyDisputedResolvesKOToFailed(t *testing.T) {
	task := newTask(t)
	task.State = types.TaskDisputed
	_, err := Apply(task, EventDisputeResolvedKO, "evidence favored challenger")
	require.NoError(t, err)
	assert.Equal(t, types.TaskFailed, task.State)
}

func TestApplyRetryRequestedIncrementsCountAndReturnsToAwaitingAssignment(t *testing.T) {
	task := newTask(t)
	task.State = types.TaskFailed
	_, err := Apply(task, EventRetryRequested, "worker unresponsive")
	require.NoError(t, err)
	assert.Equal(t, types.TaskAwaitingAssignment, task.State)
	assert.Equal(t, 1, task.RetryCount)
}

func TestApplyRetryRequestedFailsOnceRetriesExhausted(t *testing.T) {
	task := newTask(t)
	task.State = types.TaskFailed
	task.RetryCount = DefaultMaxRetries
	_, err := Apply(task, EventRetryRequested, "one retry too many")
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrInvalidTransition)
	assert.Equal(t, types.TaskFailed, task.State)
}

func TestApplyReturnsPrevAndNextStateInPayload(t *testing.T) {
	task := newTask(t)
	payload, err := Apply(task, EventSubmitForAssignment, "ready")
	require.NoError(t, err)
	assert.Equal(t, "Pending", payload["prev_state"])
	assert.Equal(t, "AwaitingAssignment", payload["next_state"])
	assert.Equal(t, "ready", payload["reason"])
}
