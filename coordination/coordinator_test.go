package coordination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordframe/delegation/assignment"
	"github.com/coordframe/delegation/ledger"
	"github.com/coordframe/delegation/monitoring"
	"github.com/coordframe/delegation/reputation"
	"github.com/coordframe/delegation/security"
	"github.com/coordframe/delegation/types"
)

func newCoordinator() (*Coordinator, *ledger.InMemory) {
	l := ledger.New(false)
	c := New(l, reputation.NewStore(), security.NewBreakers(0, 0), nil, nil)
	return c, l
}

func TestRegisterWritesTaskCreatedEntry(t *testing.T) {
	c, l := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))

	entries := l.QueryByTask(task.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, types.EventTaskCreated, entries[0].Kind)
}

func TestTransitionAppendsStateTransitionEntryOnSuccess(t *testing.T) {
	c, l := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))

	require.NoError(t, c.Transition(task.ID, EventSubmitForAssignment, "ready to bid"))
	assert.Equal(t, types.TaskAwaitingAssignment, task.State)

	entries := l.QueryByTask(task.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, types.EventStateTransition, entries[1].Kind)
	assert.Equal(t, "AwaitingAssignment", entries[1].Payload["next_state"])
}

func TestTransitionAppendsInvalidTransitionEntryWithoutMutatingState(t *testing.T) {
	c, l := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))

	err := c.Transition(task.ID, EventVerificationPassed, "skip ahead")
	require.Error(t, err)
	assert.Equal(t, types.TaskPending, task.State)

	entries := l.QueryByTask(task.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, types.EventInvalidTransition, entries[1].Kind)
}

func TestTransitionOnUnknownTaskErrors(t *testing.T) {
	c, _ := newCoordinator()
	err := c.Transition("ghost", EventSubmitForAssignment, "n/a")
	require.Error(t, err)
}

func TestRecordOutcomeAppliesObservationsAndLogsReputationUpdate(t *testing.T) {
	c, l := newCoordinator()
	obs := []reputation.Observation{
		{Dimension: reputation.DimCompletionRate, Value: 0.9},
		{Dimension: reputation.DimQuality, Value: 0.8},
	}
	after, err := c.RecordOutcome("agent-1", obs, false)
	require.NoError(t, err)
	assert.Greater(t, after.CompletionRate, 0.0)

	entries := l.QueryByAgent("agent-1")
	require.Len(t, entries, 1)
	assert.Equal(t, types.EventReputationUpdated, entries[0].Kind)
}

func TestRecordOutcomeOnVerificationFailurePenalizesSafetyAndRecordsBreakerFailure(t *testing.T) {
	c, _ := newCoordinator()
	before := c.Reputation.Get("agent-2")

	after, err := c.RecordOutcome("agent-2", nil, true)
	require.NoError(t, err)
	assert.Less(t, after.Safety, before.Safety)
	assert.Equal(t, types.CircuitClosed, c.Breakers.State("agent-2"))
}

func TestRecordOutcomeTripsBreakerAfterThresholdFailuresAndLogsTrip(t *testing.T) {
	c, l := newCoordinator()
	c.Breakers = security.NewBreakers(2, 0)

	_, err := c.RecordOutcome("agent-3", nil, true)
	require.NoError(t, err)
	_, err = c.RecordOutcome("agent-3", nil, true)
	require.NoError(t, err)

	assert.Equal(t, types.CircuitOpen, c.Breakers.State("agent-3"))
	entries := l.QueryByAgent("agent-3")
	found := false
	for _, e := range entries {
		if e.Kind == types.EventCircuitBreakerTripped {
			found = true
		}
	}
	assert.True(t, found)
}

func TestHandleTriggerNoBiddersRedecomposes(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))
	require.NoError(t, c.Transition(task.ID, EventSubmitForAssignment, "ready"))

	resp, err := c.HandleTrigger(task.ID, TriggerNoBidders, "no bids arrived")
	require.NoError(t, err)
	assert.Equal(t, ResponseRedecompose, resp)
	assert.Equal(t, types.TaskDecomposing, task.State)
}

func TestHandleTriggerDisputeResolvedKOTerminatesTask(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))
	task.State = types.TaskDisputed

	resp, err := c.HandleTrigger(task.ID, TriggerDisputeResolvedKO, "challenger prevailed")
	require.NoError(t, err)
	assert.Equal(t, ResponseTerminate, resp)
	assert.Equal(t, types.TaskFailed, task.State)
}

func TestHandleTriggerAgentUnresponsiveRedelegatesByFailingThenRetrying(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))
	task.State = types.TaskInProgress

	resp, err := c.HandleTrigger(task.ID, TriggerAgentUnresponsive, "missed two heartbeats")
	require.NoError(t, err)
	assert.Equal(t, ResponseRedelegate, resp)
	assert.Equal(t, types.TaskAwaitingAssignment, task.State)
	assert.Equal(t, 1, task.RetryCount)
}

func TestHandleTriggerOnUnknownCombinationReturnsContinueWithoutMutating(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))

	resp, err := c.HandleTrigger(task.ID, TriggerBudgetExceeded, "n/a in Pending")
	require.NoError(t, err)
	assert.Equal(t, ResponseContinue, resp)
	assert.Equal(t, types.TaskPending, task.State)
}

func TestRecordContractUsageRoutesBudgetExceededThroughHandleTrigger(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))
	task.State = types.TaskInProgress

	budget := types.ResourceBudget{CPU: 1, Memory: 1}
	c.TrackContract("contract-1", monitoring.NewContractMonitor("contract-1", task.ID, budget, types.SLO{}, task.Characteristics))

	resp, err := c.RecordContractUsage("contract-1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, ResponseEscalate, resp)
}

func TestPollContractOnUntrackedContractErrors(t *testing.T) {
	c, _ := newCoordinator()
	_, err := c.PollContract("ghost", time.Second, time.Second, types.Characteristics{})
	require.Error(t, err)
}

func TestRecordOutcomeFlagsBehavioralThreatAfterTwoDivergentSeries(t *testing.T) {
	c, l := newCoordinator()
	// z-score of a single outlier after n-1 identical baseline points is
	// sqrt(n-1); DetectBehavioral requires |z| > 3, so this needs at least
	// 10 baseline points (sqrt(10) ~= 3.16) before the spike.
	for i := 0; i < 10; i++ {
		_, err := c.RecordOutcome("agent-flagged", []reputation.Observation{
			{Dimension: reputation.DimCompletionRate, Value: 0.5},
			{Dimension: reputation.DimQuality, Value: 0.5},
		}, false)
		require.NoError(t, err)
	}
	_, err := c.RecordOutcome("agent-flagged", []reputation.Observation{
		{Dimension: reputation.DimCompletionRate, Value: 20.0},
		{Dimension: reputation.DimQuality, Value: 20.0},
	}, false)
	require.NoError(t, err)

	found := false
	for _, e := range l.QueryByAgent("agent-flagged") {
		if e.Kind == types.EventThreatDetected {
			found = true
		}
	}
	assert.True(t, found)
}

func TestScanForCollectiveThreatsAppendsLedgerEntryPerFlag(t *testing.T) {
	c, l := newCoordinator()
	now := time.Now()
	fingerprints := []security.AgentFingerprint{
		{AgentID: "agent-x", Capabilities: map[string]bool{"a": true}, RegisteredAt: now, BidPriceSeries: []float64{1, 2, 3}},
		{AgentID: "agent-y", Capabilities: map[string]bool{"a": true}, RegisteredAt: now, BidPriceSeries: []float64{1, 2, 3}},
	}
	flags, err := c.ScanForCollectiveThreats(fingerprints, time.Hour, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, flags, 1)

	entries := l.QueryByKind(types.EventThreatDetected)
	require.Len(t, entries, 1)
}

func TestOpenDisputeRequiresTaskInDisputedState(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))

	_, err := c.OpenDispute(task.ID, "challenger", "respondent", 0)
	require.Error(t, err)
}

func TestResolveDisputeChallengerPrevailsTransitionsToFailedAndUpdatesBothReputations(t *testing.T) {
	c, l := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))
	task.State = types.TaskDisputed

	_, err := c.OpenDispute(task.ID, "challenger", "respondent", time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.SubmitDisputeEvidence(task.ID, []byte("evidence")))

	before := c.Reputation.Get("respondent")
	challengerRep, respondentRep, err := c.ResolveDispute(task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, types.TaskFailed, task.State)
	assert.Less(t, respondentRep.Safety, before.Safety)
	assert.Greater(t, challengerRep.Reliability, 0.0)

	entries := l.QueryByTask(task.ID)
	found := false
	for _, e := range entries {
		if e.Kind == types.EventDisputeAdjudicated {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolveDisputeChallengerLosesTransitionsToCompleted(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))
	task.State = types.TaskDisputed

	_, err := c.OpenDispute(task.ID, "challenger", "respondent", time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.SubmitDisputeEvidence(task.ID, []byte("evidence")))

	_, _, err = c.ResolveDispute(task.ID, false)
	require.NoError(t, err)
	assert.Equal(t, types.TaskCompleted, task.State)
}

func TestBroadcastRFPCollectsBidsPublishedOverTheBus(t *testing.T) {
	c, _ := newCoordinator()
	rfp := assignment.NewRFP("task-99", types.Characteristics{}, types.ResourceBudget{}, types.SLO{})
	rfp.Window = 200 * time.Millisecond

	unsubscribe, err := c.Bus.Subscribe(SubjectRFP, func(payload []byte) {
		_ = c.Bus.Publish(SubjectBid, types.Bid{ID: "bid-1", AgentID: "agent-1", TaskID: "task-99"})
	})
	require.NoError(t, err)
	defer unsubscribe()

	bids, err := c.BroadcastRFP(context.Background(), rfp)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, "agent-1", bids[0].AgentID)
}
