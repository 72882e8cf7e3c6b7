package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordframe/delegation/types"
)

func TestRecordUsageFiresBudgetExceededPastOverrunFactor(t *testing.T) {
	m := NewContractMonitor("c1", "t1", types.ResourceBudget{CPU: 10}, types.SLO{}, types.Characteristics{})
	assert.Nil(t, m.RecordUsage(5, 0))
	trig := m.RecordUsage(6.1, 0) // cumulative 11.1 > 10*1.1=11
	require.NotNil(t, trig)
	assert.Equal(t, TriggerBudgetExceeded, trig.Kind)
}

func TestCheckHeartbeatFiresAfterTwoMisses(t *testing.T) {
	m := NewContractMonitor("c1", "t1", types.ResourceBudget{}, types.SLO{}, types.Characteristics{})
	m.LastHeartbeat = time.Now().Add(-time.Hour)

	assert.Nil(t, m.CheckHeartbeat(time.Millisecond))
	trig := m.CheckHeartbeat(time.Millisecond)
	require.NotNil(t, trig)
	assert.Equal(t, TriggerAgentUnresponsive, trig.Kind)
}

func TestHeartbeatResetsMissedStreak(t *testing.T) {
	m := NewContractMonitor("c1", "t1", types.ResourceBudget{}, types.SLO{}, types.Characteristics{})
	m.MissedHeartbeats = 1
	m.Heartbeat()
	assert.Equal(t, 0, m.MissedHeartbeats)
}

func TestCheckSLOFiresWhenProjectionExceedsMaxLatency(t *testing.T) {
	m := NewContractMonitor("c1", "t1", types.ResourceBudget{}, types.SLO{MaxLatency: time.Second}, types.Characteristics{})
	assert.Nil(t, m.CheckSLO(500*time.Millisecond))
	trig := m.CheckSLO(2 * time.Second)
	require.NotNil(t, trig)
	assert.Equal(t, TriggerSLOViolation, trig.Kind)
}

func TestCheckSpecDriftFiresBeyondEpsilon(t *testing.T) {
	baseline := types.Characteristics{Complexity: 0.5}
	m := NewContractMonitor("c1", "t1", types.ResourceBudget{}, types.SLO{}, baseline)

	assert.Nil(t, m.CheckSpecDrift(types.Characteristics{Complexity: 0.55}))
	trig := m.CheckSpecDrift(types.Characteristics{Complexity: 0.7})
	require.NotNil(t, trig)
	assert.Equal(t, TriggerSpecChange, trig.Kind)
}

func TestRecordCheckpointOnlyAcceptsExpectedFractionsOnce(t *testing.T) {
	m := NewContractMonitor("c1", "t1", types.ResourceBudget{}, types.SLO{}, types.Characteristics{})
	assert.True(t, m.RecordCheckpoint(0.25))
	assert.False(t, m.RecordCheckpoint(0.25))
	assert.False(t, m.RecordCheckpoint(0.4))
}
