package coordination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordframe/delegation/types"
)

func TestTraceTransitionAppliesTransitionAndReturnsItsError(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))

	err := c.TraceTransition(context.Background(), task.ID, EventSubmitForAssignment, "ready")
	require.NoError(t, err)
	assert.Equal(t, types.TaskAwaitingAssignment, task.State)
}

func TestTraceTransitionPropagatesInvalidTransitionError(t *testing.T) {
	c, _ := newCoordinator()
	task := newTask(t)
	require.NoError(t, c.Register(task))

	err := c.TraceTransition(context.Background(), task.ID, EventVerificationPassed, "skip ahead")
	assert.Error(t, err)
}
