package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsBuildsCounterFromProviderMeter(t *testing.T) {
	provider := NewMeterProvider()
	defer provider.Shutdown(context.Background())

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestRecordTriggerOnNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.RecordTrigger(context.Background(), TriggerBudgetExceeded) })
}

func TestRecordTriggerOnRealMetricsDoesNotPanic(t *testing.T) {
	provider := NewMeterProvider()
	defer provider.Shutdown(context.Background())
	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)
	assert.NotPanics(t, func() { m.RecordTrigger(context.Background(), TriggerSLOViolation) })
}
