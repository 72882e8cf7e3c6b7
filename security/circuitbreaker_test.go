package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coordframe/delegation/types"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreakers(0, 0)
	assert.Equal(t, types.CircuitClosed, b.State("a1"))
}

func TestBreakerTripsAfterThresholdConsecutiveFailures(t *testing.T) {
	b := NewBreakers(3, time.Minute)
	b.RecordFailure("a1")
	b.RecordFailure("a1")
	assert.Equal(t, types.CircuitClosed, b.State("a1"))
	b.RecordFailure("a1")
	assert.Equal(t, types.CircuitOpen, b.State("a1"))
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	b := NewBreakers(3, time.Minute)
	b.RecordFailure("a1")
	b.RecordFailure("a1")
	b.RecordSuccess("a1")
	b.RecordFailure("a1")
	b.RecordFailure("a1")
	assert.Equal(t, types.CircuitClosed, b.State("a1"))
}

func TestBreakerTransitionsToHalfOpenAfterCooldown(t *testing.T) {
	b := NewBreakers(1, 10*time.Millisecond)
	b.RecordFailure("a1")
	assert.Equal(t, types.CircuitOpen, b.State("a1"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, types.CircuitHalfOpen, b.State("a1"))
}

func TestBreakerHalfOpenProbeSuccessCloses(t *testing.T) {
	b := NewBreakers(1, 10*time.Millisecond)
	b.RecordFailure("a1")
	time.Sleep(20 * time.Millisecond)
	b.State("a1") // resolve lazy transition to HalfOpen
	b.RecordSuccess("a1")
	assert.Equal(t, types.CircuitClosed, b.State("a1"))
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	b := NewBreakers(1, 10*time.Millisecond)
	b.RecordFailure("a1")
	time.Sleep(20 * time.Millisecond)
	b.State("a1")
	b.RecordFailure("a1")
	assert.Equal(t, types.CircuitOpen, b.State("a1"))
}

func TestTripForcesOpenRegardlessOfStreak(t *testing.T) {
	b := NewBreakers(5, time.Minute)
	b.Trip("a1")
	assert.Equal(t, types.CircuitOpen, b.State("a1"))
}

func TestResetClearsBreaker(t *testing.T) {
	b := NewBreakers(1, time.Minute)
	b.Trip("a1")
	b.Reset("a1")
	assert.Equal(t, types.CircuitClosed, b.State("a1"))
}
