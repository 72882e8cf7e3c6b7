package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigPassesValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "memory", cfg.Ledger.Provider)
	assert.Equal(t, "memory", cfg.Bus.Provider)
	assert.Equal(t, 2*time.Second, cfg.Assignment.BidWindow)
}

func TestNewConfigAppliesFunctionalOptionsOverDefaults(t *testing.T) {
	cfg, err := NewConfig(
		WithName("test-kernel"),
		WithBidWindow(5*time.Second),
		WithMinReputationThreshold(0.5),
	)
	require.NoError(t, err)
	assert.Equal(t, "test-kernel", cfg.Name)
	assert.Equal(t, 5*time.Second, cfg.Assignment.BidWindow)
	assert.Equal(t, 0.5, cfg.Assignment.MinReputationThreshold)
}

func TestNewConfigEnvVarsOverrideDefaultsButNotOptions(t *testing.T) {
	os.Setenv("KERNEL_NAME", "from-env")
	os.Setenv("KERNEL_BID_WINDOW", "7s")
	defer os.Unsetenv("KERNEL_NAME")
	defer os.Unsetenv("KERNEL_BID_WINDOW")

	cfg, err := NewConfig(WithBidWindow(3 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 3*time.Second, cfg.Assignment.BidWindow, "functional option must win over env var")
}

func TestWithRedisLedgerRequiresURLToValidate(t *testing.T) {
	_, err := NewConfig(func(c *Config) error {
		c.Ledger.Provider = "redis"
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis_url")
}

func TestWithRedisLedgerOptionSetsURL(t *testing.T) {
	cfg, err := NewConfig(WithRedisLedger("redis://localhost:6379/0", true))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Ledger.Provider)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Ledger.RedisURL)
	assert.True(t, cfg.Ledger.Merkle)
}

func TestWithNatsBusRequiresURLToValidate(t *testing.T) {
	_, err := NewConfig(func(c *Config) error {
		c.Bus.Provider = "nats"
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats_url")
}

func TestInvalidBidWindowFailsValidate(t *testing.T) {
	_, err := NewConfig(WithBidWindow(0))
	require.Error(t, err)
}

func TestInvalidReputationThresholdFailsValidate(t *testing.T) {
	_, err := NewConfig(WithMinReputationThreshold(1.5))
	require.Error(t, err)
}

func TestOptionErrorAbortsConstruction(t *testing.T) {
	boom := func(*Config) error { return assert.AnError }
	_, err := NewConfig(boom)
	require.Error(t, err)
}
