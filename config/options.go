package config

import "time"

// WithName overrides the kernel's service name.
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		return nil
	}
}

// WithRedisLedger switches the ledger backend to Redis at url.
func WithRedisLedger(url string, merkle bool) Option {
	return func(c *Config) error {
		c.Ledger.Provider = "redis"
		c.Ledger.RedisURL = url
		c.Ledger.Merkle = merkle
		return nil
	}
}

// WithNatsBus switches the event bus to NATS at url.
func WithNatsBus(url string) Option {
	return func(c *Config) error {
		c.Bus.Provider = "nats"
		c.Bus.NatsURL = url
		return nil
	}
}

// WithBidWindow overrides how long the assignment market waits for bids.
func WithBidWindow(d time.Duration) Option {
	return func(c *Config) error {
		c.Assignment.BidWindow = d
		return nil
	}
}

// WithMinReputationThreshold overrides the eligibility floor (spec.md §4.4).
func WithMinReputationThreshold(threshold float64) Option {
	return func(c *Config) error {
		c.Assignment.MinReputationThreshold = threshold
		return nil
	}
}

// WithCircuitBreaker overrides the failure threshold and cooldown.
func WithCircuitBreaker(failureThreshold int, cooldown time.Duration) Option {
	return func(c *Config) error {
		c.Security.FailureThreshold = failureThreshold
		c.Security.Cooldown = cooldown
		return nil
	}
}

// WithHeartbeatInterval overrides the monitoring heartbeat cadence.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *Config) error {
		c.Monitoring.HeartbeatInterval = d
		return nil
	}
}

// WithWeightProfiles points the optimizer at a YAML weight-profile file
// (optimizer.LoadWeightProfiles).
func WithWeightProfiles(path string) Option {
	return func(c *Config) error {
		c.Optimizer.WeightProfilesPath = path
		return nil
	}
}

// WithLogLevel overrides the logging level ("debug", "info", "warn", "error").
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = level
		return nil
	}
}

// WithLogFormat overrides the logging format ("text" or "json").
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}
