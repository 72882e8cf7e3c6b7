// Package config builds the coordination kernel's Config using the same
// three-layer precedence as the teacher framework: defaults, then
// environment variables, then functional options (core/config.go).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/coordframe/delegation/assignment"
	"github.com/coordframe/delegation/monitoring"
	"github.com/coordframe/delegation/security"
)

// LedgerConfig selects and tunes the ledger backend.
type LedgerConfig struct {
	Provider  string `json:"provider" env:"KERNEL_LEDGER_PROVIDER" default:"memory"` // "memory" or "redis"
	RedisURL  string `json:"redis_url" env:"KERNEL_LEDGER_REDIS_URL,REDIS_URL"`
	Namespace string `json:"namespace" env:"KERNEL_LEDGER_NAMESPACE" default:"kernel"`
	Merkle    bool   `json:"merkle" env:"KERNEL_LEDGER_MERKLE" default:"false"`
}

// EventBusConfig selects and tunes the coordination EventBus.
type EventBusConfig struct {
	Provider string `json:"provider" env:"KERNEL_BUS_PROVIDER" default:"memory"` // "memory" or "nats"
	NatsURL  string `json:"nats_url" env:"KERNEL_BUS_NATS_URL"`
}

// AssignmentConfig tunes the RFP/bid market.
type AssignmentConfig struct {
	BidWindow              time.Duration `json:"bid_window" env:"KERNEL_BID_WINDOW" default:"2s"`
	MinReputationThreshold float64       `json:"min_reputation_threshold" env:"KERNEL_MIN_REPUTATION" default:"0.3"`
	ContractTTL            time.Duration `json:"contract_ttl" env:"KERNEL_CONTRACT_TTL" default:"24h"`
}

// SecurityConfig tunes circuit breaker and threat-detector thresholds.
type SecurityConfig struct {
	FailureThreshold     int           `json:"failure_threshold" env:"KERNEL_BREAKER_FAILURE_THRESHOLD" default:"5"`
	Cooldown             time.Duration `json:"cooldown" env:"KERNEL_BREAKER_COOLDOWN" default:"60s"`
	SybilWindow          time.Duration `json:"sybil_window" env:"KERNEL_SYBIL_WINDOW" default:"1h"`
	CollusionMinSupport  int           `json:"collusion_min_support" env:"KERNEL_COLLUSION_MIN_SUPPORT" default:"5"`
	CollusionMinLift     float64       `json:"collusion_min_lift" env:"KERNEL_COLLUSION_MIN_LIFT" default:"3"`
}

// MonitoringConfig tunes heartbeat, budget, and drift thresholds.
type MonitoringConfig struct {
	HeartbeatInterval       time.Duration `json:"heartbeat_interval" env:"KERNEL_HEARTBEAT_INTERVAL" default:"30s"`
	BudgetOverrunFactor     float64       `json:"budget_overrun_factor" env:"KERNEL_BUDGET_OVERRUN_FACTOR" default:"1.1"`
	CharacteristicDriftEpsilon float64    `json:"characteristic_drift_epsilon" env:"KERNEL_DRIFT_EPSILON" default:"0.1"`
}

// VerificationConfig tunes dispute and challenge windows.
type VerificationConfig struct {
	EvidenceWindow   time.Duration `json:"evidence_window" env:"KERNEL_EVIDENCE_WINDOW" default:"30s"`
	ChallengeWindow  time.Duration `json:"challenge_window" env:"KERNEL_CHALLENGE_WINDOW" default:"10s"`
}

// OptimizerConfig points at the optional weight-profile file.
type OptimizerConfig struct {
	WeightProfilesPath string `json:"weight_profiles_path" env:"KERNEL_WEIGHT_PROFILES_PATH"`
}

// LoggingConfig mirrors the teacher's logging knobs.
type LoggingConfig struct {
	Level  string `json:"level" env:"KERNEL_LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"KERNEL_LOG_FORMAT" default:"text"`
}

// Config is the coordination kernel's top-level configuration.
type Config struct {
	Name    string `json:"name" env:"KERNEL_NAME" default:"coordination-kernel"`
	Ledger  LedgerConfig
	Bus     EventBusConfig
	Assignment  AssignmentConfig
	Security    SecurityConfig
	Monitoring  MonitoringConfig
	Verification VerificationConfig
	Optimizer   OptimizerConfig
	Logging     LoggingConfig
}

// Option mutates a Config during NewConfig. Errors returned here abort
// construction, matching the teacher's Option contract.
type Option func(*Config) error

// Default returns a Config populated with package defaults, matching the
// struct tags above.
func Default() *Config {
	return &Config{
		Name: "coordination-kernel",
		Ledger: LedgerConfig{
			Provider:  "memory",
			Namespace: "kernel",
			Merkle:    false,
		},
		Bus: EventBusConfig{
			Provider: "memory",
		},
		Assignment: AssignmentConfig{
			BidWindow:              assignment.DefaultBidWindow,
			MinReputationThreshold: 0.3,
			ContractTTL:            assignment.DefaultContractTTL,
		},
		Security: SecurityConfig{
			FailureThreshold:    security.DefaultFailureThreshold,
			Cooldown:            security.DefaultCooldown,
			SybilWindow:         time.Hour,
			CollusionMinSupport: 5,
			CollusionMinLift:    3,
		},
		Monitoring: MonitoringConfig{
			HeartbeatInterval:          monitoring.DefaultHeartbeatInterval,
			BudgetOverrunFactor:        monitoring.BudgetOverrunFactor,
			CharacteristicDriftEpsilon: monitoring.CharacteristicDriftEpsilon,
		},
		Verification: VerificationConfig{
			EvidenceWindow:  30 * time.Second,
			ChallengeWindow: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// NewConfig builds a Config from defaults, then environment variables,
// then opts (highest precedence), matching the teacher's three-layer
// priority order (core/config.go NewConfig).
func NewConfig(opts ...Option) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: apply option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// Validate checks invariants NewConfig must not let through silently.
func (c *Config) Validate() error {
	if c.Assignment.BidWindow <= 0 {
		return fmt.Errorf("assignment.bid_window must be positive")
	}
	if c.Assignment.MinReputationThreshold < 0 || c.Assignment.MinReputationThreshold > 1 {
		return fmt.Errorf("assignment.min_reputation_threshold must be in [0,1]")
	}
	if c.Security.FailureThreshold <= 0 {
		return fmt.Errorf("security.failure_threshold must be positive")
	}
	if c.Ledger.Provider == "redis" && c.Ledger.RedisURL == "" {
		return fmt.Errorf("ledger.redis_url is required when ledger.provider=redis")
	}
	if c.Bus.Provider == "nats" && c.Bus.NatsURL == "" {
		return fmt.Errorf("bus.nats_url is required when bus.provider=nats")
	}
	return nil
}

// loadFromEnv overrides fields from their environment variables. The
// variables KERNEL_SYBIL_WINDOW, KERNEL_COLLUSION_MIN_SUPPORT,
// KERNEL_COLLUSION_MIN_LIFT, KERNEL_BUDGET_OVERRUN_FACTOR,
// KERNEL_DRIFT_EPSILON, KERNEL_EVIDENCE_WINDOW and KERNEL_CHALLENGE_WINDOW
// named in the struct tags are not read; those fields keep their defaults
// or option values.
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("KERNEL_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("KERNEL_LEDGER_PROVIDER"); v != "" {
		c.Ledger.Provider = v
	}
	if v := firstNonEmpty(os.Getenv("KERNEL_LEDGER_REDIS_URL"), os.Getenv("REDIS_URL")); v != "" {
		c.Ledger.RedisURL = v
	}
	if v := os.Getenv("KERNEL_LEDGER_NAMESPACE"); v != "" {
		c.Ledger.Namespace = v
	}
	if v, err := getEnvBool("KERNEL_LEDGER_MERKLE"); err != nil {
		return err
	} else if v != nil {
		c.Ledger.Merkle = *v
	}
	if v := os.Getenv("KERNEL_BUS_PROVIDER"); v != "" {
		c.Bus.Provider = v
	}
	if v := os.Getenv("KERNEL_BUS_NATS_URL"); v != "" {
		c.Bus.NatsURL = v
	}
	if d, err := getEnvDuration("KERNEL_BID_WINDOW"); err != nil {
		return err
	} else if d != nil {
		c.Assignment.BidWindow = *d
	}
	if f, err := getEnvFloat("KERNEL_MIN_REPUTATION"); err != nil {
		return err
	} else if f != nil {
		c.Assignment.MinReputationThreshold = *f
	}
	if d, err := getEnvDuration("KERNEL_CONTRACT_TTL"); err != nil {
		return err
	} else if d != nil {
		c.Assignment.ContractTTL = *d
	}
	if n, err := getEnvInt("KERNEL_BREAKER_FAILURE_THRESHOLD"); err != nil {
		return err
	} else if n != nil {
		c.Security.FailureThreshold = *n
	}
	if d, err := getEnvDuration("KERNEL_BREAKER_COOLDOWN"); err != nil {
		return err
	} else if d != nil {
		c.Security.Cooldown = *d
	}
	if d, err := getEnvDuration("KERNEL_HEARTBEAT_INTERVAL"); err != nil {
		return err
	} else if d != nil {
		c.Monitoring.HeartbeatInterval = *d
	}
	if v := os.Getenv("KERNEL_WEIGHT_PROFILES_PATH"); v != "" {
		c.Optimizer.WeightProfilesPath = v
	}
	if v := os.Getenv("KERNEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KERNEL_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnvBool(key string) (*bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &v, nil
}

func getEnvInt(key string) (*int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &v, nil
}

func getEnvFloat(key string) (*float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &v, nil
}

func getEnvDuration(key string) (*time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &v, nil
}
