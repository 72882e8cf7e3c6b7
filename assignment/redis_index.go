package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAgentIndex is a distributed capability index: agents register the
// capability set they advertise into Redis so multiple coordinator
// processes can query eligible candidates without sharing an in-memory
// agent registry (spec.md §4.3's span-of-control eligibility check,
// extended to a replicated assignment layer). It mirrors
// ledger.RedisBackend's fail-fast connect idiom — connection errors
// surface at construction, never as a silent fallback to an empty index.
type RedisAgentIndex struct {
	client    *redis.Client
	namespace string
}

// AgentProfile is the subset of agent registration state the index
// persists: just enough to answer capability-intersection queries without
// round-tripping to the in-process Agent registry.
type AgentProfile struct {
	AgentID      string
	Capabilities []string
}

// NewRedisAgentIndex connects to redisURL and namespaces keys under
// "<namespace>:agents:*".
func NewRedisAgentIndex(redisURL, namespace string) (*RedisAgentIndex, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 5 * time.Second
	opt.WriteTimeout = 5 * time.Second

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisAgentIndex{client: client, namespace: namespace}, nil
}

func (r *RedisAgentIndex) capabilityKey(capability string) string {
	return fmt.Sprintf("%s:agents:capability:%s", r.namespace, capability)
}

func (r *RedisAgentIndex) profileKey(agentID string) string {
	return fmt.Sprintf("%s:agents:profile:%s", r.namespace, agentID)
}

// Register adds profile to every capability set it advertises and stores
// the profile itself, atomically via a pipeline so a crash mid-write never
// leaves a capability set and profile disagreeing about membership.
func (r *RedisAgentIndex) Register(ctx context.Context, profile AgentProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal agent profile: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.profileKey(profile.AgentID), data, 0)
	for _, capability := range profile.Capabilities {
		pipe.SAdd(ctx, r.capabilityKey(capability), profile.AgentID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register agent %s: %w", profile.AgentID, err)
	}
	return nil
}

// Deregister removes profile from every capability set and deletes its
// stored profile, pulling the agent out of circulation for every
// coordinator process that shares the index. Nothing in this module calls
// it.
func (r *RedisAgentIndex) Deregister(ctx context.Context, profile AgentProfile) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.profileKey(profile.AgentID))
	for _, capability := range profile.Capabilities {
		pipe.SRem(ctx, r.capabilityKey(capability), profile.AgentID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deregister agent %s: %w", profile.AgentID, err)
	}
	return nil
}

// Candidates returns the ids of every agent registered for all of
// requiredCapabilities, via set intersection — the distributed analogue
// of FilterEligible's in-process capability scan. The reputation/circuit-
// breaker/capacity checks in Eligible still run in-process against
// whatever Agent records the caller loads for these ids.
func (r *RedisAgentIndex) Candidates(ctx context.Context, requiredCapabilities []string) ([]string, error) {
	if len(requiredCapabilities) == 0 {
		return nil, nil
	}
	keys := make([]string, len(requiredCapabilities))
	for i, c := range requiredCapabilities {
		keys[i] = r.capabilityKey(c)
	}
	ids, err := r.client.SInter(ctx, keys...).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	return ids, nil
}

// Close releases the underlying Redis connection.
func (r *RedisAgentIndex) Close() error {
	return r.client.Close()
}
