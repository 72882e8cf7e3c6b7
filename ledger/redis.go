package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/coordframe/delegation/logging"
	"github.com/coordframe/delegation/types"
)

// RedisBackend persists ledger entries to a Redis list so the audit trail
// survives process restarts and can be tailed by external observability
// tooling. It still serializes writes through a single mutex: Redis gives
// durability, not the monotonic-sequence ordering guarantee itself.
type RedisBackend struct {
	client    *redis.Client
	namespace string
	merkle    bool
	logger    logging.Logger

	mu       sync.Mutex
	seq      uint64
	lastHash []byte
}

// NewRedisBackend connects to redisURL and namespaces keys under
// "<namespace>:ledger". Connection failures surface immediately rather
// than silently falling back to an in-memory ledger, matching the
// teacher's fail-fast Redis constructors.
func NewRedisBackend(redisURL, namespace string, merkle bool, logger logging.Logger) (*RedisBackend, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
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

	return &RedisBackend{
		client:    client,
		namespace: namespace,
		merkle:    merkle,
		logger:    logger,
	}, nil
}

func (r *RedisBackend) key() string { return r.namespace + ":ledger" }

func (r *RedisBackend) Append(entry types.LedgerEntry) (types.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	entry.Seq = r.seq
	entry.Timestamp = time.Now()
	if r.merkle {
		entry.PrevHash = r.lastHash
		entry.Hash = hashEntry(entry.Seq, entry.PrevHash, entry.Payload)
		r.lastHash = entry.Hash
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return entry, fmt.Errorf("marshal ledger entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.RPush(ctx, r.key(), data).Err(); err != nil {
		r.logger.Error("ledger append failed", map[string]interface{}{"error": err.Error()})
		return entry, fmt.Errorf("append to redis: %w", err)
	}
	return entry, nil
}

func (r *RedisBackend) Iter() []types.LedgerEntry {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	raw, err := r.client.LRange(ctx, r.key(), 0, -1).Result()
	if err != nil {
		r.logger.Error("ledger iter failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	out := make([]types.LedgerEntry, 0, len(raw))
	for _, s := range raw {
		var e types.LedgerEntry
		if err := json.Unmarshal([]byte(s), &e); err == nil {
			out = append(out, e)
		}
	}
	return out
}

func (r *RedisBackend) Len() int { return len(r.Iter()) }

func (r *RedisBackend) QueryByTask(taskID string) []types.LedgerEntry {
	return filterEntries(r.Iter(), func(e types.LedgerEntry) bool { return e.TaskID == taskID })
}

func (r *RedisBackend) QueryByAgent(agentID string) []types.LedgerEntry {
	return filterEntries(r.Iter(), func(e types.LedgerEntry) bool { return e.AgentID == agentID })
}

func (r *RedisBackend) QueryByKind(kind types.LedgerEventKind) []types.LedgerEntry {
	return filterEntries(r.Iter(), func(e types.LedgerEntry) bool { return e.Kind == kind })
}

func (r *RedisBackend) QueryByTimeRange(from, to time.Time) []types.LedgerEntry {
	return filterEntries(r.Iter(), func(e types.LedgerEntry) bool {
		return !e.Timestamp.Before(from) && !e.Timestamp.After(to)
	})
}

func (r *RedisBackend) MerkleRoot() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastHash
}

func (r *RedisBackend) VerifyChain() error {
	return verifyChain(r.Iter(), r.merkle)
}

func filterEntries(entries []types.LedgerEntry, pred func(types.LedgerEntry) bool) []types.LedgerEntry {
	var out []types.LedgerEntry
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}
