package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"comfyui_batch/pkg"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// DefaultLedgerTTL is how long run records are kept when the config does
// not say otherwise.
const DefaultLedgerTTL = 24 * time.Hour

// RedisLedger persists run records in Redis so they survive the process.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLedger creates a Redis-backed run ledger. The connection comes
// from the REDIS_URL environment variable.
func NewRedisLedger(ctx context.Context, ttlSeconds int) (*RedisLedger, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL environment variable is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := DefaultLedgerTTL
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}

	return &RedisLedger{
		client: client,
		ttl:    ttl,
	}, nil
}

// Record stores the run record as JSON with the configured TTL.
func (r *RedisLedger) Record(ctx context.Context, record pkg.RunRecord) error {
	data, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	key := "run:" + ledgerKey(record)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store run record: %w", err)
	}

	return nil
}

// Get retrieves a record by prompt id.
func (r *RedisLedger) Get(ctx context.Context, promptID string) (*pkg.RunRecord, error) {
	data, err := r.client.Get(ctx, "run:"+promptID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("run record not found for prompt: %s", promptID)
		}
		return nil, fmt.Errorf("failed to load run record: %w", err)
	}

	var record pkg.RunRecord
	if err := sonic.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &record, nil
}

// Close closes the Redis connection.
func (r *RedisLedger) Close() error {
	return r.client.Close()
}
