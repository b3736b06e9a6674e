package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/observability"
)

// keyPrefix namespaces job records in a shared Redis instance.
const keyPrefix = "nester:job:"

// RedisConfig configures the Redis-backed job store.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string

	// Password is optional.
	Password string

	// DB selects the Redis database number.
	DB int
}

// RedisStore persists job records in Redis with native key expiry.
// Use it for multi-instance deployments where jobs submitted on one
// instance must be pollable from another.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to connect to redis at %s", cfg.Addr)
	}
	return &RedisStore{client: client}, nil
}

// Get retrieves a job by ID. Missing and expired keys both return nil, nil.
func (s *RedisStore) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := s.client.Get(ctx, keyPrefix+jobID).Bytes()
	if err == redis.Nil {
		observability.Store().OnStoreMiss(ctx, jobID)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to read job %s", jobID)
	}

	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "corrupt job record %s", jobID)
	}
	observability.Store().OnStoreHit(ctx, jobID)
	return &j, nil
}

// Set stores a job snapshot with its remaining TTL as the key expiry.
func (s *RedisStore) Set(ctx context.Context, j *Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to encode job %s", j.ID)
	}

	ttl := time.Until(j.ExpiresAt)
	if ttl <= 0 {
		// Already past its TTL; writing would create an immortal key.
		return s.Delete(ctx, j.ID)
	}
	if err := s.client.Set(ctx, keyPrefix+j.ID, data, ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to write job %s", j.ID)
	}
	observability.Store().OnStoreSet(ctx, j.ID, len(data))
	return nil
}

// Delete removes a job.
func (s *RedisStore) Delete(ctx context.Context, jobID string) error {
	if err := s.client.Del(ctx, keyPrefix+jobID).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to delete job %s", jobID)
	}
	return nil
}

// Cleanup is a no-op: Redis expires keys natively.
func (s *RedisStore) Cleanup(context.Context) error { return nil }

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
