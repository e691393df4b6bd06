// Package lock provides a Redis-backed run lock for multi-process deployments.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

const defaultKeyPrefix = "mrp:run-lock:"

// releaseScript deletes the key only while it still holds the caller's run id
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLock implements repositories.RunLock with SET NX PX
type RedisRunLock struct {
	client    redis.UniversalClient
	keyPrefix string
}

// Verify interface compliance
var _ repositories.RunLock = (*RedisRunLock)(nil)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisRunLock connects to Redis and verifies the connection
func NewRedisRunLock(ctx context.Context, cfg RedisConfig, keyPrefix string) (*RedisRunLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisRunLockWithClient(client, keyPrefix), nil
}

// NewRedisRunLockWithClient creates a lock over an existing client
func NewRedisRunLockWithClient(client redis.UniversalClient, keyPrefix string) *RedisRunLock {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisRunLock{client: client, keyPrefix: keyPrefix}
}

// Key returns the Redis key guarding scope
func (l *RedisRunLock) Key(scope string) string {
	return l.keyPrefix + scope
}

// Acquire sets the scope key to runID unless it already exists. A zero ttl never expires.
func (l *RedisRunLock) Acquire(ctx context.Context, scope, runID string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.Key(scope), runID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock for %s: %w", scope, err)
	}
	if ok {
		return true, nil
	}

	holder, err := l.client.Get(ctx, l.Key(scope)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to read run lock for %s: %w", scope, err)
	}
	// re-acquiring our own lock is allowed
	return holder == runID, nil
}

// Release deletes the scope key if runID still holds it
func (l *RedisRunLock) Release(ctx context.Context, scope, runID string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.Key(scope)}, runID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release run lock for %s: %w", scope, err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisRunLock) Close() error {
	return l.client.Close()
}
