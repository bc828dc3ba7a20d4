package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paypos/backend/internal/domain/integration"
	"github.com/redis/go-redis/v9"
)

const defaultRunLockPrefix = "pos:inventory-sync:lock:"

// releaseScript deletes the lock only if it is still owned by the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLock implements RunLock using Redis.
// Locks are shared by all instances connected to the same Redis.
type RedisRunLock struct {
	client    *redis.Client
	keyPrefix string

	mu     sync.Mutex
	tokens map[uuid.UUID]string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRunLock connects to Redis and creates a run lock
func NewRedisRunLock(cfg RedisConfig) (*RedisRunLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRunLockWithClient(client, ""), nil
}

// NewRedisRunLockWithClient creates a run lock with an existing Redis client
func NewRedisRunLockWithClient(client *redis.Client, keyPrefix string) *RedisRunLock {
	if keyPrefix == "" {
		keyPrefix = defaultRunLockPrefix
	}
	return &RedisRunLock{
		client:    client,
		keyPrefix: keyPrefix,
		tokens:    make(map[uuid.UUID]string),
	}
}

// Acquire takes the lock with SET NX and a random owner token
func (l *RedisRunLock) Acquire(ctx context.Context, salesChannelID uuid.UUID, ttl time.Duration) (bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key(salesChannelID), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[salesChannelID] = token
	l.mu.Unlock()
	return true, nil
}

// Release deletes the lock if this instance still owns it.
// A lock that expired and was taken by another instance is left alone.
func (l *RedisRunLock) Release(ctx context.Context, salesChannelID uuid.UUID) error {
	l.mu.Lock()
	token, ok := l.tokens[salesChannelID]
	delete(l.tokens, salesChannelID)
	l.mu.Unlock()

	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{l.key(salesChannelID)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisRunLock) Close() error {
	return l.client.Close()
}

func (l *RedisRunLock) key(salesChannelID uuid.UUID) string {
	return l.keyPrefix + salesChannelID.String()
}

var _ integration.RunLock = (*RedisRunLock)(nil)
