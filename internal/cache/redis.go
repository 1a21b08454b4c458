package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/fouta-app/functions/pkg/config"
	"github.com/fouta-app/functions/pkg/logging"
)

const keyPrefix = "fouta:"

var (
	// ErrCacheDisabled is returned when cache operations are attempted but cache is disabled
	ErrCacheDisabled = errors.New("cache is disabled")
	// ErrMiss is returned by Get for an absent key
	ErrMiss = errors.New("cache miss")
)

// unlockScript deletes a lock only while it still holds the caller's token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Cache wraps Redis client
type Cache struct {
	client *redis.Client
}

// New creates a new Redis cache client. A disabled cache is nil, and every
// method of a nil *Cache returns ErrCacheDisabled.
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) namespaceKey(key string) string {
	return keyPrefix + key
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if !c.enabled() {
		return "", ErrCacheDisabled
	}
	val, err := c.client.Get(ctx, c.namespaceKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// Set sets a value in cache with TTL; zero TTL keeps the key forever
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Set(ctx, c.namespaceKey(key), value, ttl).Err()
}

// Delete removes a key from cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Del(ctx, c.namespaceKey(key)).Err()
}

// Exists checks if a key exists
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.enabled() {
		return false, ErrCacheDisabled
	}
	count, err := c.client.Exists(ctx, c.namespaceKey(key)).Result()
	return count > 0, err
}

// TryLock takes the lock named key for ttl. It returns the token needed to
// release it, or "" when someone else holds the lock.
func (c *Cache) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if !c.enabled() {
		return "", ErrCacheDisabled
	}
	if ttl <= 0 {
		return "", fmt.Errorf("lock %s: ttl must be positive, got %s", key, ttl)
	}
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, c.namespaceKey("lock:"+key), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Unlock releases a lock taken with TryLock. An expired or foreign lock is
// left alone.
func (c *Cache) Unlock(ctx context.Context, key, token string) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return unlockScript.Run(ctx, c.client, []string{c.namespaceKey("lock:" + key)}, token).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}
