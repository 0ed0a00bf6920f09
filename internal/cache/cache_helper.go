package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheHelper wraps a redis client with a key prefix and JSON
// marshalling. A nil client degrades to a no-op cache so the service
// runs without redis.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{client: client, prefix: prefix}
}

// CacheConfig pairs a key prefix with its TTL.
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Exam definitions change rarely outside authoring sessions
	ExamCacheConfig = CacheConfig{TTL: 5 * time.Minute, Prefix: "exam:"}

	// Question bank entries
	QuestionCacheConfig = CacheConfig{TTL: 5 * time.Minute, Prefix: "question:"}

	// Completed results are immutable; still short TTL so new submissions show up
	ResultCacheConfig = CacheConfig{TTL: 2 * time.Minute, Prefix: "result:"}

	// Stats cache for expensive aggregate queries
	StatsCacheConfig = CacheConfig{TTL: 5 * time.Minute, Prefix: "stats:"}
)

func (c *CacheHelper) key(k string) string {
	return c.prefix + k
}

// Get unmarshals the cached value for key into dest.
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	raw, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheNotFound
	}
	if err != nil {
		return fmt.Errorf("cache get: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("cache unmarshal: %w", err)
	}
	return nil
}

// Set stores value under key for ttl. A nil client is a no-op.
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return c.client.Set(ctx, c.key(key), raw, ttl).Err()
}

// Delete removes the given keys.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// Exists reports whether key is present.
func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}

	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists: %w", err)
	}
	return n > 0, nil
}

// InvalidatePattern deletes every key matching the prefixed pattern.
// Uses SCAN rather than KEYS so large keyspaces do not block redis.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	full := c.key(pattern)
	var cursor uint64
	for {
		batch, next, err := c.client.Scan(ctx, cursor, full, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan %q: %w", full, err)
		}
		if len(batch) > 0 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("cache delete batch: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// CacheOrExecute serves dest from cache when possible, otherwise runs
// fetchFunc and caches its result. The cache write happens off the
// request path.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.InfoContext(ctx, "cache read failed, falling through", "error", err, "key", key)
	}

	value, err := fetchFunc()
	if err != nil {
		return err
	}

	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Set(ctx, key, value, ttl); err != nil {
			slog.Error("cache write failed", "error", err, "key", key)
		}
	}(context.WithoutCancel(ctx))

	// Round-trip through JSON so dest gets the same shape a cache hit
	// would produce.
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal fetched value: %w", err)
	}
	return json.Unmarshal(raw, dest)
}

// CacheManager holds the per-domain cache helpers.
type CacheManager struct {
	Exam     *CacheHelper
	Question *CacheHelper
	Result   *CacheHelper
	User     *CacheHelper
	Stats    *CacheHelper
}

func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		Exam:     NewCacheHelper(client, ExamCacheConfig.Prefix),
		Question: NewCacheHelper(client, QuestionCacheConfig.Prefix),
		Result:   NewCacheHelper(client, ResultCacheConfig.Prefix),
		User:     NewCacheHelper(client, "user:"),
		Stats:    NewCacheHelper(client, StatsCacheConfig.Prefix),
	}
}

// HealthCheck verifies cache connectivity.
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.Exam.client == nil {
		return ErrCacheNotAvailable
	}
	if _, err := cm.Exam.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("cache health check: %w", err)
	}
	return nil
}
