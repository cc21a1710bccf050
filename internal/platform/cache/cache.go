// Package cache provides the Redis client wrapper and the day-scoped cache
// used for values that are regenerated once per calendar day.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client.
type Cache struct {
	Client *redis.Client
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a new cache client.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// DayCache stores values that expire at the end of the day they were set.
type DayCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// EndOfDay returns the first instant of the day after now, in now's location.
func EndOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// DayKey scopes key to the calendar day of now.
func DayKey(key string, now time.Time) string {
	return key + ":" + now.Format(time.DateOnly)
}

// RedisDayCache is a DayCache on Redis; entries carry a TTL up to midnight.
type RedisDayCache struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisDayCache creates a day cache whose keys start with prefix.
func NewRedisDayCache(client *redis.Client, prefix string) *RedisDayCache {
	return &RedisDayCache{client: client, prefix: prefix, now: time.Now}
}

func (c *RedisDayCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+DayKey(key, c.now())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *RedisDayCache) Set(ctx context.Context, key string, value []byte) error {
	now := c.now()
	ttl := EndOfDay(now).Sub(now)
	if err := c.client.Set(ctx, c.prefix+DayKey(key, now), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

type dayEntry struct {
	value   []byte
	expires time.Time
}

// MemoryDayCache is an in-process DayCache.
type MemoryDayCache struct {
	mu      sync.Mutex
	entries map[string]dayEntry
	now     func() time.Time
}

// NewMemoryDayCache creates an empty in-process day cache. A nil clock
// uses time.Now.
func NewMemoryDayCache(now func() time.Time) *MemoryDayCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryDayCache{entries: make(map[string]dayEntry), now: now}
}

func (c *MemoryDayCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !now.Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value until midnight and drops entries from earlier days,
// whose keys are never read again.
func (c *MemoryDayCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = dayEntry{value: append([]byte(nil), value...), expires: EndOfDay(now)}
	return nil
}
