package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"airtracker/panel/internal/logging"
)

// BlobCache holds raw asset bodies keyed by URL so that a URL seen before is not
// downloaded again.
type BlobCache interface {
	// Set stores data under key for ttl
	Set(key string, data []byte, ttl time.Duration)

	// Get returns the stored bytes and true if present
	Get(key string) ([]byte, bool)

	// Delete removes key
	Delete(key string)

	// Close releases any underlying connections
	Close() error
}

const blobKeyPrefix = "airtracker:asset:"

// MemoryCache is the in-process BlobCache.
type MemoryCache struct {
	cache *cache.Cache
}

var _ BlobCache = (*MemoryCache)(nil)

func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: cache.New(defaultTTL, cleanupInterval)}
}

func (m *MemoryCache) Set(key string, data []byte, ttl time.Duration) {
	m.cache.Set(key, data, ttl)
}

func (m *MemoryCache) Get(key string) ([]byte, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *MemoryCache) Delete(key string) {
	m.cache.Delete(key)
}

// Close is a no-op for the in-memory cache
func (m *MemoryCache) Close() error {
	return nil
}

// RedisOptions configures RedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache stores asset bodies in Redis so that several panels can share downloads.
type RedisCache struct {
	client  *redis.Client
	timeout time.Duration
}

var _ BlobCache = (*RedisCache)(nil)

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	logging.Info("Redis asset cache connected", "addr", opts.Addr, "db", opts.DB)
	return &RedisCache{client: client, timeout: 3 * time.Second}, nil
}

func (r *RedisCache) Set(key string, data []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, blobKeyPrefix+key, data, ttl).Err(); err != nil {
		logging.Warn("Redis cache: set failed", "key", key, "error", err)
	}
}

func (r *RedisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	data, err := r.client.Get(ctx, blobKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis cache: get failed", "key", key, "error", err)
		return nil, false
	}
	return data, true
}

func (r *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Del(ctx, blobKeyPrefix+key).Err(); err != nil {
		logging.Warn("Redis cache: delete failed", "key", key, "error", err)
	}
}

// Ping reports whether Redis is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
