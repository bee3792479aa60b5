package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// KeySetCache stores key sets by authority URL
type KeySetCache interface {
	// Get returns the cached set, or false when absent or expired
	Get(ctx context.Context, authority string) (*JWKS, bool, error)

	// Set stores the set for ttl, replacing any previous entry
	Set(ctx context.Context, authority string, jwks *JWKS, ttl time.Duration) error
}

type cacheEntry struct {
	jwks      *JWKS
	expiresAt time.Time
}

// MemoryKeySetCache is an in-process KeySetCache
type MemoryKeySetCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryKeySetCache creates an empty in-process cache
func NewMemoryKeySetCache() *MemoryKeySetCache {
	return &MemoryKeySetCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get implements KeySetCache
func (c *MemoryKeySetCache) Get(_ context.Context, authority string) (*JWKS, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[authority]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.jwks, true, nil
}

// Set implements KeySetCache
func (c *MemoryKeySetCache) Set(_ context.Context, authority string, jwks *JWKS, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[authority] = cacheEntry{jwks: jwks, expiresAt: c.now().Add(ttl)}
	return nil
}

// RedisKeySetCache shares key sets between replicas through Redis
type RedisKeySetCache struct {
	client redis.Cmdable
	prefix string
}

// NewRedisKeySetCache creates a cache storing entries under "jwks:<authority>"
func NewRedisKeySetCache(client redis.Cmdable) *RedisKeySetCache {
	return &RedisKeySetCache{client: client, prefix: "jwks:"}
}

// Get implements KeySetCache
func (c *RedisKeySetCache) Get(ctx context.Context, authority string) (*JWKS, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+authority).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var jwks JWKS
	if err := json.Unmarshal(data, &jwks); err != nil {
		return nil, false, fmt.Errorf("decode cached key set: %w", err)
	}
	return &jwks, true, nil
}

// Set implements KeySetCache
func (c *RedisKeySetCache) Set(ctx context.Context, authority string, jwks *JWKS, ttl time.Duration) error {
	data, err := json.Marshal(jwks)
	if err != nil {
		return fmt.Errorf("encode key set: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+authority, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// KeySetFetcher retrieves a key set from its origin
type KeySetFetcher interface {
	Fetch(ctx context.Context, authority string) (*JWKS, error)
}

// CacheOptions configures CachedKeySource
type CacheOptions struct {
	// TTL of cached sets. Zero disables caching and every lookup fetches.
	TTL time.Duration

	// MinRefresh is the minimum interval between forced refreshes of one authority
	MinRefresh time.Duration
}

// CachedKeySource serves key sets from a KeySetCache, fetching on miss.
// Concurrent misses for one authority share a single fetch.
type CachedKeySource struct {
	fetcher KeySetFetcher
	cache   KeySetCache
	opts    CacheOptions
	logger  *zap.Logger

	group singleflight.Group

	mu        sync.Mutex
	lastFetch map[string]time.Time
	now       func() time.Time
}

// NewCachedKeySource creates a key source backed by fetcher and cache
func NewCachedKeySource(fetcher KeySetFetcher, cache KeySetCache, opts CacheOptions, logger *zap.Logger) *CachedKeySource {
	return &CachedKeySource{
		fetcher:   fetcher,
		cache:     cache,
		opts:      opts,
		logger:    logger,
		lastFetch: make(map[string]time.Time),
		now:       time.Now,
	}
}

// KeySet returns the key set for authority
func (s *CachedKeySource) KeySet(ctx context.Context, authority string) (*JWKS, error) {
	if s.opts.TTL > 0 {
		jwks, ok, err := s.cache.Get(ctx, authority)
		if err != nil {
			s.logger.Warn("key set cache read failed", zap.String("authority", authority), zap.Error(err))
		} else if ok {
			return jwks, nil
		}
	}
	return s.load(ctx, authority)
}

// Refresh refetches the key set unless caching is disabled or the last fetch
// attempt is more recent than MinRefresh. The boolean reports whether a fetch
// happened. A failed refresh leaves the cached set in place.
func (s *CachedKeySource) Refresh(ctx context.Context, authority string) (*JWKS, bool, error) {
	if s.opts.TTL <= 0 {
		return nil, false, nil
	}

	s.mu.Lock()
	last, seen := s.lastFetch[authority]
	s.mu.Unlock()
	if seen && s.now().Sub(last) < s.opts.MinRefresh {
		return nil, false, nil
	}

	jwks, err := s.load(ctx, authority)
	if err != nil {
		s.mu.Lock()
		s.lastFetch[authority] = s.now()
		s.mu.Unlock()
		return nil, false, err
	}
	return jwks, true, nil
}

func (s *CachedKeySource) load(ctx context.Context, authority string) (*JWKS, error) {
	v, err, shared := s.group.Do(authority, func() (interface{}, error) {
		// Shared by every waiter; bounded by the fetcher's client timeout.
		fetchCtx := context.WithoutCancel(ctx)
		jwks, err := s.fetcher.Fetch(fetchCtx, authority)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.lastFetch[authority] = s.now()
		s.mu.Unlock()

		if s.opts.TTL > 0 {
			if err := s.cache.Set(fetchCtx, authority, jwks, s.opts.TTL); err != nil {
				s.logger.Warn("key set cache write failed", zap.String("authority", authority), zap.Error(err))
			}
		}
		return jwks, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		s.logger.Debug("key set fetch shared", zap.String("authority", authority))
	}
	return v.(*JWKS), nil
}
