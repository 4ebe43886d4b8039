package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const sharedKeyPrefix = "jobclient:lookup:"

// SharedSupplier fetches the value for a key from the upstream service.
type SharedSupplier func(ctx context.Context, key string) ([]byte, bool, error)

// Shared is a Redis-backed variant of Cache for memoizing lookups across
// processes. Expiry is enforced by Redis key TTL, so a stale entry simply
// disappears instead of being replaced lazily. Semantics otherwise match
// Cache: negative results are never stored, supplier errors leave the
// backend unchanged.
type Shared struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewShared creates a shared lookup cache with the given per-entry TTL.
func NewShared(redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) *Shared {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Shared{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached value for key, invoking supplier when Redis has no
// live entry.
func (s *Shared) Get(ctx context.Context, key string, supplier SharedSupplier) ([]byte, bool, error) {
	cacheKey := sharedKeyPrefix + key

	data, err := s.redis.Get(ctx, cacheKey).Bytes()
	if err == nil {
		lookupHits.WithLabelValues("redis").Inc()
		s.logger.Debug().Str("key", key).Msg("Shared lookup hit")
		return data, true, nil
	}
	if err != redis.Nil {
		lookupErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	lookupMisses.WithLabelValues("redis").Inc()

	value, found, err := supplier(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	if err := s.redis.Set(ctx, cacheKey, value, s.ttl).Err(); err != nil {
		lookupErrors.WithLabelValues("set").Inc()
		return nil, false, fmt.Errorf("redis set: %w", err)
	}

	s.logger.Debug().
		Str("key", key).
		Dur("ttl", s.ttl).
		Msg("Shared lookup stored")

	return value, true, nil
}

// Invalidate drops the cached value for key, forcing the next Get to hit
// the supplier.
func (s *Shared) Invalidate(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, sharedKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
