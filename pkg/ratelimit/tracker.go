package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttle observation.
var (
	requestsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobclient_ratelimit_remaining",
		Help: "Request budget remaining in the current remote rate limit window",
	})

	throttleWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobclient_ratelimit_warnings_total",
		Help: "Total number of responses observed with a strained or critical rate budget",
	})
)

// Observer tracks remote throttle state across client processes.
type Observer struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewObserver creates a throttle observer backed by the given Redis client.
func NewObserver(redisClient *redis.Client, logger zerolog.Logger) *Observer {
	return &Observer{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current throttle state from Redis. Returns a
// default healthy state if nothing has been observed yet.
func (o *Observer) GetState(ctx context.Context) (*State, error) {
	remaining, err := o.redis.Get(ctx, RedisKeyRemaining).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	resetTimestamp, err := o.redis.Get(ctx, RedisKeyResetAt).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdateStr, err := o.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	if err == redis.Nil {
		o.logger.Debug().Msg("No throttle state observed yet, assuming healthy")
		return &State{
			Remaining:  -1,
			LastUpdate: time.Now(),
			Healthy:    true,
		}, nil
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &State{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// ObserveHeaders parses throttle headers from a response and updates the
// shared state. Responses without rate limit headers are ignored.
func (o *Observer) ObserveHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
	}

	now := time.Now()
	resetAt := now

	// X-RateLimit-Reset carries a unix timestamp; Retry-After carries
	// seconds until the window reopens. Either may appear.
	if resetStr := headers.Get("X-RateLimit-Reset"); resetStr != "" {
		resetUnix, err := strconv.ParseInt(resetStr, 10, 64)
		if err != nil {
			return fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
		}
		resetAt = time.Unix(resetUnix, 0)
	} else if retryStr := headers.Get("Retry-After"); retryStr != "" {
		retrySeconds, err := strconv.Atoi(retryStr)
		if err != nil {
			return fmt.Errorf("parse Retry-After header: %w", err)
		}
		resetAt = now.Add(time.Duration(retrySeconds) * time.Second)
	}

	state := &State{
		Remaining:  remaining,
		ResetAt:    resetAt,
		LastUpdate: now,
	}
	state.UpdateHealth()

	pipe := o.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, remaining, 0)
	pipe.Set(ctx, RedisKeyResetAt, state.ResetAt.Unix(), 0)

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store throttle state in redis: %w", err)
	}

	requestsRemaining.Set(float64(remaining))

	if state.Critical() {
		throttleWarningsTotal.Inc()
		o.logger.Error().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Remote rate budget critical")
	} else if state.Strained() {
		throttleWarningsTotal.Inc()
		o.logger.Warn().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Remote rate budget strained")
	} else {
		o.logger.Debug().
			Int("remaining", remaining).
			Msg("Throttle state updated")
	}

	return nil
}
