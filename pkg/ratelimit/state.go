// Package ratelimit observes remote throttling signals. It tracks the
// X-RateLimit-Remaining and Retry-After headers the job service attaches to
// responses so callers can see rate pressure before the service starts
// rejecting requests. The observer never gates or delays calls; pacing is
// the caller's policy.
package ratelimit

import (
	"time"
)

// Redis keys for shared throttle state storage.
const (
	RedisKeyRemaining  = "jobclient:ratelimit:remaining"
	RedisKeyResetAt    = "jobclient:ratelimit:reset_at"
	RedisKeyLastUpdate = "jobclient:ratelimit:last_update"
)

// Thresholds for throttle state classification.
const (
	// RemainingCritical marks the budget as critical below this value.
	// Callers should stop issuing non-essential requests.
	RemainingCritical = 5

	// RemainingWarning marks the budget as strained below this value.
	RemainingWarning = 20

	// RemainingHealthy indicates normal operation at or above this value.
	RemainingHealthy = 50
)

// State is the most recently observed throttle state of the remote service.
// It is shared across all client processes via Redis.
type State struct {
	// Remaining is the request budget left in the current window, from the
	// X-RateLimit-Remaining header. Negative when never observed.
	Remaining int `json:"remaining"`

	// ResetAt is when the current window resets, derived from the
	// X-RateLimit-Reset or Retry-After header.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from a response.
	LastUpdate time.Time `json:"last_update"`

	// Healthy is true when Remaining is at or above RemainingHealthy.
	Healthy bool `json:"healthy"`
}

// Stale returns true if the state is older than maxAge.
func (s *State) Stale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// Critical returns true when the remaining budget is nearly exhausted.
func (s *State) Critical() bool {
	return s.Remaining >= 0 && s.Remaining < RemainingCritical
}

// Strained returns true when the remaining budget is low but not critical.
func (s *State) Strained() bool {
	return s.Remaining >= 0 && s.Remaining < RemainingWarning && !s.Critical()
}

// TimeUntilReset returns the duration until the window resets, or 0 if the
// reset time has passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth recomputes the Healthy field from Remaining.
func (s *State) UpdateHealth() {
	s.Healthy = s.Remaining >= RemainingHealthy
}
