// Package ratelimit tracks the OpenMart API request quota and gates requests.
// It reads the X-RateLimit-Remaining and X-RateLimit-Reset headers, and
// Retry-After on 429 responses, so a client stops sending before the
// service starts rejecting.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining      = "openmart:rate_limit:remaining"
	RedisKeyResetTimestamp = "openmart:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "openmart:rate_limit:last_update"
)

// Response headers read by the tracker.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Thresholds for rate limit decisions.
const (
	// ThresholdCritical blocks requests when remaining quota falls below it.
	ThresholdCritical = 1

	// ThresholdWarning throttles requests when remaining quota falls below it.
	ThresholdWarning = 10

	// ThresholdHealthy marks normal operation at or above it.
	ThresholdHealthy = 50
)

// RateLimitState is the last known request quota.
type RateLimitState struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the service has reported a quota.
func DefaultState() *RateLimitState {
	now := time.Now()
	return &RateLimitState{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked. A quota
// whose window already reset does not block.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock() && s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
