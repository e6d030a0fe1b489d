package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	requestsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "openmart_rate_limit_remaining",
		Help: "Requests remaining in the current OpenMart rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openmart_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the quota is exhausted",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openmart_rate_limit_throttles_total",
		Help: "Total number of requests throttled because the quota is low",
	})
)

// DefaultThrottleDelay is the pause applied to requests in the warning range.
const DefaultThrottleDelay = 1 * time.Second

// Tracker monitors the request quota and gates requests. With a Redis
// client the state is shared by every process using the same API key;
// without one it is kept in memory.
type Tracker struct {
	redis         *redis.Client
	logger        zerolog.Logger
	throttleDelay time.Duration

	mu    sync.Mutex
	local *RateLimitState
}

// NewTracker creates a new rate limit tracker. redisClient may be nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay changes the warning-range pause.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState returns the current state, or DefaultState if nothing was recorded.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.local == nil {
			return DefaultState(), nil
		}
		state := *t.local
		return &state, nil
	}

	remaining, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No rate limit state in Redis, returning default healthy state")
		return DefaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &RateLimitState{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders records the quota reported by a response. Responses
// without quota headers leave the state untouched, except 429s, which
// exhaust the quota until Retry-After (or 60s) has passed.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, statusCode int, headers http.Header) error {
	now := time.Now()

	var state *RateLimitState
	switch remainStr := headers.Get(HeaderRemaining); {
	case remainStr != "":
		remain, err := strconv.Atoi(remainStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
		}

		resetStr := headers.Get(HeaderReset)
		if resetStr == "" {
			return fmt.Errorf("%s header missing", HeaderReset)
		}
		resetSeconds, err := strconv.Atoi(resetStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}

		state = &RateLimitState{
			Remaining:  remain,
			ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
			LastUpdate: now,
		}
	case statusCode == http.StatusTooManyRequests:
		wait := 60 * time.Second
		if ra := headers.Get(HeaderRetryAfter); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				wait = time.Duration(secs) * time.Second
			} else if at, err := http.ParseTime(ra); err == nil {
				wait = time.Until(at)
			}
		}
		state = &RateLimitState{
			Remaining:  0,
			ResetAt:    now.Add(wait),
			LastUpdate: now,
		}
	default:
		return nil
	}
	state.UpdateHealth()

	if err := t.store(ctx, state); err != nil {
		return err
	}

	requestsRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("OpenMart rate limit exhausted - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("OpenMart rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("OpenMart rate limit state updated")
	}

	return nil
}

func (t *Tracker) store(ctx context.Context, state *RateLimitState) error {
	if t.redis == nil {
		t.mu.Lock()
		t.local = state
		t.mu.Unlock()
		return nil
	}

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, 0)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), 0)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. It returns
// false while the quota is exhausted and pauses for the throttle delay
// while the quota is low.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("OpenMart rate limit exhausted - blocking request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() && t.throttleDelay > 0 {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("OpenMart rate limit low - throttling request")

		rateLimitThrottlesTotal.Inc()
		timer := time.NewTimer(t.throttleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
