package client

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts including the initial request.
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns a configuration that makes a single attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       1,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// shouldRetry determines if an error class is worth another attempt.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx and local failures will not change on retry
		return false
	}
}

// retryWithBackoff runs fn until it succeeds, returns a non-retriable
// error, or attempts run out. fn returns classified errors only. The last
// error is returned unchanged so its code reaches the caller.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func(attempt int) *Error) *Error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	backoff := cfg.InitialBackoff

	var lastErr *Error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		class := lastErr.Class()
		if !shouldRetry(class) || attempt >= cfg.MaxAttempts {
			break
		}

		requestRetriesTotal.WithLabelValues(string(class)).Inc()

		// ±20% jitter
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(jitter.Seconds())

		logger.Debug().
			Str("error_class", string(class)).
			Str("code", lastErr.Code).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return lastErr
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	if cfg.MaxAttempts > 1 && shouldRetry(lastErr.Class()) {
		retryExhaustedTotal.WithLabelValues(string(lastErr.Class())).Inc()
		logger.Warn().
			Str("error_class", string(lastErr.Class())).
			Int("max_attempts", cfg.MaxAttempts).
			Msg("Retry attempts exhausted")
	}
	return lastErr
}
