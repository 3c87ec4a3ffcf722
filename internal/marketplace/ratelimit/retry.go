package ratelimit

import (
	"math"
	"math/rand"
	"strconv"
	"time"
)

// RetryError represents an operation that exhausted its retry budget.
type RetryError struct {
	Op        string
	Attempts  int
	LastError error
}

func (e *RetryError) Error() string {
	msg := "marketplace call " + e.Op + " failed after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error { return e.LastError }

// Backoff calculates exponential backoff with jitter (0-25%) for a given
// attempt, capped at the configured maximum.
func Backoff(attempt int, config Config) time.Duration {
	exponential := float64(config.InitialBackoffMs) * math.Pow(2.0, float64(attempt))
	capped := math.Min(exponential, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * capped
	return time.Duration(capped+jitter) * time.Millisecond
}

// RateLimitBackoff calculates backoff for a rate-limited response. Respects
// a server-provided Retry-After value when present, otherwise backs off more
// aggressively (3x multiplier) than a plain transient failure.
func RateLimitBackoff(attempt int, config Config, retryAfter *string) time.Duration {
	if retryAfter != nil {
		if seconds, err := strconv.Atoi(*retryAfter); err == nil && seconds > 0 {
			jitter := time.Duration(rand.Intn(1000)) * time.Millisecond
			return time.Duration(seconds)*time.Second + jitter
		}
	}

	exponential := float64(config.InitialBackoffMs) * math.Pow(3.0, float64(attempt))
	capped := math.Min(exponential, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * capped
	return time.Duration(capped+jitter) * time.Millisecond
}
