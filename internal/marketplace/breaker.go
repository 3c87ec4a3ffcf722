package marketplace

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// BreakerState represents the state of the circuit breaker.
type BreakerState int

const (
	// BreakerClosed allows calls to pass through.
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects calls immediately.
	BreakerOpen

	// BreakerHalfOpen allows a few probe calls to check for recovery.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int

	// ResetTimeout is how long to wait before probing in half-open state.
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is the number of probes allowed while half-open.
	HalfOpenMaxCalls int
}

// DefaultBreakerConfig returns the default circuit breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// Breaker protects a sweep from hammering a marketplace that is down: after
// MaxFailures consecutive transient failures it fails fast until the reset
// timeout elapses, so the remaining chunk is skipped instead of burning the
// whole retry budget item by item.
type Breaker struct {
	mu              sync.Mutex
	state           BreakerState
	failures        int
	halfOpenCalls   int
	lastFailureTime time.Time
	config          BreakerConfig
	logger          zerolog.Logger
}

// NewBreaker creates a circuit breaker for one connection.
func NewBreaker(config BreakerConfig, logger zerolog.Logger) *Breaker {
	return &Breaker{config: config, logger: logger}
}

// Allow reports whether a call may proceed. Open circuits reject until the
// reset timeout, then admit a bounded number of half-open probes.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if time.Since(b.lastFailureTime) >= b.config.ResetTimeout {
			b.transition(BreakerHalfOpen)
			b.halfOpenCalls = 1
			return true
		}
		return false
	case BreakerHalfOpen:
		if b.halfOpenCalls < b.config.HalfOpenMaxCalls {
			b.halfOpenCalls++
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess resets the failure count and closes a half-open circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state != BreakerClosed {
		b.transition(BreakerClosed)
	}
}

// RecordFailure counts a transient failure; validation rejections say nothing
// about marketplace health and must not be recorded here.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureTime = time.Now()

	if b.state == BreakerHalfOpen || b.failures >= b.config.MaxFailures {
		if b.state != BreakerOpen {
			b.transition(BreakerOpen)
		}
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to BreakerState) {
	b.logger.Warn().
		Str("component", "breaker").
		Str("from", b.state.String()).
		Str("to", to.String()).
		Int("failures", b.failures).
		Msg("Circuit breaker state change")
	b.state = to
}
