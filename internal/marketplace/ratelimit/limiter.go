// Package ratelimit throttles outbound marketplace calls per destination
// connection. Marketplace quotas are scoped to the connection's credentials,
// so limiters are keyed by connection ref rather than shared process-wide.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration for one connection.
type Config struct {
	RequestsPerSecond int `json:"requestsPerSecond"`
	Burst             int `json:"burst"`
	MaxRetries        int `json:"maxRetries"`
	InitialBackoffMs  int `json:"initialBackoffMs"`
	MaxBackoffMs      int `json:"maxBackoffMs"`
}

// DefaultConfig returns the default rate limit configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		Burst:             1,
		MaxRetries:        3,
		InitialBackoffMs:  100,
		MaxBackoffMs:      30000,
	}
}

// Limiter throttles calls for a single connection.
type Limiter struct {
	limiter *rate.Limiter
	config  Config
}

// NewLimiter creates a limiter with the given config.
func NewLimiter(config Config) *Limiter {
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst),
		config:  config,
	}
}

// Wait blocks until a call is permitted or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a call is permitted right now, without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Config returns the limiter's configuration.
func (l *Limiter) Config() Config {
	return l.config
}

// PerConnection hands out one limiter per connection ref. It is an explicit
// object passed into the orchestrator, not ambient global state, so parallel
// sweeps for different connections stay isolated.
type PerConnection struct {
	mu       sync.Mutex
	config   Config
	limiters map[string]*Limiter
}

// NewPerConnection creates a per-connection limiter set sharing one config.
func NewPerConnection(config Config) *PerConnection {
	return &PerConnection{
		config:   config,
		limiters: make(map[string]*Limiter),
	}
}

// Get returns the limiter for a connection, creating it on first use.
func (p *PerConnection) Get(connectionRef string) *Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.limiters[connectionRef]; ok {
		return l
	}
	l := NewLimiter(p.config)
	p.limiters[connectionRef] = l
	return l
}
