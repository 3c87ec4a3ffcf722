// Package syncer drives catalog synchronization sweeps: existence checks,
// listing pushes, deletions and retries, per connection, in bounded
// id-ordered chunks.
package syncer

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/marketplace"
	"github.com/channelsync/sync-service/internal/marketplace/ratelimit"
	"github.com/channelsync/sync-service/internal/storage"
)

// upcPattern accepts UPC-A (12 digits) and EAN-13 (13 digits) identifiers.
var upcPattern = regexp.MustCompile(`^\d{12,13}$`)

// ValidIdentifier reports whether an identifier is well-formed enough to
// spend marketplace quota on.
func ValidIdentifier(upc string) bool {
	return upcPattern.MatchString(upc)
}

// Config bounds a sweep run.
type Config struct {
	// ChunkSize is the number of items selected per chunk, in id order.
	ChunkSize int

	// BatchThreshold is the eligible-item count above which a sweep
	// submits one bulk feed instead of per-item calls.
	BatchThreshold int

	// RetryOlderThan is the minimum age of a failed attempt before the
	// retry sweep considers it.
	RetryOlderThan time.Duration

	RateLimit ratelimit.Config
	Breaker   marketplace.BreakerConfig
}

// DefaultConfig returns the sweep defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      200,
		BatchThreshold: 20,
		RetryOlderThan: time.Hour,
		RateLimit:      ratelimit.DefaultConfig(),
		Breaker:        marketplace.DefaultBreakerConfig(),
	}
}

// Summary aggregates one sweep invocation. Item-level failures land in
// Failed/Errors; they never abort the sweep.
type Summary struct {
	Processed  int      `json:"processed"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	FeedJobIDs []string `json:"feedJobIds,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// Merge folds another summary into this one.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	s.Processed += other.Processed
	s.Created += other.Created
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.FeedJobIDs = append(s.FeedJobIDs, other.FeedJobIDs...)
	s.Errors = append(s.Errors, other.Errors...)
}

// Partial reports whether the sweep finished with item-level errors.
func (s *Summary) Partial() bool {
	return s.Failed > 0 || len(s.Errors) > 0
}

func (s *Summary) addError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Orchestrator runs sweeps against one Store and a marketplace registry,
// throttled per connection.
type Orchestrator struct {
	store    Store
	registry *marketplace.Registry
	limiters *ratelimit.PerConnection
	docs     storage.Storage
	cfg      Config
	logger   zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*marketplace.Breaker
	clients  map[string]marketplace.Client
}

// New creates an orchestrator. A nil registry falls back to the package
// default registry.
func New(store Store, registry *marketplace.Registry, cfg Config) *Orchestrator {
	if registry == nil {
		registry = marketplace.DefaultRegistry
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if cfg.BatchThreshold <= 0 {
		cfg.BatchThreshold = DefaultConfig().BatchThreshold
	}
	if cfg.RetryOlderThan <= 0 {
		cfg.RetryOlderThan = DefaultConfig().RetryOlderThan
	}
	return &Orchestrator{
		store:    store,
		registry: registry,
		limiters: ratelimit.NewPerConnection(cfg.RateLimit),
		cfg:      cfg,
		logger:   log.With().Str("component", "syncer").Logger(),
		breakers: make(map[string]*marketplace.Breaker),
		clients:  make(map[string]marketplace.Client),
	}
}

// WithDocStore makes the orchestrator archive submitted feed payloads so the
// reconciler can fan a terminal feed failure back to the affected items.
func (o *Orchestrator) WithDocStore(docs storage.Storage) *Orchestrator {
	o.docs = docs
	return o
}

// clientFor resolves (and caches) the marketplace client for a connection.
// Construction failure is infrastructure-level and aborts the sweep.
func (o *Orchestrator) clientFor(conn *database.Connection) (marketplace.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if c, ok := o.clients[conn.Ref]; ok {
		return c, nil
	}
	c, err := o.registry.New(marketplace.Kind(conn.MarketplaceKind), marketplace.ClientConfig{
		ConnectionRef: conn.Ref,
		Endpoint:      conn.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build %s client for connection %s: %w", conn.MarketplaceKind, conn.Ref, err)
	}
	o.clients[conn.Ref] = c
	return c, nil
}

func (o *Orchestrator) breakerFor(connectionRef string) *marketplace.Breaker {
	o.mu.Lock()
	defer o.mu.Unlock()

	if b, ok := o.breakers[connectionRef]; ok {
		return b
	}
	b := marketplace.NewBreaker(o.cfg.Breaker, o.logger.With().Str("connection", connectionRef).Logger())
	o.breakers[connectionRef] = b
	return b
}

// remote runs one outbound call under the connection's rate limiter and
// circuit breaker. Validation rejections do not trip the breaker.
func (o *Orchestrator) remote(ctx context.Context, connectionRef, op string, fn func() error) error {
	breaker := o.breakerFor(connectionRef)
	if !breaker.Allow() {
		breakerRejections.WithLabelValues(connectionRef).Inc()
		return marketplace.Transient(op, "circuit open for connection "+connectionRef, nil)
	}
	waitStart := time.Now()
	if err := o.limiters.Get(connectionRef).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	limiterWait.Observe(time.Since(waitStart).Seconds())

	err := fn()
	if err != nil && marketplace.KindOf(err) != marketplace.ErrKindValidation {
		breaker.RecordFailure()
	} else {
		breaker.RecordSuccess()
	}
	remoteCalls.WithLabelValues(op, remoteResult(err)).Inc()
	return err
}

func remoteResult(err error) string {
	if err == nil {
		return "ok"
	}
	return marketplace.KindOf(err).String()
}
