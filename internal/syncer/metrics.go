package syncer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sweepDuration tracks how long each sweep takes per connection.
	sweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syncer_sweep_duration_seconds",
		Help:    "Time taken by one sweep run, by sweep and connection",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"sweep", "connection"})

	// sweepItems counts item outcomes per sweep.
	sweepItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncer_sweep_items_total",
		Help: "Items handled by sweeps, by sweep and outcome",
	}, []string{"sweep", "outcome"})

	// remoteCalls counts outbound marketplace calls by operation and result.
	remoteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncer_remote_calls_total",
		Help: "Outbound marketplace calls, by operation and result",
	}, []string{"op", "result"})

	// breakerRejections counts calls refused by an open circuit breaker.
	breakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncer_breaker_rejections_total",
		Help: "Calls rejected because the connection's circuit breaker was open",
	}, []string{"connection"})

	// limiterWait tracks time spent waiting on the per-connection rate limiter.
	limiterWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "syncer_rate_limiter_wait_seconds",
		Help:    "Time spent waiting for a rate limiter token",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	// feedSubmissions counts bulk feeds submitted per connection.
	feedSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncer_feed_submissions_total",
		Help: "Bulk feeds submitted, by connection and feed kind",
	}, []string{"connection", "kind"})
)

// recordSweep observes one finished sweep run.
func recordSweep(sweep, connectionRef string, start time.Time, s *Summary) {
	sweepDuration.WithLabelValues(sweep, connectionRef).Observe(time.Since(start).Seconds())
	if s == nil {
		return
	}
	sweepItems.WithLabelValues(sweep, "created").Add(float64(s.Created))
	sweepItems.WithLabelValues(sweep, "updated").Add(float64(s.Updated))
	sweepItems.WithLabelValues(sweep, "skipped").Add(float64(s.Skipped))
	sweepItems.WithLabelValues(sweep, "failed").Add(float64(s.Failed))
}
