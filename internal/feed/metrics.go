package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// statusPolls counts feed status polls per connection.
	statusPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_status_polls_total",
		Help: "Feed status polls issued against the marketplace, by connection",
	}, []string{"connection"})

	// jobsSettled counts reconciled feed jobs by terminal status.
	jobsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_jobs_settled_total",
		Help: "Feed jobs driven to a terminal status, by status",
	}, []string{"status"})

	// resultLines counts per-line outcomes from fetched feed results.
	resultLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_result_lines_total",
		Help: "Feed result lines applied to items, by outcome",
	}, []string{"outcome"})
)
