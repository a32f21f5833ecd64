package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	ExecutedCounter  = prometheus.NewCounter(prometheus.CounterOpts{Name: "actions_executed_total", Help: "Actions executed successfully"})
	FailedCounter    = prometheus.NewCounter(prometheus.CounterOpts{Name: "actions_failed_total", Help: "Actions that failed during execution"})
	DispatchSkipped  = prometheus.NewCounter(prometheus.CounterOpts{Name: "actions_dispatch_skipped_total", Help: "Change events ignored by the dispatch trigger"})
	DirectCalls      = prometheus.NewCounter(prometheus.CounterOpts{Name: "actions_direct_calls_total", Help: "Direct invocation endpoint calls"})
	RateLimitRejects = prometheus.NewCounter(prometheus.CounterOpts{Name: "actions_rate_limit_rejects_total", Help: "Direct calls rejected by the rate limiter"})
	SweptCounter     = prometheus.NewCounter(prometheus.CounterOpts{Name: "actions_swept_total", Help: "Expired terminal actions deleted by the sweeper"})
	FeedDepthGauge   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "actions_feed_depth", Help: "Pending change events in the dispatch feed"})
	InFlightGauge    = prometheus.NewGauge(prometheus.GaugeOpts{Name: "actions_inflight", Help: "Actions currently executing"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			ExecutedCounter,
			FailedCounter,
			DispatchSkipped,
			DirectCalls,
			RateLimitRejects,
			SweptCounter,
			FeedDepthGauge,
			InFlightGauge,
		)
	})
	return promhttp.Handler()
}
