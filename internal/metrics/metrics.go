package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SweepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_sweeps_total",
		Help: "Total number of completed breach detection sweeps",
	})
	SweepsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_sweeps_skipped_total",
		Help: "Total sweep triggers skipped because one was already running",
	})
	SweepsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_sweeps_failed_total",
		Help: "Total sweeps aborted on feed load failure",
	})
	SweepDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_sweep_duration_ms",
		Help:    "Sweep duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	TouristFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_sweep_tourist_failures_total",
		Help: "Total tourists skipped within sweeps due to bad data or write failures",
	})
	AlertsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_alerts_created_total",
		Help: "Total alerts opened",
	}, []string{"type"})
	AlertsResolvedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_alerts_resolved_total",
		Help: "Total alerts resolved",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		SweepsTotal,
		SweepsSkippedTotal,
		SweepsFailedTotal,
		SweepDurationMs,
		TouristFailuresTotal,
		AlertsCreatedTotal,
		AlertsResolvedTotal,
	)
}

// Handler exposes the registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
