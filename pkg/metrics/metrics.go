package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "api_http_requests_total", Help: "HTTP requests"},
		[]string{"method", "path", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	CampaignsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "api_campaigns_created_total", Help: "Campaigns created"},
	)
	SimulatedSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "api_simulated_sends_total", Help: "Simulated sends by outcome status"},
		[]string{"status"},
	)
	PublishedEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "api_published_events_total", Help: "Send events published to queue"},
	)
	PublishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "api_publish_failures_total", Help: "Send events that could not be published"},
	)
	ReactivationCandidates = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "api_reactivation_candidates", Help: "Candidates found by the last reactivation query"},
	)

	WorkerEventsConsumed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "worker_events_consumed_total", Help: "Send events consumed"},
	)
	WorkerEventsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "worker_events_applied_total", Help: "Send events folded into the daily rollup"},
		[]string{"status"},
	)
	WorkerEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "worker_events_dropped_total", Help: "Malformed or exhausted events dropped"},
	)
	WorkerEventsDuplicate = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "worker_events_duplicate_total", Help: "Redelivered sends already in the rollup"},
	)
	WorkerEventRetries = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "worker_event_retries_total", Help: "Retries performed"},
	)
	WorkerProcessDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worker_event_process_duration_seconds",
			Help:    "Time spent processing an event",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		APIRequestsTotal, APIRequestDuration, CampaignsCreatedTotal, SimulatedSendsTotal,
		PublishedEventsTotal, PublishFailuresTotal, ReactivationCandidates,
		WorkerEventsConsumed, WorkerEventsApplied, WorkerEventsDropped, WorkerEventsDuplicate,
		WorkerEventRetries, WorkerProcessDuration,
	)
}

func Handler() http.Handler { return promhttp.Handler() }
