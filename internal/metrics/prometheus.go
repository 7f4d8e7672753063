package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeMatched  = "matched"
	OutcomeNoMatch  = "no_match"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Enrichment stages that can fail without stopping a submission.
const (
	StageInsights = "insights"
	StageDraft    = "draft"
	StageResearch = "research"
	StageStorage  = "storage"
)

// Manager owns the Prometheus collectors.
type Manager struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	scoreBuckets    []float64
	registry        *prometheus.Registry

	submissions        *prometheus.CounterVec
	enrichmentFailures *prometheus.CounterVec
	topMatchScore      prometheus.Histogram
	rankingDuration    prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var defaultManager = NewManager()

// NewManager creates a manager on its own registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "grant_matcher",
		subsystem:       "matching",
		durationBuckets: prometheus.DefBuckets,
		scoreBuckets:    []float64{0, 20, 40, 60, 80, 100, 120, 140},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_total",
		Help:      "Total number of submitted applications by outcome",
	}, []string{"outcome"})

	m.enrichmentFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_failures_total",
		Help:      "Optional steps that failed and were skipped",
	}, []string{"stage"})

	m.topMatchScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "top_match_score",
		Help:      "Score of the best ranked foundation per submission",
		Buckets:   m.scoreBuckets,
	})

	m.rankingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_duration_seconds",
		Help:      "Time spent ranking the catalog",
		Buckets:   m.durationBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.durationBuckets,
	}, []string{"route", "method", "status"})
}

// Default returns the process wide manager.
func Default() *Manager {
	return defaultManager
}

// Registry returns the registry the manager registers on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the manager's registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSubmission increments the submissions counter.
func (m *Manager) RecordSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// RecordEnrichmentFailure increments the failure counter of a stage.
func (m *Manager) RecordEnrichmentFailure(stage string) {
	m.enrichmentFailures.WithLabelValues(stage).Inc()
}

// RecordTopMatchScore observes the best score of a submission.
func (m *Manager) RecordTopMatchScore(score int) {
	m.topMatchScore.Observe(float64(score))
}

// RecordRankingDuration observes the time spent ranking.
func (m *Manager) RecordRankingDuration(d time.Duration) {
	m.rankingDuration.Observe(d.Seconds())
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, code).Observe(d.Seconds())
}
