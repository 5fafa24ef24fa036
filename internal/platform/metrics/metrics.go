package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	DocumentsUploaded  *prometheus.CounterVec
	UploadBytes        prometheus.Counter
	UploadFailures     *prometheus.CounterVec
	UploadDuration     prometheus.Histogram
	DocumentsDeleted   prometheus.Counter
	Submissions        *prometheus.CounterVec
	Decisions          *prometheus.CounterVec
	AccessChecks       *prometheus.CounterVec
	StatusSubscribers  prometheus.Gauge
	StatusFallbacks    prometheus.Counter
	StatusBreakerState prometheus.Gauge
	AuditDropped       *prometheus.CounterVec
	SessionCacheHits   prometheus.Counter
	SessionCacheMisses prometheus.Counter
}

// New creates and registers all metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsUploaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propverify_documents_uploaded_total",
			Help: "Documents stored, by role and category",
		}, []string{"role", "category"}),
		UploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "propverify_upload_bytes_total",
			Help: "Bytes written to the object store by uploads",
		}),
		UploadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propverify_upload_failures_total",
			Help: "Failed uploads, by error code",
		}, []string{"code"}),
		UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "propverify_upload_duration_seconds",
			Help:    "Time from upload start to record persisted",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		DocumentsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "propverify_documents_deleted_total",
			Help: "Documents removed by their owners",
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propverify_verification_submissions_total",
			Help: "Verification cases submitted, by role",
		}, []string{"role"}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propverify_verification_decisions_total",
			Help: "Verification decisions applied, by outcome and reviewer kind",
		}, []string{"outcome", "reviewer"}),
		AccessChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propverify_access_checks_total",
			Help: "Restricted action checks, by result",
		}, []string{"result"}),
		StatusSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "propverify_status_subscribers",
			Help: "Active verification status subscriptions",
		}),
		StatusFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "propverify_status_fallback_deliveries_total",
			Help: "Default not_submitted records delivered because the store or broker failed",
		}),
		StatusBreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "propverify_status_store_breaker_state",
			Help: "Status store circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
		AuditDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propverify_audit_dropped_total",
			Help: "Audit events dropped before reaching the sink, by action",
		}, []string{"action"}),
		SessionCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "propverify_session_cache_hits_total",
			Help: "Session identity cache hits",
		}),
		SessionCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "propverify_session_cache_misses_total",
			Help: "Session identity cache misses",
		}),
	}
}

func (m *Metrics) ObserveUpload(role, category string, bytes int64, seconds float64) {
	m.DocumentsUploaded.WithLabelValues(role, category).Inc()
	m.UploadBytes.Add(float64(bytes))
	m.UploadDuration.Observe(seconds)
}

func (m *Metrics) IncUploadFailure(code string) {
	m.UploadFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) IncDocumentDeleted() {
	m.DocumentsDeleted.Inc()
}

func (m *Metrics) IncSubmission(role string) {
	m.Submissions.WithLabelValues(role).Inc()
}

func (m *Metrics) IncDecision(outcome, reviewer string) {
	m.Decisions.WithLabelValues(outcome, reviewer).Inc()
}

func (m *Metrics) IncAccessCheck(allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.AccessChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) IncStatusSubscribers() { m.StatusSubscribers.Inc() }

func (m *Metrics) DecStatusSubscribers() { m.StatusSubscribers.Dec() }

func (m *Metrics) IncStatusFallback() { m.StatusFallbacks.Inc() }

// SetStatusBreakerOpen sets the breaker state gauge.
func (m *Metrics) SetStatusBreakerOpen(open bool) {
	if open {
		m.StatusBreakerState.Set(1)
	} else {
		m.StatusBreakerState.Set(0)
	}
}

func (m *Metrics) IncAuditDropped(action string) {
	m.AuditDropped.WithLabelValues(action).Inc()
}

func (m *Metrics) IncSessionCacheHit() { m.SessionCacheHits.Inc() }

func (m *Metrics) IncSessionCacheMiss() { m.SessionCacheMisses.Inc() }
