package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrantsIssued prometheus.Counter
	Scans             *prometheus.CounterVec
	ScanLogFailures   prometheus.Counter
	CertRenderSeconds prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrantsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_registrants_issued_total",
			Help: "Total number of registrant identities issued",
		}),
		Scans: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_scans_total",
			Help: "Total scan verification attempts by outcome",
		}, []string{"outcome"}),
		ScanLogFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_scan_log_append_failures_total",
			Help: "Scan audit entries that could not be persisted",
		}),
		CertRenderSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatepass_certificate_render_seconds",
			Help:    "Latency of certificate document+image rendering",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncrementRegistrantsIssued() {
	if m == nil {
		return
	}
	m.RegistrantsIssued.Inc()
}

func (m *Metrics) ObserveScan(outcome string) {
	if m == nil {
		return
	}
	m.Scans.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementScanLogFailures() {
	if m == nil {
		return
	}
	m.ScanLogFailures.Inc()
}

func (m *Metrics) ObserveCertRender(d time.Duration) {
	if m == nil {
		return
	}
	m.CertRenderSeconds.Observe(d.Seconds())
}
