package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "filedesk"

// PrometheusRecorder exports Recorder events as Prometheus collectors.
type PrometheusRecorder struct {
	uploadsAccepted  prometheus.Counter
	uploadsRejected  *prometheus.CounterVec
	uploadBytes      prometheus.Histogram
	intakeDuration   prometheus.Histogram
	replications     *prometheus.CounterVec
	replicationQueue prometheus.Gauge
	logins           *prometheus.CounterVec
	signups          *prometheus.CounterVec
}

// NewPrometheus registers the application collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	f := promauto.With(reg)

	return &PrometheusRecorder{
		uploadsAccepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_accepted_total",
			Help:      "Uploads stored and cataloged.",
		}),
		uploadsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Uploads rejected before any side effect, by reason.",
		}, []string{"reason"}),
		uploadBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of accepted uploads.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		intakeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intake_duration_seconds",
			Help:      "Time to store and catalog an upload.",
			Buckets:   prometheus.DefBuckets,
		}),
		replications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replications_total",
			Help:      "Replication attempts by outcome.",
		}, []string{"outcome"}),
		replicationQueue: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "replication_queue_depth",
			Help:      "Pending entries in the replication stream.",
		}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		signups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Signup attempts by result.",
		}, []string{"result"}),
	}
}

func (p *PrometheusRecorder) IncUploadAccepted() { p.uploadsAccepted.Inc() }

func (p *PrometheusRecorder) IncUploadRejected(reason string) {
	p.uploadsRejected.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveUploadBytes(n int64) { p.uploadBytes.Observe(float64(n)) }

func (p *PrometheusRecorder) ObserveIntakeDuration(d time.Duration) {
	p.intakeDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncReplication(outcome string) {
	p.replications.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetReplicationQueueDepth(depth int64) {
	p.replicationQueue.Set(float64(depth))
}

func (p *PrometheusRecorder) IncLogin(result string) { p.logins.WithLabelValues(result).Inc() }

func (p *PrometheusRecorder) IncSignup(result string) { p.signups.WithLabelValues(result).Inc() }
