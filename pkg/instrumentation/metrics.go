package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameSpace                   = "compliance"
	HttpStatusHistogram         = "http_status_histogram"
	ChunksReceivedTotal         = "chunks_received_total"
	UploadSessionsFinalized     = "upload_sessions_finalized_total"
	UploadSessionsExpired       = "upload_sessions_expired_total"
	ComplianceChecksTotal       = "compliance_checks_total"
	TrackedSubmissions          = "tracked_submissions"
	StorageCleanupFailuresTotal = "storage_cleanup_failures_total"
)

type Metrics struct {
	HttpStatusHistogram prometheus.HistogramVec

	// Custom metrics
	ChunksReceivedTotal         prometheus.Counter
	UploadSessionsFinalized     prometheus.CounterVec
	UploadSessionsExpired       prometheus.Counter
	ComplianceChecksTotal       prometheus.CounterVec
	TrackedSubmissions          prometheus.Gauge
	StorageCleanupFailuresTotal prometheus.Counter

	reg *prometheus.Registry
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		panic("reg cannot be nil")
	}
	metrics := &Metrics{
		reg: reg,
		HttpStatusHistogram: *promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: NameSpace,
			Name:      HttpStatusHistogram,
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status", "method", "path"}),

		ChunksReceivedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      ChunksReceivedTotal,
			Help:      "Number of upload chunks accepted",
		}),
		UploadSessionsFinalized: *promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      UploadSessionsFinalized,
			Help:      "Result of upload session finalization",
		}, []string{"state"}),
		UploadSessionsExpired: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      UploadSessionsExpired,
			Help:      "Number of upload sessions evicted before finalization",
		}),
		ComplianceChecksTotal: *promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      ComplianceChecksTotal,
			Help:      "Compliance check submissions by outcome",
		}, []string{"status"}),
		TrackedSubmissions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: NameSpace,
			Name:      TrackedSubmissions,
			Help:      "Submissions whose uploaded objects are still retained",
		}),
		StorageCleanupFailuresTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      StorageCleanupFailuresTotal,
			Help:      "Object deletions that failed during post-result cleanup",
		}),
	}

	reg.MustRegister(collectors.NewBuildInfoCollector())

	return metrics
}

func (m *Metrics) RecordChunkReceived() {
	if m != nil {
		m.ChunksReceivedTotal.Inc()
	}
}

func (m *Metrics) RecordCleanupFailure() {
	if m != nil {
		m.StorageCleanupFailuresTotal.Inc()
	}
}

func (m *Metrics) RecordFinalization(success bool) {
	state := "failed"
	if success {
		state = "success"
	}
	if m != nil {
		m.UploadSessionsFinalized.With(prometheus.Labels{"state": state}).Inc()
	}
}

func (m *Metrics) RecordCheckStatus(status string) {
	if m != nil {
		m.ComplianceChecksTotal.With(prometheus.Labels{"status": status}).Inc()
	}
}

func (m Metrics) Registry() *prometheus.Registry {
	return m.reg
}
