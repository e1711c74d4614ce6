package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	reconcileTotal     *prometheus.CounterVec
	reconcileDuration  *prometheus.HistogramVec
	reconcileInFlight  prometheus.Gauge
	queueLag           *prometheus.HistogramVec
	oracleCallDuration *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	reconcileTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sop",
			Subsystem: "worker",
			Name:      "reconcile_total",
			Help:      "Total reconciled documents by status.",
		},
		[]string{"service", "status"},
	)
	reconcileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sop",
			Subsystem: "worker",
			Name:      "reconcile_duration_seconds",
			Help:      "Document reconcile duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	reconcileInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sop",
			Subsystem: "worker",
			Name:      "reconcile_in_flight",
			Help:      "Number of in-flight reconcile tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sop",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and reconcile start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	oracleCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sop",
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Oracle call duration in seconds by operation.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(reconcileTotal, reconcileDuration, reconcileInFlight, queueLag, oracleCallDuration)

	return &WorkerMetrics{
		registry:           registry,
		reconcileTotal:     reconcileTotal,
		reconcileDuration:  reconcileDuration,
		reconcileInFlight:  reconcileInFlight,
		queueLag:           queueLag,
		oracleCallDuration: oracleCallDuration,
	}
}

func (m *WorkerMetrics) RecordOracleCall(service, operation string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	m.oracleCallDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartReconcile() {
	m.reconcileInFlight.Inc()
}

func (m *WorkerMetrics) FinishReconcile(service string, duration time.Duration, err error) {
	m.reconcileInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.reconcileTotal.WithLabelValues(service, status).Inc()
	m.reconcileDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
