package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal  *prometheus.CounterVec
	chatDegradedTotal  *prometheus.CounterVec
	chatCitations      *prometheus.HistogramVec
	chatDocumentsUsed  *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
	uploadsTotal       *prometheus.CounterVec
	oracleCallDuration *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sop",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sop",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total successful chat requests.",
		},
		[]string{"service"},
	)
	chatDegradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sop",
			Subsystem: "chat",
			Name:      "selection_degraded_total",
			Help:      "Total chat requests where relevance selection fell back to the full document set.",
		},
		[]string{"service"},
	)
	chatCitations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sop",
			Subsystem: "chat",
			Name:      "citations",
			Help:      "Distribution of detected citations per successful chat request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	chatDocumentsUsed := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sop",
			Subsystem: "chat",
			Name:      "documents_used",
			Help:      "Distribution of documents in synthesis context per chat request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sop",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sop",
			Subsystem: "documents",
			Name:      "uploads_total",
			Help:      "Total completed uploads by inline extraction outcome.",
		},
		[]string{"service", "extraction"},
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

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatDegradedTotal,
		chatCitations,
		chatDocumentsUsed,
		chatDuration,
		uploadsTotal,
		oracleCallDuration,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatRequestsTotal:  chatRequestsTotal,
		chatDegradedTotal:  chatDegradedTotal,
		chatCitations:      chatCitations,
		chatDocumentsUsed:  chatDocumentsUsed,
		chatDuration:       chatDuration,
		uploadsTotal:       uploadsTotal,
		oracleCallDuration: oracleCallDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/conversations/"):
		return "/v1/conversations/{conversation_id}/messages"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordChatObservation(service string, degraded bool, citations, documentsUsed int, duration time.Duration) {
	m.chatRequestsTotal.WithLabelValues(service).Inc()
	m.chatCitations.WithLabelValues(service).Observe(float64(citations))
	m.chatDocumentsUsed.WithLabelValues(service).Observe(float64(documentsUsed))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
	if degraded {
		m.chatDegradedTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordUpload(service string, extracted bool) {
	outcome := "extracted"
	if !extracted {
		outcome = "deferred"
	}
	m.uploadsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordOracleCall(service, operation string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	m.oracleCallDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
