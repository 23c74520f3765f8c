// Package metrics exposes the ledger's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "banchi"

// Recorder owns a private registry so tests and multiple servers in one
// process never collide on registration. A nil *Recorder is a no-op.
type Recorder struct {
	registry       *prometheus.Registry
	admitted       *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	activeSessions prometheus.Gauge
	requests       *prometheus.CounterVec
	published      *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		admitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_admitted_total",
			Help:      "Ledger records accepted by the validator and stored.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Ledger submissions rejected by the validator.",
		}, []string{"kind", "reason"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently holding a ledger.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status class.",
		}, []string{"method", "status"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Record events handed to the message broker.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(
		r.admitted,
		r.rejected,
		r.activeSessions,
		r.requests,
		r.published,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) RecordAdmitted(kind string) {
	if r == nil {
		return
	}
	r.admitted.WithLabelValues(kind).Inc()
}

// RecordRejected counts a validator rejection. reason is the error kind,
// e.g. "invalid amount".
func (r *Recorder) RecordRejected(kind, reason string) {
	if r == nil {
		return
	}
	r.rejected.WithLabelValues(kind, reason).Inc()
}

func (r *Recorder) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.activeSessions.Set(float64(n))
}

// RecordRequest counts a served request by status class ("2xx", "4xx", ...).
func (r *Recorder) RecordRequest(method string, status int) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, statusClass(status)).Inc()
}

func (r *Recorder) RecordPublish(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.published.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
