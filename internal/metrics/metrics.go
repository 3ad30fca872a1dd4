// Package metrics exposes Prometheus counters for remote calls, rollbacks,
// organization provisioning and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authdemo"

// Metrics holds the application collectors on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	remoteCalls  *prometheus.CounterVec
	rollbacks    *prometheus.CounterVec
	provisioned  prometheus.Counter
	httpRequests *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Remote calls issued by the task list, by operation and outcome.",
		}, []string{"op", "outcome"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Optimistic updates reverted after a failed remote call.",
		}, []string{"op"}),
		provisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orgs_provisioned_total",
			Help:      "Organizations created for users without one.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.remoteCalls,
		m.rollbacks,
		m.provisioned,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RemoteCall records the outcome of one remote call.
func (m *Metrics) RemoteCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.remoteCalls.WithLabelValues(op, outcome).Inc()
}

// Rollback records a reverted optimistic update.
func (m *Metrics) Rollback(op string) {
	m.rollbacks.WithLabelValues(op).Inc()
}

// OrganizationProvisioned records a created organization.
func (m *Metrics) OrganizationProvisioned() {
	m.provisioned.Inc()
}

// HTTPRequest records a served request.
func (m *Metrics) HTTPRequest(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
