// Package metrics holds the Prometheus instruments for the API server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the HTTP surface and the write paths.
type Metrics struct {
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ClientsCreated   prometheus.Counter
	ClientsDeleted   prometheus.Counter
	PoliciesCreated  prometheus.Counter
	PoliciesCanceled prometheus.Counter
	VersionConflicts *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_keeper_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policy_keeper_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "method"}),
		ClientsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_keeper_clients_created_total",
			Help: "Total number of clients created",
		}),
		ClientsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_keeper_clients_deleted_total",
			Help: "Total number of clients deleted",
		}),
		PoliciesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_keeper_policies_created_total",
			Help: "Total number of policies created",
		}),
		PoliciesCanceled: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_keeper_policies_cancelled_total",
			Help: "Total number of policies cancelled by customers",
		}),
		VersionConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_keeper_version_conflicts_total",
			Help: "Optimistic concurrency conflicts by entity",
		}, []string{"entity"}),
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, method string, code int, start time.Time) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementClientsCreated() {
	if m != nil {
		m.ClientsCreated.Inc()
	}
}

func (m *Metrics) IncrementClientsDeleted() {
	if m != nil {
		m.ClientsDeleted.Inc()
	}
}

func (m *Metrics) IncrementPoliciesCreated() {
	if m != nil {
		m.PoliciesCreated.Inc()
	}
}

func (m *Metrics) IncrementPoliciesCancelled() {
	if m != nil {
		m.PoliciesCanceled.Inc()
	}
}

// IncrementVersionConflict counts a lost optimistic write for entity ("client" or "policy").
func (m *Metrics) IncrementVersionConflict(entity string) {
	if m != nil {
		m.VersionConflicts.WithLabelValues(entity).Inc()
	}
}
