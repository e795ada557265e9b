// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitbook"

// Metrics groups the collectors updated by the ledger service.
type Metrics struct {
	RPCRequests         *prometheus.CounterVec
	RPCDuration         *prometheus.HistogramVec
	SettlementTransfers prometheus.Histogram
	UnknownParticipants prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on a fresh registry along
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Connect RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Connect RPC handling time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		SettlementTransfers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_plan_transfers",
			Help:      "Number of transfers in each computed settlement plan.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		UnknownParticipants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unknown_participants",
			Help:      "Ids with a balance but missing from the roster, as of the last balance computation.",
		}),
		gatherer: g,
	}

	reg.MustRegister(m.RPCRequests, m.RPCDuration, m.SettlementTransfers, m.UnknownParticipants)
	return m
}

// ObserveRPC records one finished call. code is "ok" or a Connect code name.
func (m *Metrics) ObserveRPC(procedure, code string, seconds float64) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(seconds)
}

// ObservePlan records the size of a settlement plan and sets the number of
// balance entries that belong to participants no longer on the roster.
func (m *Metrics) ObservePlan(transfers, unknown int) {
	if m == nil {
		return
	}
	m.SettlementTransfers.Observe(float64(transfers))
	m.UnknownParticipants.Set(float64(unknown))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
