// Package obs exposes the engine's pipeline counters as Prometheus
// metrics. A nil *Metrics is a valid no-op receiver so the core can run
// without a metrics endpoint.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the decision core.
type Metrics struct {
	TicksIngested  prometheus.Counter
	BatchesFolded  prometheus.Counter
	AnomaliesTotal *prometheus.CounterVec
	FoundTotal     *prometheus.CounterVec
	ApprovedTotal  prometheus.Counter
	RejectedTotal  prometheus.Counter
	CacheEvictions prometheus.Counter
	BufferDepth    prometheus.Gauge
	Backpressure   prometheus.Gauge
	BatchLatencyMs prometheus.Histogram
}

// NewMetrics creates and registers all metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TicksIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbcore_ticks_ingested_total",
			Help: "Total order-book snapshots accepted by the scheduler",
		}),
		BatchesFolded: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbcore_batches_folded_total",
			Help: "Total batches whose results were folded into the cache",
		}),
		AnomaliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbcore_anomalies_total",
			Help: "Anomaly findings by kind",
		}, []string{"kind"}),
		FoundTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbcore_opportunities_found_total",
			Help: "Arbitrage opportunities found by type, approved or not",
		}, []string{"type"}),
		ApprovedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbcore_opportunities_approved_total",
			Help: "Opportunities approved by the risk manager",
		}),
		RejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbcore_opportunities_rejected_total",
			Help: "Opportunities rejected by the risk manager",
		}),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbcore_cache_evictions_total",
			Help: "Opportunities evicted from the bounded cache",
		}),
		BufferDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arbcore_ingest_buffer_depth",
			Help: "Current length of the ingest buffer",
		}),
		Backpressure: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arbcore_backpressure",
			Help: "1 when ticks arrive faster than batches drain, else 0",
		}),
		BatchLatencyMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbcore_batch_latency_ms",
			Help:    "Wall time to run one batch through the pipeline in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}

// ObserveIngest records one accepted tick and the buffer depth after it.
func (m *Metrics) ObserveIngest(depth int) {
	if m == nil {
		return
	}
	m.TicksIngested.Inc()
	m.BufferDepth.Set(float64(depth))
}

// ObserveBackpressure sets the backpressure gauge.
func (m *Metrics) ObserveBackpressure(active bool) {
	if m == nil {
		return
	}
	if active {
		m.Backpressure.Set(1)
	} else {
		m.Backpressure.Set(0)
	}
}

// ObserveBatch records one folded batch's outcome.
func (m *Metrics) ObserveBatch(latencyMs float64, approved, rejected int) {
	if m == nil {
		return
	}
	m.BatchesFolded.Inc()
	m.BatchLatencyMs.Observe(latencyMs)
	m.ApprovedTotal.Add(float64(approved))
	m.RejectedTotal.Add(float64(rejected))
}

// ObserveAnomaly counts one finding by kind.
func (m *Metrics) ObserveAnomaly(kind string) {
	if m == nil {
		return
	}
	m.AnomaliesTotal.WithLabelValues(kind).Inc()
}

// ObserveFound counts one found opportunity by type.
func (m *Metrics) ObserveFound(oppType string) {
	if m == nil {
		return
	}
	m.FoundTotal.WithLabelValues(oppType).Inc()
}

// ObserveEvictions adds one fold's eviction count to the counter.
func (m *Metrics) ObserveEvictions(delta int64) {
	if m == nil {
		return
	}
	if delta > 0 {
		m.CacheEvictions.Add(float64(delta))
	}
}
