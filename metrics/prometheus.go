package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementBuckets spans a few seconds up to the ten minutes a buyer may
// take to approve a request in their wallet.
var SettlementBuckets = []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600}

// PrometheusRecorder exports lifecycle events as prometheus collectors:
// a counter per event and chain, a histogram per API operation, a
// settlement-time histogram and a gauge of active watches.
type PrometheusRecorder struct {
	events     *prometheus.CounterVec
	operations *prometheus.HistogramVec
	settlement *prometheus.HistogramVec
	watches    *prometheus.GaugeVec
}

// NewPrometheusRecorder registers the fetcch collectors with reg.
// A nil reg registers with the default registry.
func NewPrometheusRecorder(reg prometheus.Registerer) Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusRecorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fetcch",
			Name:      "events_total",
			Help:      "Payment request lifecycle events.",
		}, []string{"event", LabelChain}),
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fetcch",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls to the payment request API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", LabelChain}),
		settlement: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fetcch",
			Name:      "settlement_seconds",
			Help:      "Time from the start of a watch until the request settled.",
			Buckets:   SettlementBuckets,
		}, []string{LabelChain}),
		watches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fetcch",
			Name:      "active_watches",
			Help:      "Payment requests currently being polled.",
		}, []string{LabelChain}),
	}

	reg.MustRegister(p.events, p.operations, p.settlement, p.watches)
	return p
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	chain := chainLabel(labels)
	switch name {
	case EventWatchStarted:
		p.watches.WithLabelValues(chain).Inc()
		return
	case EventWatchStopped:
		p.watches.WithLabelValues(chain).Dec()
		return
	}
	p.events.WithLabelValues(name, chain).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	chain := chainLabel(labels)
	if name == OpSettlement {
		p.settlement.WithLabelValues(chain).Observe(d.Seconds())
		return
	}
	p.operations.WithLabelValues(name, chain).Observe(d.Seconds())
}

func chainLabel(labels map[string]string) string {
	if chain := labels[LabelChain]; chain != "" {
		return chain
	}
	return "unknown"
}
