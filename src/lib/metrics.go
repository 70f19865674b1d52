package lib

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics instruments the daemon itself on a private Prometheus registry.
type Metrics struct {
	registry  *prometheus.Registry
	flushes   *prometheus.CounterVec
	inputs    *prometheus.CounterVec
	unknown   prometheus.Counter
	lastFlush prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keytally",
			Name:      "flushes_total",
			Help:      "Counter flushes to the durable store, by result.",
		}, []string{"result"}),
		inputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keytally",
			Name:      "inputs_total",
			Help:      "Tracked inputs counted this session, by input kind.",
		}, []string{"kind"}),
		unknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keytally",
			Name:      "unknown_inputs_total",
			Help:      "Inputs that did not resolve to a tracked identifier.",
		}),
		lastFlush: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "keytally",
			Name:      "last_flush_timestamp_seconds",
			Help:      "Unix time of the last successful flush.",
		}),
	}
	m.registry.MustRegister(m.flushes, m.inputs, m.unknown, m.lastFlush)
	return m
}

func (m *Metrics) FlushSucceeded(at time.Time) {
	m.flushes.WithLabelValues("ok").Inc()
	m.lastFlush.Set(float64(at.Unix()))
}

func (m *Metrics) FlushFailed() {
	m.flushes.WithLabelValues("error").Inc()
}

func (m *Metrics) InputCounted(kind string) {
	m.inputs.WithLabelValues(kind).Inc()
}

func (m *Metrics) UnknownInput() {
	m.unknown.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
