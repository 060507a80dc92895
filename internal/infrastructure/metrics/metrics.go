package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the collectors shared by the server, the document stores
// and the delta hub. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	DocumentOps       *prometheus.CounterVec
	DeltasPublished   prometheus.Counter
	DeltasDropped     prometheus.Counter
	StreamSubscribers prometheus.Gauge
}

// New creates and registers all collectors on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DocumentOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wsk_document_operations_total",
				Help: "Document loads and writes by store and outcome",
			},
			[]string{"store", "op", "outcome"},
		),
		DeltasPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsk_deltas_published_total",
			Help: "Deltas handed to the data bus",
		}),
		DeltasDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsk_deltas_dropped_total",
			Help: "Deltas dropped because a stream subscriber was too slow",
		}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wsk_stream_subscribers",
			Help: "Connected delta stream subscribers",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.DocumentOps,
		m.DeltasPublished,
		m.DeltasDropped,
		m.StreamSubscribers,
	)

	return m
}

// ObserveDocument counts a document operation
func (m *Metrics) ObserveDocument(store, op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DocumentOps.WithLabelValues(store, op, outcome).Inc()
}

// DeltaPublished counts a delta handed to the bus
func (m *Metrics) DeltaPublished() {
	if m == nil {
		return
	}
	m.DeltasPublished.Inc()
}

// DeltaDropped counts a frame a subscriber never received
func (m *Metrics) DeltaDropped() {
	if m == nil {
		return
	}
	m.DeltasDropped.Inc()
}

// SubscriberAdded tracks stream connections
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.StreamSubscribers.Inc()
}

// SubscriberRemoved tracks stream disconnections
func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.StreamSubscribers.Dec()
}
