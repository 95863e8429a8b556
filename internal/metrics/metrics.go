// Package metrics records container activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector receives container events.
type Collector interface {
	// DefinitionsRegistered sets the number of definitions held by a container.
	DefinitionsRegistered(container string, n int)
	// InstanceCreated records one successful creation.
	InstanceCreated(scope string, elapsed time.Duration)
	// InstanceFailed records one failed top-level resolution.
	InstanceFailed(code string)
	// Handler exposes the collected metrics over HTTP.
	Handler() http.Handler
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Namespace     string `yaml:"namespace"`
	Subsystem     string `yaml:"subsystem"`
	EnableGo      bool   `yaml:"enable_go"`
	EnableProcess bool   `yaml:"enable_process"`
}

// DefaultConfig returns the collector defaults.
func DefaultConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "beans",
	}
}

// metrics implements Collector using Prometheus
type metrics struct {
	registry *prometheus.Registry

	definitions   *prometheus.GaugeVec
	created       *prometheus.CounterVec
	failures      *prometheus.CounterVec
	createSeconds prometheus.Histogram
}

// New creates a collector. A disabled config yields a no-op collector.
func New(config MetricsConfig) Collector {
	if !config.Enabled {
		return NewNoop()
	}
	return NewWithRegistry(config, prometheus.NewRegistry())
}

// NewWithRegistry creates a collector registering into registry.
func NewWithRegistry(config MetricsConfig, registry *prometheus.Registry) Collector {
	m := &metrics{registry: registry}

	if config.EnableGo {
		registry.MustRegister(collectors.NewGoCollector())
	}
	if config.EnableProcess {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m.definitions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "definitions_registered",
			Help:      "Number of bean definitions registered per container",
		},
		[]string{"container"},
	)
	m.created = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "instances_created_total",
			Help:      "Total number of bean instances created",
		},
		[]string{"scope"},
	)
	m.failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "instance_failures_total",
			Help:      "Total number of failed bean resolutions by error code",
		},
		[]string{"code"},
	)
	m.createSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "instance_create_seconds",
			Help:      "Bean instance creation time in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	registry.MustRegister(m.definitions, m.created, m.failures, m.createSeconds)
	return m
}

func (m *metrics) DefinitionsRegistered(container string, n int) {
	m.definitions.WithLabelValues(container).Set(float64(n))
}

func (m *metrics) InstanceCreated(scope string, elapsed time.Duration) {
	m.created.WithLabelValues(scope).Inc()
	m.createSeconds.Observe(elapsed.Seconds())
}

func (m *metrics) InstanceFailed(code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	m.failures.WithLabelValues(code).Inc()
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// noopMetrics is a no-op implementation for when metrics are disabled
type noopMetrics struct{}

// NewNoop returns a collector that discards everything.
func NewNoop() Collector { return noopMetrics{} }

func (noopMetrics) DefinitionsRegistered(string, int)      {}
func (noopMetrics) InstanceCreated(string, time.Duration) {}
func (noopMetrics) InstanceFailed(string)                 {}
func (noopMetrics) Handler() http.Handler                 { return http.NotFoundHandler() }
