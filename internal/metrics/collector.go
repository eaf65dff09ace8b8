package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Read outcomes recorded per file or cell access.
const (
	OutcomeOK      = "ok"
	OutcomeMissing = "missing"
	OutcomeCorrupt = "corrupt"
)

// Collector tracks dataset I/O activity on its own Prometheus registry.
// The library never starts an HTTP server; callers expose Handler wherever
// they serve metrics.
type Collector struct {
	registry *prometheus.Registry

	opens        *prometheus.CounterVec
	reads        *prometheus.CounterVec
	writes       prometheus.Counter
	cellSwitches prometheus.Counter
	batchSkips   prometheus.Counter
	readSeconds  prometheus.Histogram
}

// Config represents metrics configuration.
type Config struct {
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels"`
}

// NewCollector creates a collector with all metrics registered.
func NewCollector(cfg *Config) *Collector {
	if cfg == nil {
		cfg = &Config{}
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = "gridstore"
	}

	registry := prometheus.NewRegistry()
	factory := promauto(registry)

	c := &Collector{
		registry: registry,
		opens: factory.counterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "resource_opens_total",
			Help:        "Resource handles opened, by mode.",
			ConstLabels: prometheus.Labels(cfg.Labels),
		}, []string{"mode"}),
		reads: factory.counterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "reads_total",
			Help:        "Read operations, by outcome (ok, missing, corrupt).",
			ConstLabels: prometheus.Labels(cfg.Labels),
		}, []string{"outcome"}),
		writes: factory.counter(prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "writes_total",
			Help:        "Write operations.",
			ConstLabels: prometheus.Labels(cfg.Labels),
		}),
		cellSwitches: factory.counter(prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "cell_switches_total",
			Help:        "Times the dispatcher closed one cell to open another.",
			ConstLabels: prometheus.Labels(cfg.Labels),
		}),
		batchSkips: factory.counter(prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "batch_files_skipped_total",
			Help:        "Files skipped during interval aggregation.",
			ConstLabels: prometheus.Labels(cfg.Labels),
		}),
		readSeconds: factory.histogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Name:        "read_duration_seconds",
			Help:        "Duration of single-file read operations.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels(cfg.Labels),
		}),
	}
	return c
}

// RecordOpen counts an opened resource handle.
func (c *Collector) RecordOpen(mode string) {
	if c == nil {
		return
	}
	c.opens.WithLabelValues(mode).Inc()
}

// RecordRead counts a read with the given outcome.
func (c *Collector) RecordRead(outcome string) {
	if c == nil {
		return
	}
	c.reads.WithLabelValues(outcome).Inc()
}

// RecordWrite counts a write operation.
func (c *Collector) RecordWrite() {
	if c == nil {
		return
	}
	c.writes.Inc()
}

// RecordCellSwitch counts a close-old-open-new cell transition.
func (c *Collector) RecordCellSwitch() {
	if c == nil {
		return
	}
	c.cellSwitches.Inc()
}

// RecordBatchSkip counts a file skipped during interval aggregation.
func (c *Collector) RecordBatchSkip() {
	if c == nil {
		return
	}
	c.batchSkips.Inc()
}

// ObserveReadDuration records how long a single-file read took.
func (c *Collector) ObserveReadDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.readSeconds.Observe(d.Seconds())
}

// Registry returns the collector's Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// registerer bundles the registry so metric construction stays terse.
type registerer struct {
	reg *prometheus.Registry
}

func promauto(reg *prometheus.Registry) registerer {
	return registerer{reg: reg}
}

func (r registerer) counter(opts prometheus.CounterOpts) prometheus.Counter {
	m := prometheus.NewCounter(opts)
	r.reg.MustRegister(m)
	return m
}

func (r registerer) counterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	m := prometheus.NewCounterVec(opts, labels)
	r.reg.MustRegister(m)
	return m
}

func (r registerer) histogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	m := prometheus.NewHistogram(opts)
	r.reg.MustRegister(m)
	return m
}
