// Package metrics exports view lifecycle metrics to Prometheus.
//
// Metrics collected:
//   - figura_views_created_total: Counter of constructed views by class
//   - figura_views_removed_total: Counter of removed views by class
//   - figura_active_views: Gauge of views created and not yet removed
//   - figura_delegated_listeners: Gauge of listeners attached to roots
//   - figura_events_handled_total: Counter of delegated handler runs
//   - figura_diff_renders_total: Counter of diff renders by mode and status
//   - figura_diff_render_duration_seconds: Histogram of diff render time
//   - figura_diff_mutations: Histogram of DOM mutations per diff render
//
// Example:
//
//	obs := metrics.New(metrics.WithNamespace("myapp"))
//	v := view.New(view.Config{El: "#app", Document: doc, Observer: obs})
//
//	http.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/figura-dev/figura/pkg/view"
)

// Config configures the Prometheus observer.
type Config struct {
	// Namespace is the metrics namespace (default: "figura").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "figura",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer records view lifecycle notifications as Prometheus metrics.
// It implements view.Observer.
type Observer struct {
	viewsCreated   *prometheus.CounterVec
	viewsRemoved   *prometheus.CounterVec
	activeViews    prometheus.Gauge
	listeners      prometheus.Gauge
	eventsHandled  *prometheus.CounterVec
	diffRenders    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	mutations      prometheus.Histogram

	now func() time.Time
}

var _ view.Observer = (*Observer)(nil)

// New registers the metrics and returns an observer. Registering twice
// against the same registry panics, as promauto does.
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Observer{
		viewsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "views_created_total",
			Help:        "Total number of views constructed",
			ConstLabels: config.ConstLabels,
		}, []string{"class"}),

		viewsRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "views_removed_total",
			Help:        "Total number of views removed",
			ConstLabels: config.ConstLabels,
		}, []string{"class"}),

		activeViews: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_views",
			Help:        "Number of views constructed and not yet removed",
			ConstLabels: config.ConstLabels,
		}),

		listeners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "delegated_listeners",
			Help:        "Number of delegated listeners attached to view roots",
			ConstLabels: config.ConstLabels,
		}),

		eventsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_handled_total",
			Help:        "Total number of delegated handler invocations",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		diffRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diff_renders_total",
			Help:        "Total number of diff renders",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diff_render_duration_seconds",
			Help:        "Time from diff render request to completion in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		mutations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diff_mutations",
			Help:        "DOM mutations applied per diff render",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 6), // 1 to 1024
		}),

		now: time.Now,
	}
}

func (o *Observer) ViewCreated(v *view.View) {
	o.viewsCreated.WithLabelValues(v.ClassName()).Inc()
	o.activeViews.Inc()
}

func (o *Observer) ViewRemoved(v *view.View) {
	o.viewsRemoved.WithLabelValues(v.ClassName()).Inc()
	o.activeViews.Dec()
}

func (o *Observer) EventDelegated(*view.View, string, string) {
	o.listeners.Inc()
}

func (o *Observer) EventUndelegated(*view.View, string, string) {
	o.listeners.Dec()
}

func (o *Observer) EventHandled(_ *view.View, event, _ string) {
	o.eventsHandled.WithLabelValues(event).Inc()
}

func (o *Observer) DiffRender(_ *view.View, fromTemplate bool) func(int, error) {
	mode := "inner"
	if fromTemplate {
		mode = "template"
	}
	start := o.now()
	return func(mutations int, err error) {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.diffRenders.WithLabelValues(mode, status).Inc()
		o.renderDuration.WithLabelValues(mode).Observe(o.now().Sub(start).Seconds())
		if err == nil {
			o.mutations.Observe(float64(mutations))
		}
	}
}
