package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-injector/framework/container"
)

// Collector records container activity as Prometheus metrics.
//
//	m := metrics.New(nil)
//	m.Observe(c)
//	router.Handle("/metrics", m.Handler())
type Collector struct {
	registry *prometheus.Registry

	makes    *prometheus.CounterVec
	duration prometheus.Histogram
	built    *prometheus.CounterVec
}

// New creates a Collector on reg, or on a fresh registry when reg is nil.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Collector{
		registry: reg,
		makes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "injector",
			Name:      "make_total",
			Help:      "Make calls by result and error kind.",
		}, []string{"result", "kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "injector",
			Name:      "make_duration_seconds",
			Help:      "Time spent in Make, lock wait included.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		built: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "injector",
			Name:      "instances_built_total",
			Help:      "Instances constructed, by requested type.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.makes, m.duration, m.built)
	return m
}

// Observe hooks the collector into c.
func (m *Collector) Observe(c *container.Container) {
	c.AfterMake(m.recordMake)
	c.AfterResolving(func(id container.TypeID, _ any) {
		m.built.WithLabelValues(string(id)).Inc()
	})
}

func (m *Collector) recordMake(ev container.MakeEvent) {
	m.duration.Observe(ev.Duration.Seconds())
	switch {
	case ev.Err != nil:
		m.makes.WithLabelValues("error", container.Kind(ev.Err)).Inc()
	case ev.Built == 0:
		m.makes.WithLabelValues("shared", "").Inc()
	default:
		m.makes.WithLabelValues("built", "").Inc()
	}
}

// Registry returns the underlying registry.
func (m *Collector) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
