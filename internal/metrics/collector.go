// Package metrics exposes cache and codec outcomes as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-jsonform/pkg/codec"
	"github.com/goliatone/go-jsonform/pkg/formcache"
)

// Collector implements formcache.Observer and codec.Observer.
type Collector struct {
	cachePuts   *prometheus.CounterVec
	cacheGets   *prometheus.CounterVec
	renders     *prometheus.CounterVec
	validations *prometheus.CounterVec
}

var (
	_ formcache.Observer = (*Collector)(nil)
	_ codec.Observer     = (*Collector)(nil)
)

// NewCollector registers the counters on reg under namespace. A nil reg
// registers on the default registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if namespace == "" {
		namespace = "jsonform"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		cachePuts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_put_total",
				Help:      "Form snapshots written, by result.",
			},
			[]string{"result"},
		),
		cacheGets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_get_total",
				Help:      "Form snapshot lookups, by result.",
			},
			[]string{"result"},
		),
		renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "render_total",
				Help:      "Forms serialized, by form and result.",
			},
			[]string{"form", "result"},
		),
		validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_total",
				Help:      "Submissions validated, by form and outcome.",
			},
			[]string{"form", "outcome"},
		),
	}
}

// ObserveCachePut counts snapshot writes by outcome.
func (c *Collector) ObserveCachePut(err error) {
	c.cachePuts.WithLabelValues(result(err)).Inc()
}

// ObserveCacheGet counts snapshot reads as hit, miss or error.
func (c *Collector) ObserveCacheGet(hit bool, err error) {
	switch {
	case err != nil:
		c.cacheGets.WithLabelValues("error").Inc()
	case hit:
		c.cacheGets.WithLabelValues("hit").Inc()
	default:
		c.cacheGets.WithLabelValues("miss").Inc()
	}
}

// ObserveRender counts renders per form by outcome.
func (c *Collector) ObserveRender(form string, err error) {
	c.renders.WithLabelValues(form, result(err)).Inc()
}

// ObserveValidation counts submissions per form and validation outcome.
func (c *Collector) ObserveValidation(form, outcome string) {
	c.validations.WithLabelValues(form, outcome).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
