// Package metrics exposes stats.Tracker metrics with Prometheus.
package metrics

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/bool64/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ stats.Tracker = &Tracker{}

// Tracker creates Prometheus counters and gauges on first use of a metric name.
//
// Label names of a metric are fixed by its first observation,
// observations with other label names are dropped.
type Tracker struct {
	namespace string
	registry  *prometheus.Registry

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

// NewTracker creates Tracker with a fresh registry including Go runtime and process collectors.
func NewTracker(namespace string) *Tracker {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Tracker{
		namespace: namespace,
		registry:  reg,
		counters:  make(map[string]*prometheus.CounterVec),
		gauges:    make(map[string]*prometheus.GaugeVec),
	}
}

// Registry returns underlying registry.
func (t *Tracker) Registry() *prometheus.Registry {
	return t.registry
}

// Handler serves metrics in Prometheus exposition format.
func (t *Tracker) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

func splitLabels(labelsAndValues []string) (names []string, labels prometheus.Labels) {
	labels = make(prometheus.Labels, len(labelsAndValues)/2)

	for i := 0; i+1 < len(labelsAndValues); i += 2 {
		labels[labelsAndValues[i]] = labelsAndValues[i+1]
	}

	names = make([]string, 0, len(labels))
	for n := range labels {
		names = append(names, n)
	}

	sort.Strings(names)

	return names, labels
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}

// Add increments a counter.
func (t *Tracker) Add(_ context.Context, name string, delta float64, labelsAndValues ...string) {
	if delta < 0 {
		return
	}

	names, labels := splitLabels(labelsAndValues)

	t.mu.Lock()

	vec, ok := t.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: t.namespace,
			Name:      metricName(name),
			Help:      name,
		}, names)

		if err := t.registry.Register(vec); err != nil {
			t.mu.Unlock()

			return
		}

		t.counters[name] = vec
	}

	t.mu.Unlock()

	if c, err := vec.GetMetricWith(labels); err == nil {
		c.Add(delta)
	}
}

// Set updates a gauge.
func (t *Tracker) Set(_ context.Context, name string, absolute float64, labelsAndValues ...string) {
	names, labels := splitLabels(labelsAndValues)

	t.mu.Lock()

	vec, ok := t.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: t.namespace,
			Name:      metricName(name),
			Help:      name,
		}, names)

		if err := t.registry.Register(vec); err != nil {
			t.mu.Unlock()

			return
		}

		t.gauges[name] = vec
	}

	t.mu.Unlock()

	if g, err := vec.GetMetricWith(labels); err == nil {
		g.Set(absolute)
	}
}
