// Package metric provides a Prometheus-backed metrics registry for the
// router core: elements and the master always update plain atomic counters
// themselves, and optionally mirror them here when a registry is attached.
package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/clickgo/swrouter/errors"
)

// Registrar is the subset of Registry an element or scheduler component
// needs in order to export its own metrics without depending on the whole
// registry type.
type Registrar interface {
	RegisterCounter(owner, name string, counter prometheus.Counter) error
	RegisterGauge(owner, name string, gauge prometheus.Gauge) error
	RegisterHistogram(owner, name string, histogram prometheus.Histogram) error
	RegisterCounterVec(owner, name string, counterVec *prometheus.CounterVec) error
	RegisterGaugeVec(owner, name string, gaugeVec *prometheus.GaugeVec) error
	RegisterHistogramVec(owner, name string, histogramVec *prometheus.HistogramVec) error
	Unregister(owner, name string) bool
}

// Registry manages the registration and lifecycle of router metrics. It is
// optional: a Router or Master runs perfectly well with a nil *Registry,
// since every component keeps its own atomic counters regardless.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Core               *Core
	registered         map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewRegistry creates a metrics registry seeded with the core router
// metrics plus the Go runtime/process collectors.
func NewRegistry() *Registry {
	promReg := prometheus.NewRegistry()

	r := &Registry{
		prometheusRegistry: promReg,
		registered:         make(map[string]prometheus.Collector),
	}

	r.Core = NewCore()
	r.registerCore()

	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry, for wiring
// into promhttp.Handler.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

func (r *Registry) key(owner, name string) string {
	return fmt.Sprintf("%s.%s", owner, name)
}

func (r *Registry) register(owner, name string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(owner, name)
	if _, exists := r.registered[key]; exists {
		return errors.WrapConfigSemantics(
			fmt.Errorf("metric %s already registered for %s", name, owner),
			"metric.Registry", "register", key)
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var dup prometheus.AlreadyRegisteredError
		if stderrors.As(err, &dup) {
			return errors.WrapConfigSemantics(err, "metric.Registry", "register", key)
		}
		return errors.WrapFatalInternal(err, "metric.Registry", "register", key)
	}

	r.registered[key] = collector
	return nil
}

// RegisterCounter registers a counter metric for owner.
func (r *Registry) RegisterCounter(owner, name string, counter prometheus.Counter) error {
	return r.register(owner, name, counter)
}

// RegisterGauge registers a gauge metric for owner.
func (r *Registry) RegisterGauge(owner, name string, gauge prometheus.Gauge) error {
	return r.register(owner, name, gauge)
}

// RegisterHistogram registers a histogram metric for owner.
func (r *Registry) RegisterHistogram(owner, name string, histogram prometheus.Histogram) error {
	return r.register(owner, name, histogram)
}

// RegisterCounterVec registers a counter vector metric for owner.
func (r *Registry) RegisterCounterVec(owner, name string, counterVec *prometheus.CounterVec) error {
	return r.register(owner, name, counterVec)
}

// RegisterGaugeVec registers a gauge vector metric for owner.
func (r *Registry) RegisterGaugeVec(owner, name string, gaugeVec *prometheus.GaugeVec) error {
	return r.register(owner, name, gaugeVec)
}

// RegisterHistogramVec registers a histogram vector metric for owner.
func (r *Registry) RegisterHistogramVec(owner, name string, histogramVec *prometheus.HistogramVec) error {
	return r.register(owner, name, histogramVec)
}

// Unregister removes a previously registered metric.
func (r *Registry) Unregister(owner, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(owner, name)
	collector, exists := r.registered[key]
	if !exists {
		return false
	}

	if r.prometheusRegistry.Unregister(collector) {
		delete(r.registered, key)
		return true
	}
	return false
}

func (r *Registry) registerCore() {
	r.prometheusRegistry.MustRegister(
		r.Core.RouterState,
		r.Core.PacketsDropped,
		r.Core.PacketsHandled,
		r.Core.HandlerInvocations,
		r.Core.HandlerDuration,
		r.Core.TasksScheduled,
		r.Core.TimersFired,
		r.Core.QueueDepth,
		r.Core.HotswapTotal,
	)
}
