package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Core holds the platform-level metrics common to every router instance.
// Element-specific metrics (e.g. a RateLimitedSource's token-bucket
// rejections) are registered separately by the owning element via
// Registrar, keyed by the element's own name.
type Core struct {
	RouterState        *prometheus.GaugeVec
	PacketsDropped      *prometheus.CounterVec
	PacketsHandled       *prometheus.CounterVec
	HandlerInvocations *prometheus.CounterVec
	HandlerDuration    *prometheus.HistogramVec
	TasksScheduled     *prometheus.CounterVec
	TimersFired        *prometheus.CounterVec
	QueueDepth         *prometheus.GaugeVec
	HotswapTotal       *prometheus.CounterVec
}

// NewCore constructs the core metric set. Values are set by the router and
// master lifecycle code as state transitions occur.
func NewCore() *Core {
	return &Core{
		RouterState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "swrouter",
				Subsystem: "router",
				Name:      "state",
				Help:      "Router lifecycle state (0=parsed,1=configured,2=initialized,3=running,4=stopping,5=stopped,6=destroyed)",
			},
			[]string{"router"},
		),
		PacketsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "swrouter",
				Subsystem: "packet",
				Name:      "dropped_total",
				Help:      "Total packets dropped, by element and reason",
			},
			[]string{"element", "reason"},
		),
		PacketsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "swrouter",
				Subsystem: "packet",
				Name:      "handled_total",
				Help:      "Total packets pushed or pulled through an element's data-plane entry point",
			},
			[]string{"element", "direction"},
		),
		HandlerInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "swrouter",
				Subsystem: "handler",
				Name:      "invocations_total",
				Help:      "Total handler read/write invocations, by element, handler name, and outcome",
			},
			[]string{"element", "handler", "outcome"},
		),
		HandlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "swrouter",
				Subsystem: "handler",
				Name:      "duration_seconds",
				Help:      "Handler callback latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"element", "handler"},
		),
		TasksScheduled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "swrouter",
				Subsystem: "task",
				Name:      "scheduled_total",
				Help:      "Total task scheduler enqueues, by owning thread",
			},
			[]string{"thread"},
		),
		TimersFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "swrouter",
				Subsystem: "timer",
				Name:      "fired_total",
				Help:      "Total timers fired, by owning thread",
			},
			[]string{"thread"},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "swrouter",
				Subsystem: "queue",
				Name:      "depth",
				Help:      "Current occupancy of a Queue element",
			},
			[]string{"element"},
		),
		HotswapTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "swrouter",
				Subsystem: "router",
				Name:      "hotswap_total",
				Help:      "Total hot-swap attempts, by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRouterState updates the router lifecycle-state gauge.
func (c *Core) RecordRouterState(router string, state int) {
	c.RouterState.WithLabelValues(router).Set(float64(state))
}

// RecordPacketDropped increments the drop counter for an element and reason.
func (c *Core) RecordPacketDropped(element, reason string) {
	c.PacketsDropped.WithLabelValues(element, reason).Inc()
}

// RecordPacketHandled increments the handled counter for an element and direction.
func (c *Core) RecordPacketHandled(element, direction string) {
	c.PacketsHandled.WithLabelValues(element, direction).Inc()
}

// RecordHandlerInvocation records a handler call's outcome and latency.
func (c *Core) RecordHandlerInvocation(element, handler, outcome string, duration time.Duration) {
	c.HandlerInvocations.WithLabelValues(element, handler, outcome).Inc()
	c.HandlerDuration.WithLabelValues(element, handler).Observe(duration.Seconds())
}

// RecordTaskScheduled increments the scheduler enqueue counter for a thread.
func (c *Core) RecordTaskScheduled(thread string) {
	c.TasksScheduled.WithLabelValues(thread).Inc()
}

// RecordTimerFired increments the timer-fired counter for a thread.
func (c *Core) RecordTimerFired(thread string) {
	c.TimersFired.WithLabelValues(thread).Inc()
}

// RecordQueueDepth sets the current depth gauge for a Queue element.
func (c *Core) RecordQueueDepth(element string, depth int) {
	c.QueueDepth.WithLabelValues(element).Set(float64(depth))
}

// RecordHotswap increments the hot-swap outcome counter ("accepted" or "rejected").
func (c *Core) RecordHotswap(outcome string) {
	c.HotswapTotal.WithLabelValues(outcome).Inc()
}
