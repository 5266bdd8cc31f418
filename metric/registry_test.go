package metric_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clickgo/swrouter/metric"
)

func TestNewRegistrySeedsCoreMetrics(t *testing.T) {
	reg := metric.NewRegistry()
	if reg.Core == nil {
		t.Fatal("expected NewRegistry to populate Core")
	}

	mfs, err := reg.PrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected at least the core metric families plus runtime collectors")
	}
}

func TestRegisterCounterRejectsDuplicateName(t *testing.T) {
	reg := metric.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "swrouter", Subsystem: "test", Name: "widgets_total", Help: "widgets",
	})
	if err := reg.RegisterCounter("src", "widgets", counter); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	dup := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "swrouter", Subsystem: "test", Name: "widgets_total", Help: "widgets",
	})
	if err := reg.RegisterCounter("src", "widgets", dup); err == nil {
		t.Fatal("expected duplicate registration under the same owner/name to fail")
	}
}

func TestUnregisterThenReregister(t *testing.T) {
	reg := metric.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "swrouter", Subsystem: "test", Name: "depth", Help: "depth",
	})
	if err := reg.RegisterGauge("q", "depth", gauge); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !reg.Unregister("q", "depth") {
		t.Fatal("expected Unregister to report success for a known metric")
	}
	if reg.Unregister("q", "depth") {
		t.Fatal("expected a second Unregister of the same metric to report failure")
	}

	again := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "swrouter", Subsystem: "test", Name: "depth", Help: "depth",
	})
	if err := reg.RegisterGauge("q", "depth", again); err != nil {
		t.Fatalf("re-register after unregister: %v", err)
	}
}

func TestCoreRecordHelpersDoNotPanic(t *testing.T) {
	reg := metric.NewRegistry()
	c := reg.Core

	c.RecordRouterState("r1", 3)
	c.RecordPacketDropped("q", "capacity")
	c.RecordPacketHandled("sink", "push")
	c.RecordHandlerInvocation("x", "value", "ok", 0)
	c.RecordTaskScheduled("thread-0")
	c.RecordTimerFired("thread-0")
	c.RecordQueueDepth("q", 2)
	c.RecordHotswap("accepted")

	mfs, err := reg.PrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "swrouter_router_hotswap_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected swrouter_router_hotswap_total in gathered metric families")
	}
}
