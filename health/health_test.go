package health

import "testing"

func TestAggregateAllHealthy(t *testing.T) {
	agg := Aggregate("router0", []Status{
		NewHealthy("src", "ok"),
		NewHealthy("sink", "ok"),
	})
	if !agg.IsHealthy() {
		t.Errorf("expected healthy aggregate, got %s", agg.Status)
	}
	if len(agg.SubStatuses) != 2 {
		t.Errorf("expected 2 sub-statuses, got %d", len(agg.SubStatuses))
	}
}

func TestAggregateUnhealthyWins(t *testing.T) {
	agg := Aggregate("router0", []Status{
		NewHealthy("src", "ok"),
		NewDegraded("queue", "near full"),
		NewUnhealthy("sink", "stalled"),
	})
	if !agg.IsUnhealthy() {
		t.Errorf("expected unhealthy to dominate, got %s", agg.Status)
	}
}

func TestAggregateDegradedBeatsHealthy(t *testing.T) {
	agg := Aggregate("router0", []Status{
		NewHealthy("src", "ok"),
		NewDegraded("queue", "near full"),
	})
	if !agg.IsDegraded() {
		t.Errorf("expected degraded aggregate, got %s", agg.Status)
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := Aggregate("router0", nil)
	if !agg.IsHealthy() {
		t.Error("aggregate with no sub-statuses should be healthy")
	}
}

func TestMonitorUpdateGetRemove(t *testing.T) {
	m := NewMonitor()
	m.UpdateHealthy("src", "running")
	m.UpdateDegraded("queue", "near full")

	if m.Count() != 2 {
		t.Fatalf("expected 2 elements, got %d", m.Count())
	}

	st, ok := m.Get("src")
	if !ok || !st.IsHealthy() {
		t.Error("expected src to be healthy")
	}

	agg := m.AggregateHealth("router0")
	if !agg.IsDegraded() {
		t.Errorf("expected degraded aggregate, got %s", agg.Status)
	}

	m.Remove("queue")
	if m.Count() != 1 {
		t.Fatalf("expected 1 element after remove, got %d", m.Count())
	}

	m.Clear()
	if m.Count() != 0 {
		t.Fatal("expected 0 elements after clear")
	}
}

func TestMonitorListElements(t *testing.T) {
	m := NewMonitor()
	m.UpdateHealthy("a", "")
	m.UpdateHealthy("b", "")

	names := m.ListElements()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(names))
	}
}
