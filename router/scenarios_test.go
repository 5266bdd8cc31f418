package router_test

import (
	"testing"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/elements"
	"github.com/clickgo/swrouter/master"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/router"
)

func scenarioClasses() map[string]router.Factory {
	return map[string]router.Factory{
		"Source":     func() element.Element { return elements.NewSource() },
		"Discard":    func() element.Element { return elements.NewDiscard() },
		"PushSource": func() element.Element { return elements.NewPushSource() },
		"Queue":      func() element.Element { return elements.NewQueue(2, elements.DropTail) },
		"PullSink":   func() element.Element { return elements.NewPullSink() },
		"PushOnly":   func() element.Element { return elements.NewPushOnly() },
		"PullOnly":   func() element.Element { return elements.NewPullOnly() },
		"Value":      func() element.Element { return elements.NewValue() },
		"Counter":    func() element.Element { return elements.NewCounter() },
	}
}

// S1: Source emits one packet per scheduler step; after 3 steps, the
// downstream Discard has counted exactly 3 and nothing remains runnable
// beyond what the source schedules.
func TestScenarioS1TaskDrivenSource(t *testing.T) {
	r := router.New("s1", scenarioClasses())
	decls := []router.ElementDecl{
		{Name: "src", Class: "Source"},
		{Name: "sink", Class: "Discard"},
	}
	conns := []router.ConnectionDecl{{FromElement: "src", FromPort: 0, ToElement: "sink", ToPort: 0}}
	if err := r.Build(decls, conns); err != nil {
		t.Fatalf("build: %v", err)
	}

	m := master.New(master.Options{Threads: 1})
	if err := m.Install(r); err != nil {
		t.Fatalf("install: %v", err)
	}

	sched := m.Threads()[0].TaskScheduler()
	for i := 0; i < 3; i++ {
		if !sched.RunOne() {
			t.Fatalf("scheduler step %d ran nothing", i)
		}
	}

	inst, ok := r.Lookup("sink")
	if !ok {
		t.Fatal("sink not found")
	}
	sink := inst.Impl.(*elements.Discard)
	if sink.Count() != 3 {
		t.Fatalf("expected sink count 3, got %d", sink.Count())
	}
}

// S2: a capacity-2 Queue between a directly driven push source and pull
// sink drops overflow and settles back to empty once drained.
func TestScenarioS2QueueBackpressure(t *testing.T) {
	r := router.New("s2", scenarioClasses())
	decls := []router.ElementDecl{
		{Name: "src", Class: "PushSource"},
		{Name: "q", Class: "Queue"},
		{Name: "sink", Class: "PullSink"},
	}
	conns := []router.ConnectionDecl{
		{FromElement: "src", FromPort: 0, ToElement: "q", ToPort: 0},
		{FromElement: "q", FromPort: 0, ToElement: "sink", ToPort: 0},
	}
	if err := r.Build(decls, conns); err != nil {
		t.Fatalf("build: %v", err)
	}

	m := master.New(master.Options{Threads: 1})
	if err := m.Install(r); err != nil {
		t.Fatalf("install: %v", err)
	}

	srcInst, _ := r.Lookup("src")
	src := srcInst.Impl.(*elements.PushSource)
	src.Emit(5)

	dropped, err := r.CallReadHandler("q.dropped")
	if err != nil {
		t.Fatalf("q.dropped: %v", err)
	}
	if dropped != "3" {
		t.Fatalf("expected 3 packets dropped (capacity 2, sent 5), got %q", dropped)
	}

	sinkInst, _ := r.Lookup("sink")
	sink := sinkInst.Impl.(*elements.PullSink)
	for i := 0; i < 2; i++ {
		if !sink.PullOnce() {
			t.Fatalf("pull %d found nothing", i)
		}
	}
	if sink.PullOnce() {
		t.Fatal("expected queue to be empty after draining the 2 surviving packets")
	}

	size, err := r.CallReadHandler("q.size")
	if err != nil {
		t.Fatalf("q.size: %v", err)
	}
	if size != "0" {
		t.Fatalf("expected queue size 0 after drain, got %q", size)
	}
}

// S3: connecting a fixed-push output to a fixed-pull input is a topology
// error caught by Configure's discipline resolution.
func TestScenarioS3DisciplineMismatch(t *testing.T) {
	r := router.New("s3", scenarioClasses())
	decls := []router.ElementDecl{
		{Name: "a", Class: "PushOnly"},
		{Name: "b", Class: "PullOnly"},
	}
	conns := []router.ConnectionDecl{{FromElement: "a", FromPort: 0, ToElement: "b", ToPort: 0}}
	if err := r.Build(decls, conns); err != nil {
		t.Fatalf("build: %v", err)
	}
	err := r.Configure()
	if err == nil {
		t.Fatal("expected a discipline mismatch error from Configure")
	}
}

// S4: hot-swapping in a router with a same-named Counter carries its
// count forward, and the outgoing router's elements are torn down.
func TestScenarioS4HotswapStateTransfer(t *testing.T) {
	classes := scenarioClasses()

	r1 := router.New("r1", classes)
	if err := r1.Build([]router.ElementDecl{{Name: "c", Class: "Counter"}}, nil); err != nil {
		t.Fatalf("build r1: %v", err)
	}

	m := master.New(master.Options{Threads: 1})
	if err := m.Install(r1); err != nil {
		t.Fatalf("install r1: %v", err)
	}

	c1Inst, _ := r1.Lookup("c")
	c1 := c1Inst.Impl.(*elements.Counter)
	for i := 0; i < 4; i++ {
		c1.SimpleAction(packet.New(0, 0))
	}
	if c1.Count() != 4 {
		t.Fatalf("expected r1 counter at 4, got %d", c1.Count())
	}

	r2 := router.New("r1", classes)
	decls := []router.ElementDecl{
		{Name: "c", Class: "Counter"},
		{Name: "c2", Class: "Counter"},
	}
	if err := r2.Build(decls, nil); err != nil {
		t.Fatalf("build r2: %v", err)
	}

	if err := m.Hotswap(r2); err != nil {
		t.Fatalf("hotswap: %v", err)
	}

	if m.Active() != r2 {
		t.Fatal("expected r2 to be active after hotswap")
	}
	if r1.State() != router.StateDestroyed {
		t.Fatalf("expected r1 torn down after hotswap, got %s", r1.State())
	}

	c2Inst, ok := r2.Lookup("c")
	if !ok {
		t.Fatal("r2 missing element c")
	}
	c2 := c2Inst.Impl.(*elements.Counter)
	if c2.Count() != 4 {
		t.Fatalf("expected c's count to carry over as 4, got %d", c2.Count())
	}

	if _, ok := r2.Lookup("c2"); !ok {
		t.Fatal("r2 missing newly added element c2")
	}
}

// S5: a handler-only element answers its registered read handler exactly,
// and an unknown handler name is reported as handler-not-found.
func TestScenarioS5HandlerInvocation(t *testing.T) {
	r := router.New("s5", scenarioClasses())
	if err := r.Build([]router.ElementDecl{{Name: "x", Class: "Value"}}, nil); err != nil {
		t.Fatalf("build: %v", err)
	}
	m := master.New(master.Options{Threads: 1})
	if err := m.Install(r); err != nil {
		t.Fatalf("install: %v", err)
	}

	v, err := r.CallReadHandler("x.value")
	if err != nil {
		t.Fatalf("x.value: %v", err)
	}
	if v != "7" {
		t.Fatalf("expected x.value -> 7, got %q", v)
	}

	if _, err := r.CallReadHandler("x.nope"); err == nil {
		t.Fatal("expected handler-not-found error for x.nope")
	}
}
