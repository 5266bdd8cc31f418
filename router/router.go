// Package router holds the element graph, orchestrates its lifecycle, and
// dispatches packets between connected ports (§4.6, ≈18% of the core). A
// Router is built from element declarations and connection declarations,
// resolved into a fixed discipline assignment, initialized, and then either
// activated under a master or handed off via hot-swap.
package router

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/errors"
	"github.com/clickgo/swrouter/health"
	"github.com/clickgo/swrouter/notify"
	"github.com/clickgo/swrouter/port"
	"github.com/clickgo/swrouter/task"
	"github.com/clickgo/swrouter/timer"
)

// State is the router's own position in its lifecycle, distinct from the
// per-element State tracked in element.Instance.
type State int

const (
	StateParsed State = iota
	StateConfigured
	StateInitialized
	StateRunning
	StateStopping
	StateStopped
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateConfigured:
		return "configured"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// StopRuncount is the sentinel value Stop assigns, deep enough into
// negative territory that an in-flight decrement (a task noticing the
// stop mid-iteration) can never accidentally carry it back to zero.
const StopRuncount int64 = -1 << 32

// ElementDecl is one element declaration: an instance name, the factory
// class name it is built from, and the raw configuration arguments the
// class's Configure receives.
type ElementDecl struct {
	Name       string
	Class      string
	ConfigArgs []string
}

// ConnectionDecl is one connection declaration in (element, port) form.
type ConnectionDecl struct {
	FromElement string
	FromPort    int
	ToElement   string
	ToPort      int
}

// Factory constructs a fresh, unconfigured Element for a registered class
// name.
type Factory func() element.Element

// Router is the element graph plus its lifecycle bookkeeping. Each element
// receives its own element.Context (a per-element routerContext) at
// Initialize, through which it reaches its peers, home thread, and named
// signals without importing this package.
type Router struct {
	Name string

	// Generation identifies this particular Router value across a hot-swap
	// sequence: two Routers built from the same config text still get
	// distinct Generations, so logs and metrics can tell which install a
	// given element/task/timer event belongs to.
	Generation uuid.UUID

	classes map[string]Factory

	mu          sync.RWMutex
	state       State
	elements    []*element.Instance
	byName      map[string]*element.Instance
	ports       []*port.Port
	portIndex   map[portKey]*port.Port
	connections []*port.Connection
	runcount    atomic.Int64

	rootHandlers *element.HandlerRegistry
	health       *health.Monitor

	signalsMu sync.Mutex
	signals   map[string]*notify.Signal

	// thread is this router's home execution thread, assigned when the
	// router is installed under a master. It is an interface to avoid a
	// router -> master import cycle (master already imports router).
	thread Thread
}

// Thread is the narrow surface a router needs from its home execution
// thread: the per-thread task scheduler and timer wheel. master.Thread
// implements it.
type Thread interface {
	TaskScheduler() *task.Scheduler
	TimerWheel() *timer.Wheel
}

type portKey struct {
	element string
	dir     port.Direction
	index   int
}

// New creates an empty, unconfigured Router with the given class registry.
func New(name string, classes map[string]Factory) *Router {
	r := &Router{
		Name:         name,
		Generation:   uuid.New(),
		classes:      classes,
		byName:       make(map[string]*element.Instance),
		portIndex:    make(map[portKey]*port.Port),
		rootHandlers: element.NewHandlerRegistry(),
		health:       health.NewMonitor(),
		signals:      make(map[string]*notify.Signal),
		state:        StateParsed,
	}
	r.runcount.Store(1)
	r.installRootHandlers()
	return r
}

// Build populates the router from external declarations (§6: "the core
// consumes a list of (instance_name, class_name, config_string)
// declarations and a list of (from_instance, from_port, to_instance,
// to_port) connections"). It must be called before Configure.
func (r *Router) Build(elements []ElementDecl, conns []ConnectionDecl) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, decl := range elements {
		if _, exists := r.byName[decl.Name]; exists {
			return errors.WrapTopology(errors.ErrDuplicateName, "Router", "Build", decl.Name)
		}
		factory, ok := r.classes[decl.Class]
		if !ok {
			return errors.WrapTopology(errors.ErrUnknownClass, "Router", "Build", decl.Class)
		}
		impl := factory()
		if setter, ok := impl.(selfSetter); ok {
			setter.SetSelf(impl)
		}
		inst := element.NewInstance(i, decl.Name, decl.Class, decl.ConfigArgs, impl)
		r.elements = append(r.elements, inst)
		r.byName[decl.Name] = inst

		for p := 0; p < impl.InputPorts(); p++ {
			r.declarePort(decl.Name, port.Input, p, impl.PortDiscipline(port.Input, p))
		}
		for p := 0; p < impl.OutputPorts(); p++ {
			r.declarePort(decl.Name, port.Output, p, impl.PortDiscipline(port.Output, p))
		}
	}

	for _, c := range conns {
		conn := &port.Connection{
			FromElement: c.FromElement,
			FromPort:    c.FromPort,
			ToElement:   c.ToElement,
			ToPort:      c.ToPort,
		}
		r.connections = append(r.connections, conn)
	}

	return nil
}

// selfSetter is implemented by element.BaseElement; Build calls it so
// SimpleAction delegation works without every class remembering to.
type selfSetter interface {
	SetSelf(element.Element)
}

func (r *Router) declarePort(name string, dir port.Direction, index int, declared port.Discipline) {
	key := portKey{element: name, dir: dir, index: index}
	if _, exists := r.portIndex[key]; exists {
		return
	}
	p := &port.Port{Element: name, Dir: dir, Index: index, Declared: declared}
	r.ports = append(r.ports, p)
	r.portIndex[key] = p
}

// Configure runs every element's Configure and then resolves port
// disciplines (§4.2), per the parsed -> configured transition.
func (r *Router) Configure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateParsed {
		return errors.WrapFatalInternal(fmt.Errorf("Configure called in state %s", r.state), "Router", "Configure", r.Name)
	}

	var errs []error
	for _, inst := range r.elements {
		if err := inst.Impl.Configure(inst.ConfigArgs); err != nil {
			wrapped := errors.WrapConfigSemantics(err, inst.Name, "Configure", inst.Class)
			inst.SetLastError(wrapped)
			errs = append(errs, wrapped)
			continue
		}
		inst.SetState(element.StateConfigured)
	}
	if combined := errors.Combine("router configure", errs); combined != nil {
		return combined
	}

	if err := port.Resolve(r.ports, r.connections); err != nil {
		return err
	}

	r.state = StateConfigured
	return nil
}

// Initialize runs every element's Initialize in construction order, per
// the configured -> initialized transition. On any failure, already
// initialized elements are cleaned up in reverse order before the error
// is returned, so a failed installation leaves nothing half-started.
func (r *Router) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateConfigured {
		return errors.WrapFatalInternal(fmt.Errorf("Initialize called in state %s", r.state), "Router", "Initialize", r.Name)
	}

	for i, inst := range r.elements {
		ctx := &routerContext{router: r, self: inst}
		if err := inst.Impl.Initialize(ctx); err != nil {
			wrapped := errors.WrapInitialize(err, inst.Name, "Initialize", inst.Class)
			inst.SetLastError(wrapped)
			r.cleanupLocked(i - 1)
			return wrapped
		}
		inst.SetState(element.StateInitialized)
		inst.Impl.AddHandlers(inst.Handlers)
		r.health.UpdateHealthy(inst.Name, "initialized")
	}

	r.state = StateInitialized
	return nil
}

// cleanupLocked tears down elements [0, upTo] in reverse order. Callers
// must already hold r.mu.
func (r *Router) cleanupLocked(upTo int) {
	for i := upTo; i >= 0; i-- {
		inst := r.elements[i]
		func() {
			defer func() { _ = recover() }()
			inst.Impl.Cleanup(element.StageInitialize)
		}()
		inst.SetState(element.StateCleaningUp)
	}
}

// Activate marks the router running, the final transition before its
// tasks and pull chains start being driven by a thread's run loop.
func (r *Router) Activate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateInitialized {
		return errors.WrapFatalInternal(fmt.Errorf("Activate called in state %s", r.state), "Router", "Activate", r.Name)
	}
	for _, inst := range r.elements {
		inst.SetState(element.StateActive)
	}
	r.state = StateRunning
	return nil
}

// Stop sets the runcount to StopRuncount (§5: "graceful shutdown sets
// runcount <= 0"), which every cooperative task and pull loop is expected
// to observe and stop rescheduling itself on.
func (r *Router) Stop() {
	r.runcount.Store(StopRuncount)
	r.mu.Lock()
	if r.state == StateRunning {
		r.state = StateStopping
	}
	r.mu.Unlock()
}

// Runcount returns the current runcount; a value <= 0 means the router
// has been asked to stop.
func (r *Router) Runcount() int64 { return r.runcount.Load() }

// Teardown runs Cleanup on every element in reverse construction order,
// passing each the stage it actually reached, and transitions to
// destroyed. Safe to call once the router has stopped.
func (r *Router) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.elements) - 1; i >= 0; i-- {
		inst := r.elements[i]
		stage, done := stageReached(inst.State())
		if !done {
			func() {
				defer func() { _ = recover() }()
				inst.Impl.Cleanup(stage)
			}()
		}
		inst.SetState(element.StateDestroyed)
	}
	r.state = StateDestroyed
}

// stageReached maps an element's lifecycle state to the element.Stage its
// Cleanup should mirror, so a router that never reached activation (or
// failed partway through it) doesn't get told it was fully active. done is
// true for a state that already ran through cleanup, in which case
// Teardown must not call Cleanup a second time.
func stageReached(state element.State) (stage element.Stage, done bool) {
	switch state {
	case element.StateInitialized:
		return element.StageInitialize, false
	case element.StateActive:
		return element.StageActive, false
	case element.StateCleaningUp, element.StateDestroyed:
		return element.StageActive, true
	default:
		return element.StageConfigure, false
	}
}

// State returns the router's current lifecycle state.
func (r *Router) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// SetThread assigns this router's home execution thread; called by
// master when the router is installed.
func (r *Router) SetThread(t Thread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thread = t
}

// Health returns the router's aggregated element health (§4.7's health
// handler).
func (r *Router) Health() health.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.health.AggregateHealth(r.Name)
}

// ElementNames returns every element's instance name in construction order.
func (r *Router) ElementNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.elements))
	for i, inst := range r.elements {
		names[i] = inst.Name
	}
	return names
}

// Classes returns a copy of this router's class registry, so a hot-swap
// driver can build a replacement router against the same factories.
func (r *Router) Classes() map[string]Factory {
	out := make(map[string]Factory, len(r.classes))
	for k, v := range r.classes {
		out[k] = v
	}
	return out
}

// Lookup returns the named element instance, if any.
func (r *Router) Lookup(name string) (*element.Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byName[name]
	return inst, ok
}
