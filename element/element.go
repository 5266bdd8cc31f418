// Package element defines the contract every processing node in a router
// implements (§4.1): configuration, initialization, cleanup, the two
// packet entry points (push/pull), and a named handler registry.
package element

import (
	"github.com/clickgo/swrouter/notify"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
	"github.com/clickgo/swrouter/task"
	"github.com/clickgo/swrouter/timer"
)

// Stage names how far an element's lifecycle got before teardown, so
// Cleanup can mirror exactly what Initialize/activation did.
type Stage int

const (
	StageConfigure Stage = iota
	StageInitialize
	StageActive
)

// Element is the capability set every node in the graph exposes. New
// element types are added by registering a Factory, not by subclassing:
// the contract is expressed as an interface plus BaseElement, not a class
// hierarchy.
type Element interface {
	// InputPorts and OutputPorts declare this element's fixed port counts,
	// consulted while building the graph and before Configure runs.
	InputPorts() int
	OutputPorts() int

	// PortDiscipline declares the discipline this element wants for one of
	// its own ports, prior to resolution (§4.2). Most elements return
	// port.Agnostic and let their peer decide.
	PortDiscipline(dir port.Direction, index int) port.Discipline

	// Configure idempotently parses args into internal fields. Must not
	// touch peers.
	Configure(args []string) error

	// Initialize is called after topology is frozen and every element's
	// Configure succeeded. It may look up peers, schedule tasks, arm
	// timers, and acquire resources through ctx.
	Initialize(ctx Context) error

	// Cleanup runs in reverse construction order; stage names how far
	// this element got before teardown began.
	Cleanup(stage Stage)

	// Push is called when a peer pushes into input port. The element
	// takes ownership of pkt; it must consume, forward, or free it before
	// returning. Push never blocks.
	Push(port int, pkt *packet.Packet)

	// Pull is called when a downstream element requests a packet from
	// output port. A nil return means "nothing now". Pull never blocks.
	Pull(port int) *packet.Packet

	// AddHandlers registers this element's named read/write handlers.
	AddHandlers(reg *HandlerRegistry)
}

// SimpleActioner is implemented by agnostic 1-in/1-out elements as a
// shorthand; the runtime (via BaseElement's default Push/Pull) wraps it as
// push or pull depending on the port's resolved discipline.
type SimpleActioner interface {
	SimpleAction(pkt *packet.Packet) *packet.Packet
}

// StateReceiver is an optional hook for hot-swap state transfer (§4.6): a
// new element may recover state from the same-named predecessor. It is
// purely advisory and has no required behavior.
type StateReceiver interface {
	TakeStateFrom(old Element)
}

// PeerRef names one element on the other side of a connection, together
// with that peer's own port index — a connection's discipline is
// per-connection, but a single port can have more than one connection
// (push fan-out from one output, or fan-in into one push input; §3).
type PeerRef struct {
	Element Element
	Port    int
}

// Context is the narrow surface a router exposes to an element during
// Initialize, kept separate from the Element interface itself so element
// never needs to import router (the router implements Context).
type Context interface {
	// Name returns this element's instance name.
	Name() string

	// Peers returns every element connected to the given local port in the
	// given direction. A pull connection always resolves to exactly one
	// peer per port; a push output may fan out to several inputs.
	Peers(dir port.Direction, index int) []PeerRef

	// Scheduler returns the task scheduler for this element's home thread.
	Scheduler() *task.Scheduler

	// Timers returns the timer wheel for this element's home thread.
	Timers() *timer.Wheel

	// Signal looks up (creating if absent) a named notifier signal shared
	// between this element and its peers.
	Signal(name string) *notify.Signal
}
