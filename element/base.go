package element

import (
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
)

// BaseElement is embedded by concrete element types to get no-op defaults
// for every Element method plus the SimpleAction wrapping contract: if the
// embedding type also implements SimpleActioner, BaseElement's Push/Pull
// call it and forward the result through output/input port 0, matching
// "the runtime wraps simple_action as push or pull depending on resolved
// discipline" without requiring every 1-in/1-out element to hand-write
// both entry points.
//
// A concrete type must call SetSelf(it) — typically in its constructor —
// for the SimpleAction delegation to take effect, and should call
// base.BaseElement.Initialize(ctx) (or embed it directly in an overriding
// Initialize) so Push/Pull can reach peers.
type BaseElement struct {
	self Element
	ctx  Context
}

// SetSelf records the concrete element value embedding this BaseElement,
// so default Push/Pull can look for a SimpleActioner implementation on it.
func (b *BaseElement) SetSelf(self Element) {
	b.self = self
}

// InputPorts defaults to one input; agnostic 1-in/1-out elements built on
// SimpleActioner need nothing more. Elements with other port counts
// override this.
func (b *BaseElement) InputPorts() int { return 1 }

// OutputPorts defaults to one output, mirroring InputPorts.
func (b *BaseElement) OutputPorts() int { return 1 }

// PortDiscipline defaults every port to agnostic, letting the peer's
// declaration (or a further peer, transitively) decide the resolved
// discipline.
func (b *BaseElement) PortDiscipline(dir port.Direction, index int) port.Discipline {
	return port.Agnostic
}

// Configure is a no-op default; elements with configuration fields override it.
func (b *BaseElement) Configure(args []string) error { return nil }

// Initialize records ctx for use by the default Push/Pull forwarding.
// Elements that override Initialize to do real work should still call
// this (or embed its effect) so SimpleAction forwarding keeps working.
func (b *BaseElement) Initialize(ctx Context) error {
	b.ctx = ctx
	return nil
}

// Cleanup is a no-op default.
func (b *BaseElement) Cleanup(stage Stage) {}

// AddHandlers is a no-op default; most elements still override it to
// expose at least one handler.
func (b *BaseElement) AddHandlers(reg *HandlerRegistry) {}

// Push calls SimpleAction (if the embedding element implements it) on pkt
// and forwards any result to output port 0; elements that are push-only
// without a SimpleAction override Push directly instead of relying on
// this default.
func (b *BaseElement) Push(inPort int, pkt *packet.Packet) {
	sa, ok := b.self.(SimpleActioner)
	if !ok {
		pkt.Kill()
		return
	}
	if out := sa.SimpleAction(pkt); out != nil {
		b.forward(0, out)
	}
}

// Pull requests a packet from input port 0, runs SimpleAction over it (if
// implemented), and returns the result; elements that are pull-only
// without a SimpleAction override Pull directly instead of relying on
// this default.
func (b *BaseElement) Pull(outPort int) *packet.Packet {
	sa, ok := b.self.(SimpleActioner)
	if !ok {
		return nil
	}
	in := PullFrom(b.ctx, 0)
	if in == nil {
		return nil
	}
	return sa.SimpleAction(in)
}

// forward delivers pkt to the peer connected to local output outPort,
// killing it if there is nowhere to send it (a dangling output would have
// already failed topology resolution, so this is a defensive fallback).
func (b *BaseElement) forward(outPort int, pkt *packet.Packet) {
	Forward(b.ctx, outPort, pkt)
}
