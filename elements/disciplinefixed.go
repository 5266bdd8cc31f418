package elements

import (
	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
)

// PushOnly declares a single output port with a fixed push discipline and
// nothing else: it exists to exercise discipline-mismatch rejection (S3),
// not to run.
type PushOnly struct{ element.BaseElement }

// NewPushOnly returns an unconfigured PushOnly.
func NewPushOnly() *PushOnly {
	e := &PushOnly{}
	e.SetSelf(e)
	return e
}

func (e *PushOnly) InputPorts() int  { return 0 }
func (e *PushOnly) OutputPorts() int { return 1 }

func (e *PushOnly) PortDiscipline(dir port.Direction, index int) port.Discipline {
	if dir == port.Output {
		return port.Push
	}
	return port.Agnostic
}

func (e *PushOnly) Push(inPort int, pkt *packet.Packet) { pkt.Kill() }

// PullOnly declares a single input port with a fixed pull discipline and
// nothing else, the mirror image of PushOnly (S3).
type PullOnly struct{ element.BaseElement }

// NewPullOnly returns an unconfigured PullOnly.
func NewPullOnly() *PullOnly {
	e := &PullOnly{}
	e.SetSelf(e)
	return e
}

func (e *PullOnly) InputPorts() int  { return 1 }
func (e *PullOnly) OutputPorts() int { return 0 }

func (e *PullOnly) PortDiscipline(dir port.Direction, index int) port.Discipline {
	if dir == port.Input {
		return port.Pull
	}
	return port.Agnostic
}

func (e *PullOnly) Pull(outPort int) *packet.Packet { return nil }
