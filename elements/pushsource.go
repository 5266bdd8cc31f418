package elements

import (
	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
)

// PushSource is a push-only element driven directly by a caller (a test
// harness or the driver CLI) rather than by its own task, for scenarios
// that need exact control over emission count and timing (S2).
type PushSource struct {
	element.BaseElement
	ctx element.Context
}

// NewPushSource returns an unconfigured PushSource.
func NewPushSource() *PushSource {
	s := &PushSource{}
	s.SetSelf(s)
	return s
}

func (s *PushSource) InputPorts() int  { return 0 }
func (s *PushSource) OutputPorts() int { return 1 }

func (s *PushSource) PortDiscipline(dir port.Direction, index int) port.Discipline {
	if dir == port.Output {
		return port.Push
	}
	return port.Agnostic
}

func (s *PushSource) Initialize(ctx element.Context) error {
	s.ctx = ctx
	return nil
}

// Emit pushes n freshly allocated empty packets downstream, one call to
// the peer's Push per packet.
func (s *PushSource) Emit(n int) {
	for i := 0; i < n; i++ {
		element.Forward(s.ctx, 0, packet.New(0, 0))
	}
}
