package elements

import (
	"fmt"
	"sync/atomic"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/port"
)

// PullSink is a pull-only terminal element driven directly by a caller:
// each PullOnce call requests one packet from upstream, counting it if
// one arrives (S2).
type PullSink struct {
	element.BaseElement
	ctx   element.Context
	count int64
}

// NewPullSink returns an unconfigured PullSink.
func NewPullSink() *PullSink {
	s := &PullSink{}
	s.SetSelf(s)
	return s
}

func (s *PullSink) InputPorts() int  { return 1 }
func (s *PullSink) OutputPorts() int { return 0 }

func (s *PullSink) PortDiscipline(dir port.Direction, index int) port.Discipline {
	if dir == port.Input {
		return port.Pull
	}
	return port.Agnostic
}

func (s *PullSink) Initialize(ctx element.Context) error {
	s.ctx = ctx
	return nil
}

// PullOnce requests one packet from upstream, counting and freeing it if
// one was available, and reports whether a packet was pulled.
func (s *PullSink) PullOnce() bool {
	pkt := element.PullFrom(s.ctx, 0)
	if pkt == nil {
		return false
	}
	atomic.AddInt64(&s.count, 1)
	pkt.Kill()
	return true
}

// Count returns how many packets have been pulled so far.
func (s *PullSink) Count() int64 { return atomic.LoadInt64(&s.count) }

func (s *PullSink) AddHandlers(reg *element.HandlerRegistry) {
	reg.AddReadHandler("count", element.ReadVisible, func() (string, error) {
		return fmt.Sprintf("%d", s.Count()), nil
	})
}
