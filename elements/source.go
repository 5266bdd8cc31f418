// Package elements is the minimal plugin library needed to exercise the
// core's scenarios (S1-S6): a task-driven source, a push-only source, a
// capacity-bounded queue bridging disciplines, pull/push sinks, a
// stateful counter, and the discipline-fixed PushOnly/PullOnly pair used
// to exercise installation failure.
package elements

import (
	"fmt"
	"sync/atomic"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
	"github.com/clickgo/swrouter/task"
)

// Source is a task-driven element with no inputs and one push output: its
// task emits one packet per scheduler selection, matching S1 ("Source
// emits 3 packets on its task; after the driver runs 3 scheduler steps,
// sink's counter is 3").
type Source struct {
	element.BaseElement
	ctx      element.Context
	task     *task.Task
	emitted  int64
}

// NewSource returns an unconfigured Source.
func NewSource() *Source {
	s := &Source{}
	s.SetSelf(s)
	return s
}

func (s *Source) InputPorts() int  { return 0 }
func (s *Source) OutputPorts() int { return 1 }

func (s *Source) PortDiscipline(dir port.Direction, index int) port.Discipline {
	if dir == port.Output {
		return port.Push
	}
	return port.Agnostic
}

func (s *Source) Initialize(ctx element.Context) error {
	s.ctx = ctx
	s.task = task.New(ctx.Name()+".emit", 1, s.emit)
	if sched := ctx.Scheduler(); sched != nil {
		sched.AddTask(s.task)
		sched.Schedule(s.task)
	}
	return nil
}

// emit pushes one packet downstream and reschedules itself, so each
// scheduler selection of this task produces exactly one packet. It stops
// rescheduling once Cleanup has cancelled the task, so a torn-down
// Source doesn't keep running on a shared thread scheduler.
func (s *Source) emit() bool {
	atomic.AddInt64(&s.emitted, 1)
	element.Forward(s.ctx, 0, packet.New(0, 0))
	if sched := s.ctx.Scheduler(); sched != nil && !s.task.Cancelled() {
		sched.Schedule(s.task)
	}
	return true
}

// Cleanup cancels the emit task so it stops rescheduling itself once torn
// down, whether or not it ever ran again after Cleanup was called.
func (s *Source) Cleanup(stage element.Stage) {
	if s.task != nil {
		s.task.Cancel()
	}
}

// Emitted returns the number of packets sent so far.
func (s *Source) Emitted() int64 { return atomic.LoadInt64(&s.emitted) }

func (s *Source) AddHandlers(reg *element.HandlerRegistry) {
	reg.AddReadHandler("count", element.ReadVisible, func() (string, error) {
		return fmt.Sprintf("%d", s.Emitted()), nil
	})
}
