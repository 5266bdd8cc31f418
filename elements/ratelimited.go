package elements

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
	"github.com/clickgo/swrouter/task"
)

// RateLimitedSource is a task-driven source like Source, but gates each
// emission through a token-bucket limiter instead of emitting
// unconditionally — grounded on the query-rate limiter pattern used
// elsewhere in the pack for bounding expensive request paths.
type RateLimitedSource struct {
	element.BaseElement
	ctx     element.Context
	task    *task.Task
	limiter *rate.Limiter
	emitted int64
}

// NewRateLimitedSource returns a RateLimitedSource emitting at most r
// packets per second with the given burst allowance.
func NewRateLimitedSource(r float64, burst int) *RateLimitedSource {
	s := &RateLimitedSource{limiter: rate.NewLimiter(rate.Limit(r), burst)}
	s.SetSelf(s)
	return s
}

func (s *RateLimitedSource) InputPorts() int  { return 0 }
func (s *RateLimitedSource) OutputPorts() int { return 1 }

func (s *RateLimitedSource) PortDiscipline(dir port.Direction, index int) port.Discipline {
	if dir == port.Output {
		return port.Push
	}
	return port.Agnostic
}

func (s *RateLimitedSource) Initialize(ctx element.Context) error {
	s.ctx = ctx
	s.task = task.New(ctx.Name()+".emit", 1, s.emit)
	if sched := ctx.Scheduler(); sched != nil {
		sched.AddTask(s.task)
		sched.Schedule(s.task)
	}
	return nil
}

// emit always reschedules itself, but only forwards a packet when the
// limiter currently permits it — a denied tick is not an error, just a
// no-op selection, preserving "push never blocks".
func (s *RateLimitedSource) emit() bool {
	allowed := s.limiter.Allow()
	if allowed {
		atomic.AddInt64(&s.emitted, 1)
		element.Forward(s.ctx, 0, packet.New(0, 0))
	}
	if sched := s.ctx.Scheduler(); sched != nil && !s.task.Cancelled() {
		sched.Schedule(s.task)
	}
	return allowed
}

// Emitted returns the number of packets sent so far.
func (s *RateLimitedSource) Emitted() int64 { return atomic.LoadInt64(&s.emitted) }

// Cleanup cancels the emit task so a torn-down RateLimitedSource stops
// rescheduling itself on a shared thread scheduler.
func (s *RateLimitedSource) Cleanup(stage element.Stage) {
	if s.task != nil {
		s.task.Cancel()
	}
}

func (s *RateLimitedSource) AddHandlers(reg *element.HandlerRegistry) {
	reg.AddReadHandler("count", element.ReadVisible, func() (string, error) {
		return fmt.Sprintf("%d", s.Emitted()), nil
	})
}
