package master

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/clickgo/swrouter/task"
	"github.com/clickgo/swrouter/timer"
)

// defaultIdleWait bounds how long a thread blocks when it has no runnable
// task and no armed timer, so it still notices context cancellation and
// any Wake that raced the check without relying on a spurious-wakeup-free
// channel send.
const defaultIdleWait = 100 * time.Millisecond

// Thread is one router execution thread: its own stride scheduler and
// timer wheel, driven by a single goroutine's run loop (§4.4, §4.5, §5).
// It implements router.Thread so a Router can reach its home thread's
// scheduler/wheel through element.Context without importing master.
type Thread struct {
	Name      string
	scheduler *task.Scheduler
	wheel     *timer.Wheel

	running atomic.Bool
}

// NewThread creates a thread with its own scheduler and timer wheel, the
// wheel created with the given granularity (default 1ms, per §4.5's
// resolution of the coalescing-granularity design note). The wheel stores
// the granularity but fires each timer at its exact expiry.
func NewThread(name string, granularity time.Duration) *Thread {
	return &Thread{
		Name:      name,
		scheduler: task.NewScheduler(name),
		wheel:     timer.NewWheel(name, granularity),
	}
}

// TaskScheduler implements router.Thread.
func (t *Thread) TaskScheduler() *task.Scheduler { return t.scheduler }

// TimerWheel implements router.Thread.
func (t *Thread) TimerWheel() *timer.Wheel { return t.wheel }

// run is the per-thread loop (§2: "runs a loop that (i) polls its
// runnable-task queue for one stride, (ii) advances expired timers, (iii)
// optionally blocks on a fd-multiplex until a wake"). It returns when ctx
// is cancelled.
func (t *Thread) run(ctx context.Context) error {
	t.running.Store(true)
	defer t.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ranTask := t.scheduler.RunOne()
		firedTimers := t.wheel.Fire(time.Now())
		if ranTask || firedTimers > 0 {
			continue
		}

		wait := defaultIdleWait
		if next, ok := t.wheel.Next(); ok {
			if d := time.Until(next); d < wait {
				if d < 0 {
					d = 0
				}
				wait = d
			}
		}

		wakeTimer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			wakeTimer.Stop()
			return ctx.Err()
		case <-t.scheduler.WakeCh():
			wakeTimer.Stop()
		case <-wakeTimer.C:
		}
	}
}

// Execute runs fn serialized with this thread's own task and timer
// processing: a hot-swap (§4.6) mutates element state shared with whatever
// tasks/pulls the thread's run loop is driving, so it must never overlap
// them. If the run loop is active (Master.Run has started it and it has
// not yet returned), fn runs as a one-shot task on this thread's scheduler
// and Execute blocks until the run loop has picked it up and finished it.
// Otherwise there is no run loop to race with, and fn runs inline.
func (t *Thread) Execute(fn func()) {
	if !t.running.Load() {
		fn()
		return
	}

	done := make(chan struct{})
	exec := task.New(t.Name+".execute", 1, func() bool {
		fn()
		close(done)
		return true
	})
	t.scheduler.AddTask(exec)
	t.scheduler.Wake(exec)
	<-done
}
