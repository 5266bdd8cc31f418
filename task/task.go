// Package task implements the per-thread cooperative task scheduler:
// stride/ticket fairness over a runnable set, with schedule/wake from any
// thread and idempotent double-scheduling (§4.4).
package task

import "sync/atomic"

// StrideConst is the numerator used to convert a priority into a stride;
// the open question in §9 ("exact stride/priority formula is not uniquely
// specified") is resolved here as stride = StrideConst / priority, the
// same fixed-point convention Click's own stride scheduler uses.
const StrideConst = 1 << 16

// Callback is a task's runnable body. It returns true if it did useful
// work (affects nothing in the scheduler itself; callers may use it for
// diagnostics).
type Callback func() bool

// Task is a runnable unit bound to a home thread and an element.
//
// Invariant: a Task appears at most once in its home thread's runnable
// set; Schedule and Wake are both idempotent with respect to that
// invariant.
type Task struct {
	Name     string
	Cookie   interface{}
	Priority int
	callback Callback

	stride int64
	pass   int64
	seq    int64 // monotonic insertion sequence, breaks pass ties FIFO

	scheduled atomic.Bool
	cancelled atomic.Bool
	home      *Scheduler
}

// New creates a task bound to no thread yet; AddTask on a Scheduler binds
// it to that scheduler as its home thread.
func New(name string, priority int, callback Callback) *Task {
	if priority <= 0 {
		priority = 1
	}
	return &Task{
		Name:     name,
		Priority: priority,
		callback: callback,
		stride:   StrideConst / int64(priority),
	}
}

// Scheduled reports whether the task is currently in its home scheduler's
// runnable set.
func (t *Task) Scheduled() bool {
	return t.scheduled.Load()
}

// Cancel marks t so it will never run again: a pending selection is
// silently dropped by Scheduler.RunOne, and a callback that reschedules
// itself (the common self-rescheduling task pattern) should check
// Cancelled and stop doing so. Idempotent; safe from any thread.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called on t.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}
