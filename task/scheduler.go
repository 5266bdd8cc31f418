package task

import (
	"container/heap"
	"sync"
)

// Scheduler is the per-thread stride scheduler. Exactly one goroutine (the
// owning router thread) should call RunOne; Schedule is meant to be called
// from that same thread (e.g. a task rescheduling itself), while Wake is
// the cross-thread entry point and additionally pulses a wake channel the
// owning thread's multiplexed wait selects on.
type Scheduler struct {
	Name string

	mu       sync.Mutex
	runnable taskHeap
	nextSeq  int64

	wakeCh chan struct{}
}

// NewScheduler creates an empty scheduler for one router thread.
func NewScheduler(name string) *Scheduler {
	return &Scheduler{Name: name, wakeCh: make(chan struct{}, 1)}
}

// AddTask binds t to this scheduler as its home thread. It does not make t
// runnable; call Schedule or Wake for that.
func (s *Scheduler) AddTask(t *Task) {
	t.home = s
}

// Schedule makes t runnable if it is not already (double-scheduling is
// idempotent, per the task invariant).
func (s *Scheduler) Schedule(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(t)
}

func (s *Scheduler) scheduleLocked(t *Task) {
	if !t.scheduled.CompareAndSwap(false, true) {
		return
	}
	t.seq = s.nextSeq
	s.nextSeq++
	heap.Push(&s.runnable, t)
}

// Wake makes t runnable and pulses the cross-thread wake channel so a
// thread blocked in its multiplexed wait (task.Scheduler.WakeCh) returns
// promptly, even if the caller is not t's home thread.
func (s *Scheduler) Wake(t *Task) {
	s.Schedule(t)
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// WakeCh returns the channel a thread's multiplexed wait selects on to
// notice a cross-thread Wake.
func (s *Scheduler) WakeCh() <-chan struct{} {
	return s.wakeCh
}

// Len reports the number of runnable tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runnable)
}

// RunOne selects the runnable task with the smallest pass (ties broken
// FIFO by insertion sequence), advances its pass by its stride, and runs
// its callback to completion. It reports false if no task was runnable.
//
// The task is removed from the runnable set, and its scheduled flag is
// cleared, before the callback runs — so a callback calling
// reschedule_self (Schedule on itself) correctly re-adds it with pass
// unchanged, exactly matching §4.4's cooperative re-arming contract.
// A cancelled task is popped and dropped without running its callback,
// then RunOne moves on to the next runnable task instead of returning
// false, so a scheduler full of cancelled tasks still reports no
// remaining work once they've all been drained.
func (s *Scheduler) RunOne() bool {
	for {
		s.mu.Lock()
		if len(s.runnable) == 0 {
			s.mu.Unlock()
			return false
		}
		t := heap.Pop(&s.runnable).(*Task)
		t.pass += t.stride
		t.scheduled.Store(false)
		s.mu.Unlock()

		if t.cancelled.Load() {
			continue
		}
		t.callback()
		return true
	}
}

// taskHeap implements container/heap.Interface over *Task, ordered by pass
// then insertion sequence.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].pass != h[j].pass {
		return h[i].pass < h[j].pass
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x interface{}) {
	*h = append(*h, x.(*Task))
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
