// Package timer implements the per-thread timer wheel: a min-heap of
// absolute monotonic expiries, fired in order on the owning thread, never
// earlier than requested (§4.5).
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Callback runs when a Timer fires, on the owning thread.
type Callback func()

// Timer is a single monotonic-expiry callback owned by one Wheel.
type Timer struct {
	Name     string
	Cookie   interface{}
	callback Callback

	expiry    time.Time
	index     int // heap index, maintained by Wheel for O(log n) Cancel
	armed     bool
	cancelled bool
}

// New creates an unarmed timer; call Wheel.Arm to schedule it.
func New(name string, callback Callback) *Timer {
	return &Timer{Name: name, callback: callback, index: -1}
}

// Expiry returns the timer's current absolute expiry, valid only while armed.
func (t *Timer) Expiry() time.Time {
	return t.expiry
}

// Armed reports whether the timer is currently pending in its wheel.
func (t *Timer) Armed() bool {
	return t.armed
}

// Wheel is a per-thread min-heap of timers keyed by expiry. Granularity
// records the value the wheel was created with; Next and Fire do not read
// it, so Next reports the exact earliest expiry and firing is always
// exact-or-late, never early.
type Wheel struct {
	Name        string
	Granularity time.Duration

	mu      sync.Mutex
	pending timerHeap
}

// NewWheel creates an empty wheel. granularity of 0 defaults to 1ms, the
// coalescing floor named in §4.5 ("e.g. 1-10us") rounded to a value a Go
// timer can reliably hit without busy-waiting.
func NewWheel(name string, granularity time.Duration) *Wheel {
	if granularity <= 0 {
		granularity = time.Millisecond
	}
	return &Wheel{Name: name, Granularity: granularity}
}

// Arm schedules t to fire at expiry. Re-arming an already-armed timer
// cancels its previous expiry and re-queues it at the new one — "arming at
// e then e' > e delivers exactly one callback no earlier than e'".
func (w *Wheel) Arm(t *Timer, expiry time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t.armed {
		heap.Remove(&w.pending, t.index)
	}
	t.expiry = expiry
	t.armed = true
	t.cancelled = false
	heap.Push(&w.pending, t)
}

// Cancel unarms t and removes it from the heap under the wheel's lock, so a
// timer cancelled while still pending never invokes its callback. A timer
// that Fire has already popped is no longer armed; Cancel leaves it alone
// and its callback still runs.
func (w *Wheel) Cancel(t *Timer) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !t.armed {
		return
	}
	heap.Remove(&w.pending, t.index)
	t.armed = false
	t.cancelled = true
}

// Next returns the wheel's next expiry and whether one is pending, for a
// thread's multiplexed wait to compute its timeout.
func (w *Wheel) Next() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return time.Time{}, false
	}
	return w.pending[0].expiry, true
}

// Fire dequeues and invokes every timer whose expiry is <= now, in expiry
// order. Re-arming a timer from within its own callback (Arm called
// during Fire) is permitted: the callback runs after the timer has already
// been popped, so Arm sees it as unarmed and simply re-queues it.
func (w *Wheel) Fire(now time.Time) int {
	fired := 0
	for {
		w.mu.Lock()
		if len(w.pending) == 0 || w.pending[0].expiry.After(now) {
			w.mu.Unlock()
			break
		}
		t := heap.Pop(&w.pending).(*Timer)
		t.armed = false
		w.mu.Unlock()

		if t.cancelled {
			continue
		}
		t.callback()
		fired++
	}
	return fired
}

// timerHeap implements container/heap.Interface over *Timer ordered by expiry.
type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].expiry.Before(h[j].expiry) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
