package elements

import (
	"fmt"
	"sync/atomic"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/pkg/buffer"
	"github.com/clickgo/swrouter/port"
)

// DropPolicy decides which packet a full Queue sacrifices.
type DropPolicy int

const (
	// DropTail rejects the incoming packet, leaving the queue's contents
	// untouched. This is the default (§4.3's open question resolved here),
	// matching Click's standard queue family.
	DropTail DropPolicy = iota
	// DropHead frees the oldest queued packet to make room for the
	// incoming one.
	DropHead
)

// defaultCapacity is used when a Queue is built with no explicit capacity
// and Configure never supplies one, matching Click's own Queue default.
const defaultCapacity = 1000

// Queue bridges a push upstream to a pull downstream (§4.3, S2): Push
// never blocks — a full queue drops per DropPolicy instead — and Pull
// never blocks, returning nil when empty. It asserts its "nonempty" and
// "nonfull" notifier signals as its occupancy crosses those boundaries,
// so a pull-side consumer can sleep on the signal instead of spinning.
//
// Storage is a pkg/buffer circular buffer rather than a hand-rolled ring:
// DropHead maps to buffer.DropOldest and DropTail to buffer.DropNewest.
// buffer.Block is never used here — it would violate the never-blocks
// contract on Push.
type Queue struct {
	element.BaseElement
	ctx      element.Context
	Capacity int
	Policy   DropPolicy

	buf     buffer.Buffer[*packet.Packet]
	dropped int64
}

// NewQueue returns a Queue with the given capacity and drop policy. A
// capacity of 0 defers to defaultCapacity unless Configure supplies one
// first.
func NewQueue(capacity int, policy DropPolicy) *Queue {
	q := &Queue{Capacity: capacity, Policy: policy}
	q.SetSelf(q)
	return q
}

func (q *Queue) InputPorts() int  { return 1 }
func (q *Queue) OutputPorts() int { return 1 }

func (q *Queue) PortDiscipline(dir port.Direction, index int) port.Discipline {
	switch dir {
	case port.Input:
		return port.Push
	default:
		return port.Pull
	}
}

// Configure accepts a single "capacity=N" argument, overriding the
// capacity given to NewQueue if present.
func (q *Queue) Configure(args []string) error {
	for _, arg := range args {
		var n int
		if _, err := fmt.Sscanf(arg, "capacity=%d", &n); err == nil {
			q.Capacity = n
		}
	}
	return nil
}

func (q *Queue) overflowPolicy() buffer.OverflowPolicy {
	if q.Policy == DropHead {
		return buffer.DropOldest
	}
	return buffer.DropNewest
}

func (q *Queue) Initialize(ctx element.Context) error {
	q.ctx = ctx

	capacity := q.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	q.Capacity = capacity

	buf, err := buffer.NewCircularBuffer[*packet.Packet](capacity,
		buffer.WithOverflowPolicy[*packet.Packet](q.overflowPolicy()),
		buffer.WithDropCallback[*packet.Packet](func(pkt *packet.Packet) {
			pkt.Kill()
			atomic.AddInt64(&q.dropped, 1)
		}),
	)
	if err != nil {
		return err
	}
	q.buf = buf
	return nil
}

func (q *Queue) Push(inPort int, pkt *packet.Packet) {
	if q.buf == nil {
		pkt.Kill()
		return
	}
	// The drop callback given to NewCircularBuffer kills whichever packet
	// the overflow policy sacrifices and counts it, for both DropOldest
	// and DropNewest.
	_ = q.buf.Write(pkt)
	q.assertSignals()
}

func (q *Queue) Pull(outPort int) *packet.Packet {
	if q.buf == nil {
		return nil
	}
	pkt, ok := q.buf.Read()
	if !ok {
		return nil
	}
	q.assertSignals()
	return pkt
}

// assertSignals sets or clears the router-wide "<name>.nonempty" and
// "<name>.nonfull" signals to match current occupancy, if this Queue was
// given a Context (tests driving Push/Pull without Initialize skip this).
func (q *Queue) assertSignals() {
	if q.ctx == nil || q.buf == nil {
		return
	}
	n := q.buf.Size()
	capacity := q.buf.Capacity()

	nonempty := q.ctx.Signal(q.ctx.Name() + ".nonempty")
	if n > 0 {
		nonempty.Set()
	} else {
		nonempty.Clear()
	}
	nonfull := q.ctx.Signal(q.ctx.Name() + ".nonfull")
	if n < capacity {
		nonfull.Set()
	} else {
		nonfull.Clear()
	}
}

// Size returns the current number of queued packets.
func (q *Queue) Size() int {
	if q.buf == nil {
		return 0
	}
	return q.buf.Size()
}

// Dropped returns how many packets were dropped on overflow.
func (q *Queue) Dropped() int64 {
	return atomic.LoadInt64(&q.dropped)
}

func (q *Queue) AddHandlers(reg *element.HandlerRegistry) {
	reg.AddReadHandler("size", element.ReadVisible, func() (string, error) {
		return fmt.Sprintf("%d", q.Size()), nil
	})
	reg.AddReadHandler("dropped", element.ReadVisible, func() (string, error) {
		return fmt.Sprintf("%d", q.Dropped()), nil
	})
}
