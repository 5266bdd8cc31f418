package elements

import (
	"fmt"
	"sync/atomic"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/packet"
)

// Counter is an agnostic 1-in/1-out element that passes every packet
// through unchanged while incrementing a count. It implements
// element.StateReceiver so a hot-swapped replacement with the same
// element name continues counting instead of resetting (S4).
type Counter struct {
	element.BaseElement
	count int64
}

// NewCounter returns an unconfigured Counter.
func NewCounter() *Counter {
	c := &Counter{}
	c.SetSelf(c)
	return c
}

func (c *Counter) SimpleAction(pkt *packet.Packet) *packet.Packet {
	atomic.AddInt64(&c.count, 1)
	return pkt
}

// Count returns the number of packets seen so far.
func (c *Counter) Count() int64 { return atomic.LoadInt64(&c.count) }

// TakeStateFrom copies a predecessor Counter's count, so a hot-swap that
// keeps the same element name continues counting monotonically.
func (c *Counter) TakeStateFrom(old element.Element) {
	if prev, ok := old.(*Counter); ok {
		atomic.StoreInt64(&c.count, prev.Count())
	}
}

func (c *Counter) AddHandlers(reg *element.HandlerRegistry) {
	reg.AddReadHandler("count", element.ReadVisible, func() (string, error) {
		return fmt.Sprintf("%d", c.Count()), nil
	})
}
