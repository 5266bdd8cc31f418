package elements

import (
	"fmt"
	"sync/atomic"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
)

// Discard is a push-only terminal element: it frees every packet it
// receives and counts them.
type Discard struct {
	element.BaseElement
	count int64
}

// NewDiscard returns an unconfigured Discard.
func NewDiscard() *Discard {
	d := &Discard{}
	d.SetSelf(d)
	return d
}

func (d *Discard) InputPorts() int  { return 1 }
func (d *Discard) OutputPorts() int { return 0 }

func (d *Discard) PortDiscipline(dir port.Direction, index int) port.Discipline {
	return port.Agnostic
}

func (d *Discard) Push(inPort int, pkt *packet.Packet) {
	atomic.AddInt64(&d.count, 1)
	pkt.Kill()
}

// Count returns how many packets have been discarded.
func (d *Discard) Count() int64 { return atomic.LoadInt64(&d.count) }

func (d *Discard) AddHandlers(reg *element.HandlerRegistry) {
	reg.AddReadHandler("count", element.ReadVisible, func() (string, error) {
		return fmt.Sprintf("%d", d.Count()), nil
	})
}
