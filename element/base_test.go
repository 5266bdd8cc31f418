package element

import (
	"testing"

	"github.com/clickgo/swrouter/notify"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
	"github.com/clickgo/swrouter/task"
	"github.com/clickgo/swrouter/timer"
)

// doubler is a minimal SimpleActioner used to exercise BaseElement's
// push/pull wrapping without a full router.
type doubler struct {
	BaseElement
	seen []byte
}

func newDoubler() *doubler {
	d := &doubler{}
	d.SetSelf(d)
	return d
}

func (d *doubler) SimpleAction(pkt *packet.Packet) *packet.Packet {
	d.seen = append(d.seen, pkt.Data()...)
	return pkt
}

// sink is a push-only terminal element recording what it receives.
type sink struct {
	BaseElement
	received [][]byte
}

func newSink() *sink {
	s := &sink{}
	s.SetSelf(s)
	return s
}

func (s *sink) Push(inPort int, pkt *packet.Packet) {
	s.received = append(s.received, append([]byte(nil), pkt.Data()...))
	pkt.Kill()
}

// fakeCtx wires exactly one output peer for BaseElement.forward to use.
type fakeCtx struct {
	peer     Element
	peerPort int
}

func (f *fakeCtx) Name() string { return "doubler0" }
func (f *fakeCtx) Peers(dir port.Direction, index int) []PeerRef {
	if dir == port.Output && index == 0 {
		return []PeerRef{{Element: f.peer, Port: f.peerPort}}
	}
	return nil
}
func (f *fakeCtx) Scheduler() *task.Scheduler     { return nil }
func (f *fakeCtx) Timers() *timer.Wheel           { return nil }
func (f *fakeCtx) Signal(name string) *notify.Signal { return notify.NewSignal(false) }

func TestBaseElementPushForwardsSimpleActionResult(t *testing.T) {
	sk := newSink()
	d := newDoubler()
	if err := d.Initialize(&fakeCtx{peer: sk, peerPort: 0}); err != nil {
		t.Fatal(err)
	}

	p := packet.NewFromData([]byte("hi"), 0, 0)
	d.Push(0, p)

	if len(sk.received) != 1 || string(sk.received[0]) != "hi" {
		t.Fatalf("expected sink to receive forwarded packet, got %v", sk.received)
	}
}

func TestHandlerRegistryReadAppendsNewline(t *testing.T) {
	reg := NewHandlerRegistry()
	reg.AddReadHandler("value", 0, func() (string, error) { return "7", nil })

	h, ok := reg.Lookup("value")
	if !ok {
		t.Fatal("expected handler to be registered")
	}
	got, err := h.CallRead()
	if err != nil {
		t.Fatal(err)
	}
	if got != "7\n" {
		t.Fatalf("expected %q, got %q", "7\n", got)
	}
}

func TestHandlerRegistryRawSuppressesNewline(t *testing.T) {
	reg := NewHandlerRegistry()
	reg.AddReadHandler("value", Raw, func() (string, error) { return "7", nil })

	h, _ := reg.Lookup("value")
	got, err := h.CallRead()
	if err != nil {
		t.Fatal(err)
	}
	if got != "7" {
		t.Fatalf("expected raw value with no newline, got %q", got)
	}
}

func TestHandlerRegistryNotFound(t *testing.T) {
	reg := NewHandlerRegistry()
	if _, ok := reg.Lookup("nope"); ok {
		t.Fatal("expected handler lookup to fail for unregistered name")
	}
}
