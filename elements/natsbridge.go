package elements

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/errors"
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/pkg/retry"
	"github.com/clickgo/swrouter/pkg/worker"
	"github.com/clickgo/swrouter/port"
)

// NATSBridge is a push-in element that republishes every packet it
// receives onto a NATS subject, and (if given an input subject) also
// pushes every message it receives from NATS downstream as a packet —
// the same connect-then-subscribe/publish shape the pack's natsclient
// package uses, simplified here to a single *nats.Conn with no JetStream
// dependency since the core has no durable-delivery requirement. Inbound
// messages are handed to a bounded worker pool rather than forwarded
// straight from nats.go's dispatcher goroutine, so a slow downstream push
// chain can't stall message delivery for other subjects on the same
// connection.
type NATSBridge struct {
	element.BaseElement

	URL            string
	PublishSubject string
	SubscribeSubj  string

	conn *nats.Conn
	sub  *nats.Subscription
	pool *worker.Pool[*nats.Msg]

	elemCtx element.Context
}

// NewNATSBridge returns a bridge that publishes pushed packets to
// publishSubject and, if subscribeSubject is non-empty, forwards inbound
// NATS messages on that subject as packets on output port 0.
func NewNATSBridge(url, publishSubject, subscribeSubject string) *NATSBridge {
	b := &NATSBridge{URL: url, PublishSubject: publishSubject, SubscribeSubj: subscribeSubject}
	b.SetSelf(b)
	return b
}

func (b *NATSBridge) InputPorts() int { return 1 }
func (b *NATSBridge) OutputPorts() int {
	if b.SubscribeSubj != "" {
		return 1
	}
	return 0
}

func (b *NATSBridge) PortDiscipline(dir port.Direction, index int) port.Discipline {
	return port.Push
}

func (b *NATSBridge) Initialize(ctx element.Context) error {
	b.elemCtx = ctx

	var conn *nats.Conn
	connectErr := retry.Do(context.Background(), retry.DefaultConfig(), func() error {
		c, err := nats.Connect(b.URL)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if connectErr != nil {
		return errors.WrapInitialize(connectErr, ctx.Name(), "Initialize", "nats connect to "+b.URL)
	}
	b.conn = conn

	if b.SubscribeSubj != "" {
		b.pool = worker.NewPool(4, 256, b.deliver)
		if err := b.pool.Start(context.Background()); err != nil {
			conn.Close()
			return errors.WrapInitialize(err, ctx.Name(), "Initialize", "start delivery pool")
		}

		sub, err := conn.Subscribe(b.SubscribeSubj, func(msg *nats.Msg) {
			_ = b.pool.Submit(msg)
		})
		if err != nil {
			conn.Close()
			return errors.WrapInitialize(err, ctx.Name(), "Initialize", "nats subscribe to "+b.SubscribeSubj)
		}
		b.sub = sub
	}
	return nil
}

// deliver is the worker pool's processor: it turns one inbound NATS
// message into a packet and forwards it on output port 0.
func (b *NATSBridge) deliver(_ context.Context, msg *nats.Msg) error {
	element.Forward(b.elemCtx, 0, packet.NewFromData(msg.Data, 0, 0))
	return nil
}

func (b *NATSBridge) Push(inPort int, pkt *packet.Packet) {
	if b.conn != nil && b.PublishSubject != "" {
		_ = b.conn.Publish(b.PublishSubject, pkt.Data())
	}
	pkt.Kill()
}

func (b *NATSBridge) Cleanup(stage element.Stage) {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.pool != nil {
		_ = b.pool.Stop(5 * time.Second)
	}
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *NATSBridge) AddHandlers(reg *element.HandlerRegistry) {
	reg.AddReadHandler("subject", element.ReadVisible, func() (string, error) {
		return fmt.Sprintf("publish=%s subscribe=%s", b.PublishSubject, b.SubscribeSubj), nil
	})
}
