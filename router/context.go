package router

import (
	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/notify"
	"github.com/clickgo/swrouter/port"
	"github.com/clickgo/swrouter/task"
	"github.com/clickgo/swrouter/timer"
)

// routerContext is the element.Context a Router hands to exactly one
// element's Initialize; self pins it to that element so Peers answers "my
// connected neighbors", not "some neighbor in the graph".
type routerContext struct {
	router *Router
	self   *element.Instance
}

func (c *routerContext) Name() string { return c.self.Name }

func (c *routerContext) Peers(dir port.Direction, index int) []element.PeerRef {
	matches := c.router.peerOf(c.self.Name, dir, index)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]element.PeerRef, 0, len(matches))
	for _, m := range matches {
		inst, ok := c.router.Lookup(m.name)
		if !ok {
			continue
		}
		refs = append(refs, element.PeerRef{Element: inst.Impl, Port: m.port})
	}
	return refs
}

func (c *routerContext) Scheduler() *task.Scheduler {
	c.router.mu.RLock()
	defer c.router.mu.RUnlock()
	if c.router.thread == nil {
		return nil
	}
	return c.router.thread.TaskScheduler()
}

func (c *routerContext) Timers() *timer.Wheel {
	c.router.mu.RLock()
	defer c.router.mu.RUnlock()
	if c.router.thread == nil {
		return nil
	}
	return c.router.thread.TimerWheel()
}

func (c *routerContext) Signal(name string) *notify.Signal {
	return c.router.namedSignal(name)
}

// peerMatch names one connection endpoint on the other side of a peerOf
// lookup: the peer element's name and its own port index.
type peerMatch struct {
	name string
	port int
}

// peerOf walks the full connection list and returns every match on the
// other side of (element, dir, index), in connection order. Output ports
// collect every connection where they are the From side (push fan-out);
// input ports collect every connection where they are the To side (push
// fan-in, or the single peer of a pull connection).
func (r *Router) peerOf(name string, dir port.Direction, index int) []peerMatch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []peerMatch
	for _, conn := range r.connections {
		switch dir {
		case port.Output:
			if conn.FromElement == name && conn.FromPort == index {
				matches = append(matches, peerMatch{conn.ToElement, conn.ToPort})
			}
		case port.Input:
			if conn.ToElement == name && conn.ToPort == index {
				matches = append(matches, peerMatch{conn.FromElement, conn.FromPort})
			}
		}
	}
	return matches
}

// namedSignal returns the router-wide notify.Signal registered under
// name, creating it (initially clear) on first use. Signals are how a
// queue-like element tells its peers "not empty"/"not full" (§4.3).
func (r *Router) namedSignal(name string) *notify.Signal {
	r.signalsMu.Lock()
	defer r.signalsMu.Unlock()
	s, ok := r.signals[name]
	if !ok {
		s = notify.NewSignal(false)
		r.signals[name] = s
	}
	return s
}
