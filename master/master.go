// Package master owns the router execution thread, drives its run loop via
// an errgroup, and orchestrates installation and hot-swap of routers onto
// it (§4.6, §5).
package master

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clickgo/swrouter/config"
	"github.com/clickgo/swrouter/errors"
	"github.com/clickgo/swrouter/metric"
	"github.com/clickgo/swrouter/router"
)

// Options configures a Master. TimerGranularity defaults to 1ms when zero.
//
// Threads is accepted for backward compatibility with existing
// configuration but is otherwise unused: a Master always runs its active
// router on exactly one execution thread. SetThread pins a whole router to
// one thread, elements within a router share that thread's scheduler and
// timer wheel with no synchronization of their own, and Hotswap serializes
// the handoff between routers through that same thread (§4.6's Hotswap
// commit step runs as a task on the owning thread rather than racing it
// from another goroutine). Spreading routers or elements across more than
// one real OS thread is a documented Non-goal (see SPEC_FULL.md); a value
// other than 1 is accepted and logged but never changes how many threads
// get created.
type Options struct {
	Threads          int
	TimerGranularity time.Duration
	Metrics          *metric.Registry
	Logger           *slog.Logger
}

// Master owns the single router execution thread and the currently active
// router installed on it. Grounded on processor/graph/processor.go's
// errgroup.WithContext usage for background-module lifecycle: here the
// "background module" is the thread's run loop instead of
// DataManager/IndexManager.
type Master struct {
	thread *Thread
	opts   Options

	mu     sync.Mutex
	active *router.Router

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New creates a Master with a single execution thread, with its own
// scheduler and timer wheel at opts.TimerGranularity (default 1ms).
func New(opts Options) *Master {
	if opts.TimerGranularity <= 0 {
		opts.TimerGranularity = time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Threads > 1 {
		opts.Logger.Warn("master: multi-threaded router execution is not supported, running on one thread", "requested", opts.Threads)
	}

	return &Master{
		opts:   opts,
		thread: NewThread("thread-0", opts.TimerGranularity),
	}
}

// Run starts the thread's run loop in the background under an
// errgroup.WithContext derived from ctx, so a thread returning an error
// (only context cancellation does, in the base design) cancels ctx's
// descendants too.
func (m *Master) Run(ctx context.Context) {
	gctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(gctx)
	m.cancel = cancel
	m.group = g

	th := m.thread
	g.Go(func() error {
		err := th.run(gctx)
		if err != nil && err != context.Canceled {
			m.opts.Logger.Error("thread exited", "thread", th.Name, "error", err)
		}
		return nil
	})
}

// Close cancels the thread's context and waits for its run loop to
// return, or for ctx to expire first (§4.6: "Master.Close(ctx) cancels
// the group context and Wait()s for every thread's run loop to return").
func (m *Master) Close(ctx context.Context) error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()

	done := make(chan error, 1)
	go func() { done <- m.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Install configures, initializes, and activates r on this master's
// thread, then makes it the active router. Only one router may be active
// at a time; use Hotswap to replace it.
func (m *Master) Install(r *router.Router) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return errors.WrapFatalInternal(errors.ErrAlreadyActive, "Master", "Install", r.Name)
	}
	if err := m.stage(r); err != nil {
		return err
	}
	if err := r.Activate(); err != nil {
		return err
	}
	m.active = r
	m.recordRouterState(r)
	return nil
}

// recordRouterState mirrors r's lifecycle state onto the attached metrics
// registry, a no-op when this Master was built with no Options.Metrics.
func (m *Master) recordRouterState(r *router.Router) {
	if m.opts.Metrics == nil {
		return
	}
	m.opts.Metrics.Core.RecordRouterState(r.Name, int(r.State()))
}

// Threads returns this master's execution threads (always exactly one),
// letting a driver or test step the thread's scheduler directly instead of
// calling Run.
func (m *Master) Threads() []*Thread {
	return []*Thread{m.thread}
}

// Active returns the currently installed router, if any.
func (m *Master) Active() *router.Router {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// stage runs newR through configure -> initialize and wires its hotconfig
// handler to this master, without activating it or touching m.active or
// any other router. Every step here can fail without having made newR's
// elements reachable from anything the thread's run loop drives, so a
// staging failure never needs to unwind state on the active router.
func (m *Master) stage(newR *router.Router) error {
	newR.SetThread(m.thread)
	if err := newR.Configure(); err != nil {
		return err
	}
	if err := newR.Initialize(); err != nil {
		return err
	}
	newR.SetHotconfigHandler(m.hotconfigHandler(newR))
	return nil
}

// Hotswap stages newR alongside the currently active router, then commits
// the swap: stop the old router, transfer its per-element state into newR
// (§4.6), activate newR, and tear the old router down. If newR fails to
// stage, the active router is left completely unaffected (§8 property 7).
// The commit runs as a single task on the owning thread (Thread.Execute),
// so it never overlaps that thread's own run loop popping tasks or firing
// timers against the very elements it is mutating.
func (m *Master) Hotswap(newR *router.Router) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.active
	if old == nil {
		return errors.WrapHotswapRejected(errors.ErrNotInstalled, "Master", "Hotswap", newR.Name)
	}

	if err := m.stage(newR); err != nil {
		if m.opts.Metrics != nil {
			m.opts.Metrics.Core.RecordHotswap("rejected")
		}
		return errors.WrapHotswapRejected(err, "Master", "Hotswap", "bring-up failed, old router unaffected")
	}

	var activateErr error
	m.thread.Execute(func() {
		old.Stop()
		newR.TransferStateFrom(old)
		if err := newR.Activate(); err != nil {
			activateErr = err
			return
		}
		old.Teardown()
		m.active = newR
	})
	if activateErr != nil {
		if m.opts.Metrics != nil {
			m.opts.Metrics.Core.RecordHotswap("rejected")
		}
		return errors.WrapHotswapRejected(activateErr, "Master", "Hotswap", "activate failed after state transfer")
	}

	if m.opts.Metrics != nil {
		m.opts.Metrics.Core.RecordHotswap("accepted")
	}
	m.recordRouterState(newR)
	return nil
}

// hotconfigHandler returns the write handler a router's "hotconfig" entry
// delegates to: parse the written text as a flatconfig program against the
// same class registry as owner, and hot-swap it in.
func (m *Master) hotconfigHandler(owner *router.Router) func(string) error {
	return func(value string) error {
		elems, conns, err := config.Parse(value)
		if err != nil {
			return errors.WrapHotswapRejected(err, "Master", "hotconfig", "parse failed")
		}
		candidate := router.New(owner.Name, owner.Classes())
		if err := candidate.Build(elems, conns); err != nil {
			return errors.WrapHotswapRejected(err, "Master", "hotconfig", "build failed")
		}
		return m.Hotswap(candidate)
	}
}
