package element

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is an element's position in its lifecycle (§3): constructed →
// configured → initialized → active → cleaning_up → destroyed.
type State int

const (
	StateConstructed State = iota
	StateConfigured
	StateInitialized
	StateActive
	StateCleaningUp
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateConfigured:
		return "configured"
	case StateInitialized:
		return "initialized"
	case StateActive:
		return "active"
	case StateCleaningUp:
		return "cleaning_up"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Instance tracks one element's bookkeeping separately from the Element
// interface itself: its stable index, class and config text, current
// lifecycle state, and the error (if any) that interrupted it. Keeping
// this outside the Element interface mirrors splitting a component's
// identity/lifecycle record from its behavioral contract.
type Instance struct {
	// ID is a process-unique identifier for this element instance, stable
	// for its lifetime even if a hot-swap later installs a different
	// instance under the same Name.
	ID         uuid.UUID
	Index      int
	Name       string
	Class      string
	ConfigArgs []string
	Impl       Element
	Handlers   *HandlerRegistry

	mu        sync.Mutex
	state     State
	lastError error
	since     time.Time
}

// NewInstance wraps impl with lifecycle bookkeeping.
func NewInstance(index int, name, class string, args []string, impl Element) *Instance {
	return &Instance{
		ID:         uuid.New(),
		Index:      index,
		Name:       name,
		Class:      class,
		ConfigArgs: args,
		Impl:       impl,
		Handlers:   NewHandlerRegistry(),
		state:      StateConstructed,
		since:      time.Now(),
	}
}

// State returns the instance's current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// SetState transitions the instance to state, recording the transition time.
func (i *Instance) SetState(state State) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = state
	i.since = time.Now()
}

// LastError returns the error (if any) that interrupted this instance's
// most recent lifecycle transition.
func (i *Instance) LastError() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastError
}

// SetLastError records the error that interrupted a lifecycle transition.
func (i *Instance) SetLastError(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastError = err
}

// Since returns how long the instance has held its current state.
func (i *Instance) Since() time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	return time.Since(i.since)
}
