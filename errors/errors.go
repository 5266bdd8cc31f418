// Package errors provides standardized error handling and classification for
// swrouter: a three-class severity system (transient/invalid/fatal) for retry
// decisions, plus a router-specific error Kind taxonomy describing which
// lifecycle or control-plane boundary produced the error.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Class represents the severity classification of an error for handling
// purposes: does it make sense to retry, is it the caller's fault, or must
// the process stop.
type Class int

const (
	// Transient represents temporary errors that may be retried.
	Transient Class = iota
	// Invalid represents errors due to invalid input or configuration.
	Invalid
	// Fatal represents unrecoverable errors that should stop processing.
	Fatal
)

// String returns the string representation of Class.
func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Invalid:
		return "invalid"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Kind names one of the error categories from the router's error taxonomy
// (spec §7). Unlike Class, which only says how to react, Kind says which
// lifecycle or control-plane boundary produced the error.
type Kind int

const (
	// ConfigSyntax is rejected by the external parser before reaching the core.
	ConfigSyntax Kind = iota
	// ConfigSemantics is an element rejecting its own configuration string.
	ConfigSemantics
	// Topology is a port-count, discipline-mismatch, or dangling-port error.
	Topology
	// Initialize is an element's Initialize returning an error.
	Initialize
	// RuntimeDrop is a packet dropped in the data plane; counted, never surfaced.
	RuntimeDrop
	// HandlerNotFound is returned when no handler matches the requested name.
	HandlerNotFound
	// HandlerKindMismatch is a read requested on a write-only handler, or vice versa.
	HandlerKindMismatch
	// HotswapRejected is a hot-swap candidate failing configure/resolve/initialize.
	HotswapRejected
	// FatalInternal is an invariant violation: double-free, wrong-thread schedule, etc.
	FatalInternal
)

// String returns the taxonomy name used in error messages and logs.
func (k Kind) String() string {
	switch k {
	case ConfigSyntax:
		return "config_syntax"
	case ConfigSemantics:
		return "config_semantics"
	case Topology:
		return "topology"
	case Initialize:
		return "initialize"
	case RuntimeDrop:
		return "runtime_drop"
	case HandlerNotFound:
		return "handler_not_found"
	case HandlerKindMismatch:
		return "handler_kind_mismatch"
	case HotswapRejected:
		return "hotswap_rejected"
	case FatalInternal:
		return "fatal_internal"
	default:
		return "unknown"
	}
}

// RouterError wraps an underlying error with its Kind, Class, and the
// component/operation that produced it. errors.Is/errors.As keep working
// through Unwrap.
type RouterError struct {
	Kind      Kind
	Class     Class
	Err       error
	Component string
	Operation string
	Detail    string
}

// Error implements the error interface.
func (e *RouterError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s.%s: %s (%s): %v", e.Component, e.Operation, e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s: %v", e.Component, e.Operation, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *RouterError) Unwrap() error {
	return e.Err
}

func wrap(kind Kind, class Class, err error, component, operation, detail string) error {
	if err == nil {
		return nil
	}
	return &RouterError{Kind: kind, Class: class, Err: err, Component: component, Operation: operation, Detail: detail}
}

// WrapTopology classifies err as a Topology error (fatal to installation).
func WrapTopology(err error, component, operation, detail string) error {
	return wrap(Topology, Fatal, err, component, operation, detail)
}

// WrapConfigSemantics classifies err as a ConfigSemantics error.
func WrapConfigSemantics(err error, component, operation, detail string) error {
	return wrap(ConfigSemantics, Invalid, err, component, operation, detail)
}

// WrapInitialize classifies err as an Initialize error.
func WrapInitialize(err error, component, operation, detail string) error {
	return wrap(Initialize, Fatal, err, component, operation, detail)
}

// WrapHandlerNotFound classifies err as a HandlerNotFound error.
func WrapHandlerNotFound(err error, component, operation, detail string) error {
	return wrap(HandlerNotFound, Invalid, err, component, operation, detail)
}

// WrapHandlerKindMismatch classifies err as a HandlerKindMismatch error.
func WrapHandlerKindMismatch(err error, component, operation, detail string) error {
	return wrap(HandlerKindMismatch, Invalid, err, component, operation, detail)
}

// WrapHotswapRejected classifies err as a HotswapRejected error; by
// definition the old router survives unaffected, so this is never Fatal.
func WrapHotswapRejected(err error, component, operation, detail string) error {
	return wrap(HotswapRejected, Invalid, err, component, operation, detail)
}

// WrapFatalInternal classifies err as a FatalInternal invariant violation.
func WrapFatalInternal(err error, component, operation, detail string) error {
	return wrap(FatalInternal, Fatal, err, component, operation, detail)
}

// WrapTransient wraps err as Class Transient with Kind RuntimeDrop; used by
// plugins outside the lifecycle taxonomy (e.g. a reconnect loop).
func WrapTransient(err error, component, operation, detail string) error {
	if err == nil {
		return nil
	}
	return &RouterError{Kind: RuntimeDrop, Class: Transient, Err: err, Component: component, Operation: operation, Detail: detail}
}

// ErrAlreadyStopped reports an operation on a component that has already
// been closed or stopped.
var ErrAlreadyStopped = errors.New("component already stopped")

// WrapInvalid wraps err as Class Invalid with Kind RuntimeDrop; used by
// plugins outside the lifecycle taxonomy (e.g. a write to a closed buffer).
func WrapInvalid(err error, component, operation, detail string) error {
	return wrap(RuntimeDrop, Invalid, err, component, operation, detail)
}

// ClassOf returns the Class of err, defaulting to Invalid for unclassified errors.
func ClassOf(err error) Class {
	var re *RouterError
	if errors.As(err, &re) {
		return re.Class
	}
	return Invalid
}

// KindOf returns the Kind of err and whether err carries router classification at all.
func KindOf(err error) (Kind, bool) {
	var re *RouterError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return err != nil && ClassOf(err) == Transient
}

// IsFatal reports whether err should stop processing entirely.
func IsFatal(err error) bool {
	return err != nil && ClassOf(err) == Fatal
}

// Standard sentinel errors for common router conditions, usable with errors.Is.
var (
	ErrDanglingPort      = errors.New("port has no connected peer")
	ErrDisciplineInvalid = errors.New("push/pull discipline mismatch on connection")
	ErrDisciplineAmbig   = errors.New("agnostic/agnostic connection is ambiguous")
	ErrFanoutPullInvalid = errors.New("pull output fanned out to a non-pull input")
	ErrDuplicateName     = errors.New("element name already in use")
	ErrUnknownClass      = errors.New("no factory registered for element class")
	ErrNotInstalled      = errors.New("router is not installed under a master")
	ErrAlreadyActive     = errors.New("router is already active")
	ErrWrongThread       = errors.New("task scheduled from a thread other than its home")
	ErrDoubleFree        = errors.New("packet released more than once")
)

// ShouldRetry reports whether err is transient and attempt is still within max.
func ShouldRetry(err error, attempt, maxAttempts int) bool {
	return err != nil && attempt < maxAttempts && IsTransient(err)
}

// Combine folds a list of per-element errors raised during a lifecycle pass
// (e.g. configure) into one message naming every offender, so lifecycle
// errors can accumulate and surface once at the lifecycle boundary (§7).
func Combine(prefix string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("%s: %s", prefix, strings.Join(msgs, "; "))
}
