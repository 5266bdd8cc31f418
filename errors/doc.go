// Package errors provides standardized error handling for the swrouter core.
//
// # Overview
//
// Two axes of classification travel with every error returned across a
// router, master, or element boundary:
//
//   - Class: Transient (retryable), Invalid (caller's fault), Fatal
//     (unrecoverable) — answers "what should the caller do about it".
//   - Kind: the lifecycle or control-plane boundary that produced the
//     error (ConfigSyntax, ConfigSemantics, Topology, Initialize,
//     RuntimeDrop, HandlerNotFound, HandlerKindMismatch, HotswapRejected,
//     FatalInternal) — answers "where in the router did this happen".
//
// # Quick Start
//
// Wrap an element's Configure failure so callers can tell it apart from a
// topology error:
//
//	if err := inst.Impl.Configure(inst.ConfigArgs); err != nil {
//	    return errors.WrapConfigSemantics(err, inst.Name, "Configure", rawConfig)
//	}
//
// Check classification before deciding whether to retry:
//
//	if err := m.Install(r); err != nil {
//	    if errors.IsFatal(err) {
//	        log.Fatalf("install failed: %v", err)
//	    }
//	}
//
// # Integration with errors.As/Is
//
//	var re *errors.RouterError
//	if errors.As(err, &re) {
//	    log.Printf("kind=%s class=%s component=%s", re.Kind, re.Class, re.Component)
//	}
//
// # Design Philosophy
//
//   - Classification over string matching: callers branch on Kind/Class,
//     never on error text.
//   - Wrapping over replacement: the underlying error is always preserved
//     and reachable through Unwrap.
//   - One taxonomy, not one exception type per element: every plugin
//     reuses the same nine Kinds rather than inventing its own.
package errors
