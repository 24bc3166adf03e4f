// Package statemachine guards status transitions of persisted entities such as
// orders and tickets.
//
// A TransitionMap declares, for each state, the states reachable directly from
// it. A Machine checks a requested transition against the map, runs optional
// guards, sets the new status and persists the entity through an injected Saver.
// The package is a pure guard-and-set layer:
//  1. No implicit timers, retries or cascading transitions.
//  2. Exactly one Save per successful transition, none on rejection.
//  3. Self-transitions are rejected unless the map lists them.
//
// # Usage
//
//	const (
//	    Pending    = statemachine.State("pending")
//	    Approved   = statemachine.State("approved")
//	    InProgress = statemachine.State("in_progress")
//	)
//
//	transitions := statemachine.NewBuilder().
//	    From(Pending).To(Approved, "rejected").
//	    From(Approved).To(InProgress).
//	    MustBuild()
//
//	machine := statemachine.MustNew(transitions, repo,
//	    statemachine.WithTargetGuard(Approved, requireReviewer),
//	    statemachine.WithHooks(notifyStatusChange),
//	)
//
//	_, err := machine.Transition(ctx, actor, order, Approved)
//
// Multi-step workflows (approve, then start work once a deposit is paid) are
// sequenced by the caller as separate Transition calls.
//
// # Configuration
//
// Maps can be loaded from YAML with ParseTransitionMap. Construction errors wrap
// ErrInvalidMap and are meant to abort startup.
//
// # Error Handling
//
//	if statemachine.IsInvalidTransitionError(err) { /* 409 */ }
//	if statemachine.IsGuardRejectedError(err)     { /* 403 */ }
//	if errors.Is(err, statemachine.ErrPersistFailed) { /* 5xx */ }
//
// # Concurrency
//
// TransitionMap and Machine are immutable after construction. Concurrent
// transitions of the same entity must be serialized by the Saver (for example
// with an optimistic status check in the UPDATE statement).
package statemachine
