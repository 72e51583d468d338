// file: server/lifecycle.go
package server

import (
	"context"

	"github.com/dkoosis/jrpc/internal/fsm"
	"github.com/dkoosis/jrpc/internal/logging"
)

// Request lifecycle states and events, tracking one dispatch through the
// pipeline (spec §4.5, §3 "Release pairs with Create"). Built the way
// internal/mcp/state/machine.go builds the connection-lifecycle FSM over
// internal/fsm, but scoped to a single request instead of a connection.
const (
	lifecycleCreated   fsm.State = "created"
	lifecycleBound     fsm.State = "bound"
	lifecycleInvoked   fsm.State = "invoked"
	lifecycleCompleted fsm.State = "completed"
	lifecycleFailed    fsm.State = "failed"
	lifecycleCanceled  fsm.State = "canceled"
)

const (
	eventBind     fsm.Event = "bind"
	eventInvoke   fsm.Event = "invoke"
	eventComplete fsm.Event = "complete"
	eventFail     fsm.Event = "fail"
	eventCancel   fsm.Event = "cancel"
)

// requestLifecycle is a disposable FSM instance built fresh per dispatch
// and discarded with the RequestContext. It exists for observability
// (a middleware can query CurrentState) and to make illegal transition
// sequences (e.g. completing twice) an FSM transition error, which
// advance logs, instead of a silent bookkeeping bug in the dispatcher.
// Dispatch fires bind, invoke, complete and fail; it never fires cancel,
// so the canceled state is defined but not reached.
type requestLifecycle struct {
	fsm.FSM
}

func newRequestLifecycle(logger logging.Logger) *requestLifecycle {
	builder := fsm.NewFSM(lifecycleCreated, logger)
	builder.
		AddTransition(fsm.Transition{From: []fsm.State{lifecycleCreated}, Event: eventBind, To: lifecycleBound}).
		AddTransition(fsm.Transition{From: []fsm.State{lifecycleBound}, Event: eventInvoke, To: lifecycleInvoked}).
		AddTransition(fsm.Transition{From: []fsm.State{lifecycleInvoked}, Event: eventComplete, To: lifecycleCompleted}).
		AddTransition(fsm.Transition{From: []fsm.State{lifecycleCreated, lifecycleBound, lifecycleInvoked}, Event: eventFail, To: lifecycleFailed}).
		AddTransition(fsm.Transition{From: []fsm.State{lifecycleCreated, lifecycleBound, lifecycleInvoked}, Event: eventCancel, To: lifecycleCanceled})

	rl := &requestLifecycle{}
	if err := builder.Build(); err != nil {
		logger.Warn("request lifecycle FSM failed to build; tracking disabled for this request", "error", err)
		rl.FSM = noopFSM{state: lifecycleCreated}
		return rl
	}
	rl.FSM = builder
	return rl
}

// advance fires event and logs (but does not fail dispatch on) a
// transition error: lifecycle tracking is diagnostic, never load-bearing.
func (rl *requestLifecycle) advance(ctx context.Context, event fsm.Event, logger logging.Logger) {
	if err := rl.Transition(ctx, event); err != nil {
		logger.Debug("request lifecycle transition rejected", "event", event, "error", err)
	}
}

// noopFSM satisfies fsm.FSM when Build() fails, so a malformed lifecycle
// definition degrades to "no tracking" rather than panicking dispatch.
type noopFSM struct{ state fsm.State }

func (n noopFSM) AddTransition(fsm.Transition) fsm.FSM           { return n }
func (n noopFSM) Build() error                                   { return nil }
func (n noopFSM) CurrentState() fsm.State                        { return n.state }
func (n noopFSM) CanTransition(fsm.Event) bool                   { return false }
func (n noopFSM) Transition(context.Context, fsm.Event) error    { return nil }
