// Package fsm wraps looplab/fsm with the narrow slice of its behavior
// server/lifecycle.go actually needs to track one request's progress
// through the dispatch pipeline: named states, named events, transitions
// between them, and nothing else. There are no guard conditions and no
// transition actions here — a request's dispatch pipeline decides for
// itself whether to proceed; this package only records where it got to,
// for observability (CurrentState) and as a guard that rejects, at
// Transition time, an illegal transition sequence such as completing
// twice. Build itself only checks the definitions (missing From states,
// conflicting destinations for one event).
// file: internal/fsm/fsm.go
package fsm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/jrpc/internal/logging"
	lfsm "github.com/looplab/fsm"
)

// State names one point in a lifecycle.
type State string

// Event names one trigger that may move the lifecycle from one State to
// another.
type Event string

// Transition declares that, from any of the From states, Event moves the
// lifecycle to To.
type Transition struct {
	From  []State
	To    State
	Event Event
}

// FSM is a disposable state-transition tracker: add every Transition,
// Build once, then drive it with Transition calls.
type FSM interface {
	// AddTransition stores a transition definition. Call Build() after
	// adding all transitions.
	AddTransition(transition Transition) FSM
	// Build finalizes the FSM configuration and creates the underlying
	// machine. Must be called after AddTransition(s), before any other
	// method.
	Build() error
	// CurrentState returns the current state. Requires Build().
	CurrentState() State
	// CanTransition reports whether event is defined for the current
	// state. Requires Build().
	CanTransition(event Event) bool
	// Transition attempts to trigger a state transition. Requires
	// Build().
	Transition(ctx context.Context, event Event) error
}

// loopFSM implements FSM using looplab/fsm.
type loopFSM struct {
	initialState State
	logger       logging.Logger
	transitions  []Transition
	fsm          *lfsm.FSM // nil until Build() succeeds.
	buildErr     error
	mu           sync.RWMutex
}

// NewFSM creates an FSM builder with the given initial state and logger.
// Call AddTransition() to define transitions, then Build() to finalize.
func NewFSM(initialState State, logger logging.Logger) FSM {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &loopFSM{
		initialState: initialState,
		logger:       logger.WithField("component", "fsm_wrapper"),
		transitions:  make([]Transition, 0),
	}
}

func (l *loopFSM) AddTransition(t Transition) FSM {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fsm != nil {
		l.logger.Error("cannot AddTransition after Build has been called")
		if l.buildErr == nil {
			l.buildErr = errors.New("cannot AddTransition after Build")
		}
		return l
	}
	if len(t.From) == 0 {
		l.logger.Error("transition definition missing 'From' states", "event", t.Event, "to", t.To)
		if l.buildErr == nil {
			l.buildErr = errors.New("transition definition missing 'From' states")
		}
		return l
	}
	l.transitions = append(l.transitions, t)
	return l
}

// Build finalizes the configuration and creates the underlying
// looplab/fsm instance. Idempotent: calling Build twice returns the first
// call's result without rebuilding.
func (l *loopFSM) Build() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fsm != nil {
		return l.buildErr
	}
	if l.buildErr != nil {
		return l.buildErr
	}

	eventDescs := make(map[string]lfsm.EventDesc)
	for _, t := range l.transitions {
		eventName := string(t.Event)
		toStateStr := string(t.To)
		desc, exists := eventDescs[eventName]
		if !exists {
			desc = lfsm.EventDesc{Name: eventName, Dst: toStateStr}
		} else if desc.Dst != toStateStr {
			l.buildErr = errors.Newf(
				"conflicting destinations ('%s' and '%s') for the same event ('%s')",
				desc.Dst, toStateStr, eventName,
			)
			return l.buildErr
		}
		for _, from := range t.From {
			desc.Src = append(desc.Src, string(from))
		}
		eventDescs[eventName] = desc
	}

	finalEvents := make([]lfsm.EventDesc, 0, len(eventDescs))
	for _, desc := range eventDescs {
		desc.Src = dedupe(desc.Src)
		finalEvents = append(finalEvents, desc)
	}

	l.fsm = lfsm.NewFSM(string(l.initialState), finalEvents, lfsm.Callbacks{})
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (l *loopFSM) CurrentState() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		return l.initialState
	}
	return State(l.fsm.Current())
}

func (l *loopFSM) CanTransition(event Event) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		return false
	}
	return l.fsm.Can(string(event))
}

// Transition triggers a state transition based on event. Requires
// Build().
func (l *loopFSM) Transition(ctx context.Context, event Event) error {
	l.mu.RLock()
	if l.fsm == nil {
		l.mu.RUnlock()
		if l.buildErr != nil {
			return l.buildErr
		}
		return errors.New("Transition called before Build")
	}
	fsmInstance := l.fsm
	l.mu.RUnlock()

	err := fsmInstance.Event(ctx, string(event))
	if err == nil {
		return nil
	}
	// looplab/fsm's own error (NoTransitionError/InvalidEventError/
	// UnknownEventError/InTransitionError) already names the offending
	// event and state; wrap it with the current state for a caller that
	// only logs the result (lifecycle tracking is diagnostic, never
	// load-bearing — see server/lifecycle.go).
	return errors.Wrapf(err, "event %q not valid from state %q", event, l.CurrentState())
}
