// Package session holds the dashboard's explicit application state. A
// session moves idle -> running -> showing_results; a failed run returns it
// to idle with the error kept for display.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/tradedash/pkg/id"
)

type Phase int

const (
	Idle Phase = iota
	Running
	ShowingResults
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case ShowingResults:
		return "showing_results"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// TransitionError is an attempt to move between phases out of order.
type TransitionError struct {
	From Phase
	To   Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("session: cannot go from %s to %s", e.From, e.To)
}

// State is a value; transitions return the next state and leave the
// receiver untouched.
type State struct {
	SessionID string
	Phase     Phase

	// LastRun is when the last run started; RunFinished when it ended.
	LastRun     time.Time
	RunFinished time.Time
	LastError   string
}

// New returns an idle state with a fresh session id.
func New() State {
	return State{SessionID: id.New(), Phase: Idle}
}

// ShowResults reports whether the page should render results.
func (s State) ShowResults() bool {
	return s.Phase == ShowingResults
}

// Begin starts a run. A run may start from idle or while results are shown.
func (s State) Begin(now time.Time) (State, error) {
	if s.Phase == Running {
		return s, &TransitionError{From: s.Phase, To: Running}
	}
	s.Phase = Running
	s.LastRun = now
	s.RunFinished = time.Time{}
	s.LastError = ""
	return s, nil
}

// Complete marks the running run as done and shows its results.
func (s State) Complete(now time.Time) (State, error) {
	if s.Phase != Running {
		return s, &TransitionError{From: s.Phase, To: ShowingResults}
	}
	s.Phase = ShowingResults
	s.RunFinished = now
	return s, nil
}

// Fail ends the running run with err and returns to idle.
func (s State) Fail(now time.Time, err error) (State, error) {
	if s.Phase != Running {
		return s, &TransitionError{From: s.Phase, To: Idle}
	}
	s.Phase = Idle
	s.RunFinished = now
	if err != nil {
		s.LastError = err.Error()
	}
	return s, nil
}

// Reset returns to idle. It is the only way out of showing_results other
// than starting a new run.
func (s State) Reset() State {
	return State{SessionID: s.SessionID, Phase: Idle}
}

// Store guards one State for concurrent request handlers.
type Store struct {
	mu    sync.Mutex
	state State
}

func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies fn atomically. If fn returns an error the state is left
// unchanged.
func (s *Store) Update(fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.state)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}
