package dialog

import (
	"errors"
	"sync"
)

var (
	ErrSessionNotFound = errors.New("dialog: session not found")
	ErrSessionExists   = errors.New("dialog: session already exists")
	// ErrTurnInProgress is returned when a turn is started for a session
	// that is already processing one. The pipeline does not serialize
	// turns per session; the registry enforces that callers do.
	ErrTurnInProgress = errors.New("dialog: turn already in progress for session")
)

// Registry owns exactly one SessionState per active session id.
//
// States never leave the registry as aliases callers could retain across
// sessions: handlers hold the *SessionState only for the duration of a
// turn, and all reads of slot values go through Snapshot copies.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	state  *SessionState
	inTurn bool
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*sessionEntry)}
}

// Create registers a new empty session. Fails if the id is taken.
func (r *Registry) Create(sessionID string, required []Slot) (*SessionState, error) {
	if sessionID == "" {
		return nil, errors.New("dialog: session id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; ok {
		return nil, ErrSessionExists
	}
	st := NewSessionState(required)
	r.sessions[sessionID] = &sessionEntry{state: st}
	return st, nil
}

// Get returns the state for an id, or ErrSessionNotFound.
func (r *Registry) Get(sessionID string) (*SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.state, nil
}

// BeginTurn acquires the per-session turn gate and returns the state.
// A second BeginTurn for the same id before EndTurn fails with
// ErrTurnInProgress.
func (r *Registry) BeginTurn(sessionID string) (*SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.inTurn {
		return nil, ErrTurnInProgress
	}
	e.inTurn = true
	return e.state, nil
}

// EndTurn releases the per-session turn gate. Releasing an unknown or
// idle session is a no-op.
func (r *Registry) EndTurn(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sessionID]; ok {
		e.inTurn = false
	}
}

// End removes a session and returns its final state snapshot.
func (r *Registry) End(sessionID string) (map[Slot]string, error) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	// Snapshot after dropping the registry lock; the entry is no longer
	// reachable so nothing else can mutate it.
	return e.state.Snapshot(), nil
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
