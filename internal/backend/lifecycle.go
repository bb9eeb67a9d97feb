package backend

import (
	"sync"
)

// State is a gateway's position in its lifecycle. The only transitions are
// Uninitialized → Authenticating → Ready and Uninitialized → Authenticating →
// Unavailable. Unavailable is sticky for the process lifetime; restart is the
// recovery path.
type State int

const (
	StateUninitialized State = iota
	StateAuthenticating
	StateReady
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Lifecycle tracks gateway state. Providers embed it and drive transitions
// from their Init; readers may probe from any goroutine.
type Lifecycle struct {
	mu     sync.RWMutex
	state  State
	reason string
}

// StartAuth moves Uninitialized → Authenticating. Re-initializing a gateway
// is a programming error.
func (l *Lifecycle) StartAuth() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateUninitialized {
		panic("backend: lifecycle already started")
	}
	l.state = StateAuthenticating
}

// SetReady moves Authenticating → Ready.
func (l *Lifecycle) SetReady() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateAuthenticating {
		panic("backend: ready requires authenticating state")
	}
	l.state = StateReady
}

// SetUnavailable marks the gateway permanently unavailable with a reason.
func (l *Lifecycle) SetUnavailable(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateUnavailable
	l.reason = reason
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Ready reports whether the gateway reached Ready and stayed there.
func (l *Lifecycle) Ready() bool {
	return l.State() == StateReady
}

// Reason returns the recorded unavailability reason, empty otherwise.
func (l *Lifecycle) Reason() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reason
}
