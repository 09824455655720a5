package userdata

import (
	"context"
	"sync"
	"sync/atomic"

	domainauth "github.com/target/authweb/internal/domain/auth"
	"github.com/target/authweb/internal/ports"
)

// Resolver turns credentials into a session state.
type Resolver interface {
	Resolve(ctx context.Context, creds ports.Credentials) domainauth.SessionState
}

// Loader holds the session state for a single view.
// It fetches only while the state is Unknown; Clear makes the next Load fetch again.
type Loader struct {
	resolver Resolver
	creds    ports.Credentials

	fetchMu sync.Mutex
	mu      sync.RWMutex
	state   domainauth.SessionState
	loading atomic.Bool
}

// NewLoader creates a Loader in the Unknown state.
func NewLoader(r Resolver, creds ports.Credentials) *Loader {
	return &Loader{resolver: r, creds: creds, state: domainauth.Unknown()}
}

// Load resolves the state if it is still Unknown and returns it.
func (l *Loader) Load(ctx context.Context) domainauth.SessionState {
	l.fetchMu.Lock()
	defer l.fetchMu.Unlock()

	if st := l.State(); st.IsKnown() {
		return st
	}

	l.loading.Store(true)
	defer l.loading.Store(false)

	st := l.resolver.Resolve(ctx, l.creds)
	l.mu.Lock()
	l.state = st
	l.mu.Unlock()
	return st
}

// State returns the held state without fetching.
func (l *Loader) State() domainauth.SessionState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// User returns the signed-in user, or nil.
func (l *Loader) User() *domainauth.User {
	return l.State().User
}

// Loading reports whether a fetch is in flight.
func (l *Loader) Loading() bool { return l.loading.Load() }

// Clear resets the state to Unknown.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.state = domainauth.Unknown()
	l.mu.Unlock()
}
