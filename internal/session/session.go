// Package session tracks the signing identity's lifetime. Components capture
// a Guard before dispatching a remote call and re-check it before applying
// the result, so operations settling after disconnect are discarded instead
// of mutating torn-down state.
package session

import (
	"sync"

	"github.com/vadiminshakov/gridmarket/internal/domain"
)

// Session is the current wallet connection. Each Begin bumps the epoch, which
// invalidates every guard taken during the previous connection.
type Session struct {
	mu      sync.RWMutex
	account domain.Account
	epoch   uint64
	active  bool
}

// New returns an inactive session.
func New() *Session {
	return &Session{}
}

// Begin activates the session for the given account.
func (s *Session) Begin(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.account = account
	s.active = true
}

// End deactivates the session. In-flight operations holding an old guard
// settle normally but their results are dropped.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.active = false
}

// Account returns the connected account, or false when no session is active.
// Callers revalidate on every use rather than caching the answer.
func (s *Session) Account() (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return "", false
	}
	return s.account, true
}

// Guard captures the current session identity.
func (s *Session) Guard() Guard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Guard{session: s, epoch: s.epoch, active: s.active}
}

// Guard is a point-in-time witness of a session. It stays valid until the
// session ends or restarts.
type Guard struct {
	session *Session
	epoch   uint64
	active  bool
}

// Valid reports whether the session the guard was taken from is still the
// current one.
func (g Guard) Valid() bool {
	if g.session == nil || !g.active {
		return false
	}
	g.session.mu.RLock()
	defer g.session.mu.RUnlock()
	return g.session.active && g.session.epoch == g.epoch
}
