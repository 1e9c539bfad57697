// Package session holds the signed-in user's bearer credential.
package session

import (
	"errors"
	"sync"
)

// ErrInvalidSession is returned once a session has been closed or rejected by
// the server.
var ErrInvalidSession = errors.New("session is not valid")

// Session carries the bearer token for one sign-in. It becomes invalid on
// Close or when the server answers 401/403.
type Session struct {
	mu        sync.RWMutex
	token     string
	email     string
	valid     bool
	listeners []func(reason error)
}

func New(token, email string) *Session {
	return &Session{token: token, email: email, valid: token != ""}
}

// Token returns the bearer token, or ErrInvalidSession.
func (s *Session) Token() (string, error) {
	if s == nil {
		return "", ErrInvalidSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid {
		return "", ErrInvalidSession
	}
	return s.token, nil
}

func (s *Session) Email() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

// OnInvalidate registers fn to run once when the session stops being valid.
func (s *Session) OnInvalidate(fn func(reason error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Invalidate marks the session rejected. Listeners run on the first call only.
func (s *Session) Invalidate(reason error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.valid {
		s.mu.Unlock()
		return
	}
	s.valid = false
	s.token = ""
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(reason)
	}
}

// Close ends the session at sign-out.
func (s *Session) Close() {
	s.Invalidate(ErrInvalidSession)
}
