package server

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/editor"
)

// ── Session Manager ──

type session struct {
	ID       string
	Ctrl     *editor.Controller
	Created  time.Time
	lastUsed time.Time
}

type sessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[string]*session), now: time.Now}
}

func newSessionID() string {
	return ulid.Make().String()
}

func (sm *sessionManager) add(id string, ctrl *editor.Controller) *session {
	now := sm.now()
	s := &session{ID: id, Ctrl: ctrl, Created: now, lastUsed: now}
	sm.mu.Lock()
	sm.sessions[id] = s
	sm.mu.Unlock()
	return s
}

// get returns the session and marks it as used.
func (sm *sessionManager) get(id string) (*session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[id]
	if ok {
		s.lastUsed = sm.now()
	}
	return s, ok
}

func (sm *sessionManager) remove(id string) bool {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if ok {
		s.Ctrl.Close()
	}
	return ok
}

func (sm *sessionManager) each(fn func(*session)) {
	sm.mu.RLock()
	list := make([]*session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		list = append(list, s)
	}
	sm.mu.RUnlock()
	for _, s := range list {
		fn(s)
	}
}

func (sm *sessionManager) count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// sweep closes sessions idle for longer than maxIdle and returns how many went.
func (sm *sessionManager) sweep(maxIdle time.Duration) int {
	cutoff := sm.now().Add(-maxIdle)

	sm.mu.Lock()
	var stale []*session
	for id, s := range sm.sessions {
		if s.lastUsed.Before(cutoff) {
			stale = append(stale, s)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, s := range stale {
		s.Ctrl.Close()
		logrus.WithField("session", s.ID).Info("Session expired")
	}
	return len(stale)
}

func (sm *sessionManager) closeAll() {
	sm.mu.Lock()
	list := sm.sessions
	sm.sessions = make(map[string]*session)
	sm.mu.Unlock()
	for _, s := range list {
		s.Ctrl.Close()
	}
}
