package service

import (
	"context"
	"sync"
	"time"

	"neohub_monitor/internal/hub"

	"golang.org/x/sync/singleflight"
)

// SessionManager shares one hub session between the poller and control
// commands. Concurrent callers needing a fresh login share a single request.
type SessionManager struct {
	hub   HubClient
	creds hub.Credentials
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	current *hub.Session
	group   singleflight.Group
}

func NewSessionManager(client HubClient, creds hub.Credentials, ttl time.Duration) *SessionManager {
	return &SessionManager{hub: client, creds: creds, ttl: ttl, now: time.Now}
}

// Get returns the cached session or logs in again when it expired.
func (m *SessionManager) Get(ctx context.Context) (*hub.Session, error) {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()
	if s != nil && !s.Expired(m.now(), m.ttl) {
		return s, nil
	}

	v, err, _ := m.group.Do("login", func() (any, error) {
		s, err := m.hub.Authenticate(ctx, m.creds)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.current = s
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*hub.Session), nil
}

// Invalidate drops s if it is still the current session.
func (m *SessionManager) Invalidate(s *hub.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == s {
		m.current = nil
	}
}
