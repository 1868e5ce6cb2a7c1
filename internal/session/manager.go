package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/websy-backend/internal/observability"
	"github.com/yungbote/websy-backend/internal/platform/logger"
)

// Manager owns the live sessions of this process. Nothing is persisted;
// a session lives from the first chat open until teardown or idle expiry.
type Manager struct {
	log     *logger.Logger
	deps    *Deps
	idleTTL time.Duration

	// OnDelete runs after a session is removed, e.g. to close its streams.
	OnDelete func(id uuid.UUID)

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewManager(deps Deps, idleTTL time.Duration) *Manager {
	deps.withDefaults()
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Manager{
		log:      deps.Log.With("service", "SessionManager"),
		deps:     &deps,
		idleTTL:  idleTTL,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a session on route, applying any initial preferences.
func (m *Manager) Create(ctx context.Context, route string, prefs *PreferencesPatch) (*Session, error) {
	s := newSession(m.deps, route)
	if prefs != nil {
		if err := prefs.validate(); err != nil {
			return nil, err
		}
		if _, err := s.SetPreferences(ctx, *prefs); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	n := len(m.sessions)
	m.mu.Unlock()
	observability.Current().SetLiveSessions(n)

	m.log.Info("session created", "session_id", s.id.String(), "route", s.route, "live", n)
	return s, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete tears a session down: speech stops and its streams close.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	observability.Current().SetLiveSessions(n)
	s.teardown(ctx)
	if m.OnDelete != nil {
		m.OnDelete(id)
	}
	m.log.Info("session deleted", "session_id", id.String())
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap removes sessions idle longer than the TTL. Busy sessions are kept
// until their reply lands.
func (m *Manager) Reap(ctx context.Context) int {
	cutoff := m.deps.Now().Add(-m.idleTTL)

	m.mu.RLock()
	var expired []uuid.UUID
	for id, s := range m.sessions {
		last, busy := s.idleSince()
		if !busy && last.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range expired {
		if err := m.Delete(ctx, id); err == nil {
			n++
		}
	}
	if n > 0 {
		m.log.Info("reaped idle sessions", "count", n)
	}
	return n
}

// RunReaper calls Reap every interval until ctx is done.
func (m *Manager) RunReaper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Reap(ctx)
		}
	}
}
