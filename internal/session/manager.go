package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/problem-browser/internal/browse"
	"github.com/terra-clan/problem-browser/internal/models"
)

// Manager owns all live sessions
type Manager struct {
	catalog  Catalog
	progress ProgressStore
	idleTTL  time.Duration
	now      func() time.Time

	mu        sync.RWMutex
	sessions  map[string]*Session
	listeners []func(id string)
}

// NewManager creates a session manager. Sessions idle for longer than
// idleTTL are reported by GetExpired.
func NewManager(catalog Catalog, progress ProgressStore, idleTTL time.Duration) *Manager {
	return &Manager{
		catalog:  catalog,
		progress: progress,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Subscribe registers fn to be called when a session's filters or view
// mode change, and when it is deleted
func (m *Manager) Subscribe(fn func(id string)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Create starts a session with default filters
func (m *Manager) Create() *Session {
	now := m.now()
	s := &Session{
		id:        uuid.NewString(),
		createdAt: now,
		catalog:   m.catalog,
		progress:  m.progress,
		now:       m.now,
		onChange:  m.notify,
		filters:   browse.DefaultFilters(),
		viewMode:  models.ViewList,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	slog.Info("session created", "session_id", s.id)
	return s
}

// Get returns a session and marks it as seen
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

// Delete removes a session. Subscribers are notified so they can release
// anything held for it.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	m.notify(id)
	return nil
}

// DeleteIfIdle removes a session only if it is still idle for longer than
// the TTL. A session used since it was reported expired is kept and
// ErrStillActive is returned.
func (m *Manager) DeleteIfIdle(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if s.idleSince(m.now()) <= m.idleTTL {
		m.mu.Unlock()
		return ErrStillActive
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	m.notify(id)
	return nil
}

// List describes all sessions, oldest first
func (m *Manager) List() []models.SessionInfo {
	m.mu.RLock()
	infos := make([]models.SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// GetExpired returns the sessions idle for longer than the TTL
func (m *Manager) GetExpired(ctx context.Context) ([]*Session, error) {
	now := m.now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var expired []*Session
	for _, s := range m.sessions {
		if s.idleSince(now) > m.idleTTL {
			expired = append(expired, s)
		}
	}
	return expired, nil
}

// Each calls fn for every live session
func (m *Manager) Each(fn func(s *Session)) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		fn(s)
	}
}

func (m *Manager) notify(id string) {
	m.mu.RLock()
	listeners := append([]func(string){}, m.listeners...)
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(id)
	}
}
