package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antibyte/basic64/pkg/logger"
)

// Session is one live terminal connection's identity.
type Session struct {
	ID       string
	Username string // empty for guests
	Guest    bool
	Created  time.Time
	LastSeen time.Time
}

// Owner returns the storage owner key for this session. Guest files are
// scoped to the session and vanish with it; user files are scoped to the
// account.
func (s *Session) Owner() string {
	if s.Guest || s.Username == "" {
		return "guest:" + s.ID
	}
	return s.Username
}

// SessionManager tracks live sessions by id.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Create registers a new session. username may be empty for a guest.
func (m *SessionManager) Create(username string, guest bool) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Username: username,
		Guest:    guest,
		Created:  time.Now(),
		LastSeen: time.Now(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	logger.Debug(logger.AreaSession, "session %s created (user=%q guest=%v)", s.ID, username, guest)
	return s
}

func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Touch refreshes the session's idle timer.
func (m *SessionManager) Touch(id string) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.LastSeen = time.Now()
	}
	m.mu.Unlock()
}

// Remove drops a session and returns it, if it existed.
func (m *SessionManager) Remove(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		logger.Debug(logger.AreaSession, "session %s removed", id)
	}
	return s, ok
}

// OwnerFor resolves a session id to its storage owner key. Unknown ids get
// a guest-scoped key so stale connections cannot touch account files.
func (m *SessionManager) OwnerFor(sessionID string) string {
	if s, ok := m.Get(sessionID); ok {
		return s.Owner()
	}
	return "guest:" + sessionID
}

// Expired returns the sessions idle longer than maxIdle and removes them.
func (m *SessionManager) Expired(maxIdle time.Duration) []*Session {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastSeen.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	return expired
}

// Count reports the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
