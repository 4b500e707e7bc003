package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

var _ store.SessionStore = (*SessionStore)(nil)

// SessionStore implements store.SessionStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type SessionStore struct {
	mu sync.RWMutex

	sessions map[uuid.UUID]*models.Session // session_id -> Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*models.Session),
	}
}

// Create creates a new session in memory.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clone to avoid external modifications
	s.sessions[session.SessionID] = cloneSession(session)

	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, store.ErrSessionNotFound
	}

	// Check if session has expired
	if session.IsExpired() {
		return nil, store.ErrSessionExpired
	}

	return cloneSession(session), nil
}

// Save persists the user binding and flash queue and bumps LastUsedAt.
func (s *SessionStore) Save(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.sessions[session.SessionID]
	if !exists {
		return store.ErrSessionNotFound
	}

	updated := cloneSession(existing)
	updated.UserID = cloneUserID(session.UserID)
	updated.Flashes = slices.Clone(session.Flashes)
	updated.LastUsedAt = time.Now()
	s.sessions[session.SessionID] = updated

	return nil
}

// Delete deletes a session by ID.
func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return store.ErrSessionNotFound
	}

	delete(s.sessions, sessionID)

	return nil
}

// DeleteExpired deletes all expired sessions (cleanup job).
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}

	return count, nil
}

func cloneSession(session *models.Session) *models.Session {
	clone := *session
	clone.UserID = cloneUserID(session.UserID)
	clone.Flashes = slices.Clone(session.Flashes)
	return &clone
}

func cloneUserID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
