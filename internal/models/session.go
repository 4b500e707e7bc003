package models

import (
	"time"

	"github.com/google/uuid"
)

// Flash levels
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Session represents a browser session.
// The session ID is stored in an opaque cookie, while all session data lives server-side.
// Anonymous sessions are allowed so flash messages survive logout and redirects.
type Session struct {
	SessionID uuid.UUID // UUIDv7 - this is the only value stored in the cookie
	UserID    *int64    // current_user_id, nil when nobody is logged in

	Flashes []Flash

	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastUsedAt time.Time

	// Optional audit metadata
	UserAgent string
	IPAddress string
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(level, message string) {
	s.Flashes = append(s.Flashes, Flash{Level: level, Message: message})
}

// TakeFlashes returns the queued messages and empties the queue.
func (s *Session) TakeFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// SetUser binds the session to a user.
func (s *Session) SetUser(userID int64) {
	id := userID
	s.UserID = &id
}

// ClearUser removes the session identity. Safe to call when nobody is logged in.
func (s *Session) ClearUser() {
	s.UserID = nil
}
