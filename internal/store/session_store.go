package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/stockroom/internal/models"
)

// Sentinel errors for session store operations
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionStore defines the interface for server-side session storage.
type SessionStore interface {
	// Create creates a new session.
	Create(ctx context.Context, session *models.Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if missing and ErrSessionExpired if past ExpiresAt.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)

	// Save persists the user binding and flash queue of a session and bumps LastUsedAt.
	// Returns ErrSessionNotFound if the session doesn't exist.
	Save(ctx context.Context, session *models.Session) error

	// Delete deletes a session by ID.
	Delete(ctx context.Context, sessionID uuid.UUID) error

	// DeleteExpired deletes all expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)
}
