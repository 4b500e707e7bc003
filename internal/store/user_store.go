package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/stockroom/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound = errors.New("user not found")
	ErrLoginTaken   = errors.New("login already in use")
	ErrEmailTaken   = errors.New("email already in use")
)

// UserStore defines the interface for user storage operations.
type UserStore interface {
	// Create creates a new user. The generated ID and creation time are written back into u.
	// Returns ErrLoginTaken or ErrEmailTaken if a unique constraint fails.
	Create(ctx context.Context, u *models.User) error

	// Get retrieves a user by ID regardless of company.
	// Only the session check should use this; handlers must use GetInCompany.
	// Returns ErrUserNotFound if the user doesn't exist.
	Get(ctx context.Context, userID int64) (*models.User, error)

	// GetInCompany retrieves a user by ID scoped to a company.
	// Returns ErrUserNotFound if the user doesn't exist or belongs to another company.
	GetInCompany(ctx context.Context, companyID, userID int64) (*models.User, error)

	// GetByLogin retrieves a user by login handle.
	// Returns ErrUserNotFound if no user has this login.
	GetByLogin(ctx context.Context, login string) (*models.User, error)

	// GetByEmail retrieves a user by email.
	// Returns ErrUserNotFound if no user has this email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ListByCompany returns all users of a company ordered by ID.
	ListByCompany(ctx context.Context, companyID int64) ([]*models.User, error)

	// PrimaryAdmin returns the admin with the lowest ID in the company.
	// Returns ErrUserNotFound if the company has no admin.
	PrimaryAdmin(ctx context.Context, companyID int64) (*models.User, error)

	// Update overwrites name, email, login, password hash and admin flag.
	// The company of a user never changes.
	// Returns ErrUserNotFound, ErrLoginTaken or ErrEmailTaken.
	Update(ctx context.Context, u *models.User) error

	// Delete deletes a user scoped to a company.
	// Returns ErrUserNotFound if the user doesn't exist in that company.
	Delete(ctx context.Context, companyID, userID int64) error
}
