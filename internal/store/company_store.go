package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/stockroom/internal/models"
)

// Sentinel errors for company store operations
var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrCompanyAlreadyExists = errors.New("company already exists")
)

// CompanyStore defines the interface for company storage operations.
// Companies are the tenants of the system; every user and product belongs to one.
type CompanyStore interface {
	// CreateWithAdmin atomically creates a company and its first administrator.
	// The generated IDs are written back into company and admin, and admin.CompanyID is set.
	// Returns ErrCompanyAlreadyExists, ErrLoginTaken or ErrEmailTaken when a unique constraint fails,
	// in which case nothing is persisted.
	CreateWithAdmin(ctx context.Context, company *models.Company, admin *models.User) error

	// Get retrieves a company by ID.
	// Returns ErrCompanyNotFound if the company doesn't exist.
	Get(ctx context.Context, companyID int64) (*models.Company, error)

	// GetByName retrieves a company by its unique name.
	// Returns ErrCompanyNotFound if the company doesn't exist.
	GetByName(ctx context.Context, name string) (*models.Company, error)

	// Delete deletes a company by ID.
	// This will cascade-delete all users and products belonging to the company.
	// Returns ErrCompanyNotFound if the company doesn't exist.
	Delete(ctx context.Context, companyID int64) error
}
