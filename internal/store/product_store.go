package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/stockroom/internal/models"
)

// Sentinel errors for product store operations
var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductStore defines the interface for product storage operations.
type ProductStore interface {
	// Create creates a new product. ID, CreatedAt and UpdatedAt are written back into p.
	Create(ctx context.Context, p *models.Product) error

	// Get retrieves a product by ID regardless of company, so callers can tell
	// a missing product from one owned by another company.
	// Returns ErrProductNotFound if the product doesn't exist.
	Get(ctx context.Context, productID int64) (*models.Product, error)

	// ListByCompany returns all products of a company ordered by name.
	ListByCompany(ctx context.Context, companyID int64) ([]*models.Product, error)

	// Update overwrites name, description, quantity and price and refreshes UpdatedAt.
	// Returns ErrProductNotFound if the product doesn't exist in p.CompanyID.
	Update(ctx context.Context, p *models.Product) error

	// Delete deletes a product scoped to a company.
	// Returns ErrProductNotFound if the product doesn't exist in that company.
	Delete(ctx context.Context, companyID, productID int64) error
}
