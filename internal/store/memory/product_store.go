package memory

import (
	"context"
	"sort"
	"time"

	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

var _ store.ProductStore = (*ProductStore)(nil)

// ProductStore implements store.ProductStore using in-memory storage.
type ProductStore struct {
	db *DB
}

// NewProductStore creates a new in-memory product store.
func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{db: db}
}

// Create creates a new product in memory.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.companies[p.CompanyID]; !exists {
		return store.ErrCompanyNotFound
	}

	now := time.Now()
	s.db.nextProductID++
	p.ProductID = s.db.nextProductID
	p.CreatedAt = now
	p.UpdatedAt = now

	s.db.products[p.ProductID] = cloneProduct(p)

	return nil
}

// Get retrieves a product by ID.
func (s *ProductStore) Get(ctx context.Context, productID int64) (*models.Product, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, exists := s.db.products[productID]
	if !exists {
		return nil, store.ErrProductNotFound
	}

	return cloneProduct(p), nil
}

// ListByCompany returns all products of a company ordered by name.
func (s *ProductStore) ListByCompany(ctx context.Context, companyID int64) ([]*models.Product, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	products := make([]*models.Product, 0)
	for _, p := range s.db.products {
		if p.CompanyID == companyID {
			products = append(products, cloneProduct(p))
		}
	}

	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ProductID < products[j].ProductID
		}
		return products[i].Name < products[j].Name
	})

	return products, nil
}

// Update overwrites the mutable fields of a product and refreshes UpdatedAt.
func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, exists := s.db.products[p.ProductID]
	if !exists || existing.CompanyID != p.CompanyID {
		return store.ErrProductNotFound
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	s.db.products[p.ProductID] = cloneProduct(p)

	return nil
}

// Delete deletes a product scoped to a company.
func (s *ProductStore) Delete(ctx context.Context, companyID, productID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, exists := s.db.products[productID]
	if !exists || p.CompanyID != companyID {
		return store.ErrProductNotFound
	}

	delete(s.db.products, productID)

	return nil
}

func cloneProduct(p *models.Product) *models.Product {
	clone := *p
	if p.Description != nil {
		desc := *p.Description
		clone.Description = &desc
	}
	return &clone
}
