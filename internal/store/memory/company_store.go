package memory

import (
	"context"
	"time"

	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

var _ store.CompanyStore = (*CompanyStore)(nil)

// CompanyStore implements store.CompanyStore using in-memory storage.
type CompanyStore struct {
	db *DB
}

// NewCompanyStore creates a new in-memory company store.
func NewCompanyStore(db *DB) *CompanyStore {
	return &CompanyStore{db: db}
}

// CreateWithAdmin creates a company and its first admin under one lock.
func (s *CompanyStore) CreateWithAdmin(ctx context.Context, company *models.Company, admin *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, existing := range s.db.companies {
		if existing.Name == company.Name {
			return store.ErrCompanyAlreadyExists
		}
	}
	if err := s.db.checkUserUnique(admin); err != nil {
		return err
	}

	s.db.nextCompanyID++
	company.CompanyID = s.db.nextCompanyID
	clone := *company
	s.db.companies[company.CompanyID] = &clone

	s.db.nextUserID++
	admin.UserID = s.db.nextUserID
	admin.CompanyID = company.CompanyID
	admin.IsAdmin = true
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}
	adminClone := *admin
	s.db.users[admin.UserID] = &adminClone

	return nil
}

// Get retrieves a company by ID.
func (s *CompanyStore) Get(ctx context.Context, companyID int64) (*models.Company, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	company, exists := s.db.companies[companyID]
	if !exists {
		return nil, store.ErrCompanyNotFound
	}

	// Clone to avoid external modifications
	clone := *company
	return &clone, nil
}

// GetByName retrieves a company by name.
func (s *CompanyStore) GetByName(ctx context.Context, name string) (*models.Company, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, company := range s.db.companies {
		if company.Name == name {
			clone := *company
			return &clone, nil
		}
	}
	return nil, store.ErrCompanyNotFound
}

// Delete deletes a company and cascades to its users and products.
func (s *CompanyStore) Delete(ctx context.Context, companyID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.companies[companyID]; !exists {
		return store.ErrCompanyNotFound
	}

	for id, u := range s.db.users {
		if u.CompanyID == companyID {
			delete(s.db.users, id)
		}
	}
	for id, p := range s.db.products {
		if p.CompanyID == companyID {
			delete(s.db.products, id)
		}
	}
	delete(s.db.companies, companyID)

	return nil
}
