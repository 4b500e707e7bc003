package memory

import (
	"context"
	"sort"
	"time"

	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

var _ store.UserStore = (*UserStore)(nil)

// UserStore implements store.UserStore using in-memory storage.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new in-memory user store.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create creates a new user in memory.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.companies[u.CompanyID]; !exists {
		return store.ErrCompanyNotFound
	}
	if err := s.db.checkUserUnique(u); err != nil {
		return err
	}

	s.db.nextUserID++
	u.UserID = s.db.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	clone := *u
	s.db.users[u.UserID] = &clone

	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID int64) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, exists := s.db.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *u
	return &clone, nil
}

// GetInCompany retrieves a user by ID scoped to a company.
func (s *UserStore) GetInCompany(ctx context.Context, companyID, userID int64) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, exists := s.db.users[userID]
	if !exists || u.CompanyID != companyID {
		return nil, store.ErrUserNotFound
	}

	clone := *u
	return &clone, nil
}

// GetByLogin retrieves a user by login handle.
func (s *UserStore) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Login == login })
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email })
}

func (s *UserStore) find(match func(*models.User) bool) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// ListByCompany returns all users of a company ordered by ID.
func (s *UserStore) ListByCompany(ctx context.Context, companyID int64) ([]*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	users := make([]*models.User, 0)
	for _, u := range s.db.users {
		if u.CompanyID == companyID {
			clone := *u
			users = append(users, &clone)
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })

	return users, nil
}

// PrimaryAdmin returns the admin with the lowest ID in the company.
func (s *UserStore) PrimaryAdmin(ctx context.Context, companyID int64) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var primary *models.User
	for _, u := range s.db.users {
		if u.CompanyID != companyID || !u.IsAdmin {
			continue
		}
		if primary == nil || u.UserID < primary.UserID {
			primary = u
		}
	}
	if primary == nil {
		return nil, store.ErrUserNotFound
	}

	clone := *primary
	return &clone, nil
}

// Update overwrites the mutable fields of a user.
func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, exists := s.db.users[u.UserID]
	if !exists || existing.CompanyID != u.CompanyID {
		return store.ErrUserNotFound
	}
	if err := s.db.checkUserUnique(u); err != nil {
		return err
	}

	existing.Name = u.Name
	existing.Email = u.Email
	existing.Login = u.Login
	existing.PasswordHash = u.PasswordHash
	existing.IsAdmin = u.IsAdmin

	return nil
}

// Delete deletes a user scoped to a company.
func (s *UserStore) Delete(ctx context.Context, companyID, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, exists := s.db.users[userID]
	if !exists || u.CompanyID != companyID {
		return store.ErrUserNotFound
	}

	delete(s.db.users, userID)

	return nil
}
