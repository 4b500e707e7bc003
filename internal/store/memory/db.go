package memory

import (
	"sync"

	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

// DB holds the tables shared by the in-memory stores.
// A single lock covers all tables so registration and cascade deletes are atomic.
// This implementation is for development and testing - data is lost on restart.
type DB struct {
	mu sync.RWMutex

	companies map[int64]*models.Company // company_id -> Company
	users     map[int64]*models.User    // user_id -> User
	products  map[int64]*models.Product // product_id -> Product

	nextCompanyID int64
	nextUserID    int64
	nextProductID int64
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{
		companies: make(map[int64]*models.Company),
		users:     make(map[int64]*models.User),
		products:  make(map[int64]*models.Product),
	}
}

// NewStores creates a complete set of in-memory stores sharing one DB.
func NewStores() store.Stores {
	db := NewDB()
	return store.Stores{
		Companies: NewCompanyStore(db),
		Users:     NewUserStore(db),
		Products:  NewProductStore(db),
		Sessions:  NewSessionStore(),
	}
}

// checkUserUnique must be called with the lock held.
// A taken login is reported before a taken email.
func (db *DB) checkUserUnique(u *models.User) error {
	emailTaken := false
	for _, existing := range db.users {
		if existing.UserID == u.UserID {
			continue
		}
		if existing.Login == u.Login {
			return store.ErrLoginTaken
		}
		if existing.Email == u.Email {
			emailTaken = true
		}
	}
	if emailTaken {
		return store.ErrEmailTaken
	}
	return nil
}
