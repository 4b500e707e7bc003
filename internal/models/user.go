package models

import "time"

// User represents a person operating on behalf of a company.
// The admin with the lowest UserID in a company is its primary admin.
type User struct {
	UserID       int64 // Creation order within the store
	CompanyID    int64 // FK to companies
	Name         string
	Email        string // Unique across the system
	Login        string // Unique across the system
	PasswordHash string // bcrypt, never the plaintext
	IsAdmin      bool
	CreatedAt    time.Time
}

// SameAs reports whether u and other refer to the same stored user.
func (u *User) SameAs(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	return u.UserID == other.UserID
}
