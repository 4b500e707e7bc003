package models

// Company represents a tenant in the system.
// Every user and product belongs to exactly one company.
type Company struct {
	CompanyID int64
	Name      string // Unique across the system
}
