package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is an inventory item owned by a company.
type Product struct {
	ProductID   int64
	CompanyID   int64 // FK to companies
	Name        string
	Description *string             // Optional
	Quantity    int64               // Current stock, defaults to 0
	Price       decimal.NullDecimal // Optional unit price, NUMERIC(10,2)
	CreatedAt   time.Time           // Set once on create
	UpdatedAt   time.Time           // Refreshed on every write
}
