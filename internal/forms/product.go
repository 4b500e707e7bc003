package forms

import (
	"math"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/wolfeidau/stockroom/internal/models"
)

// Product field names.
const (
	FieldProductName        = "name"
	FieldProductDescription = "description"
	FieldProductQuantity    = "quantity"
	FieldProductPrice       = "price"
)

// Product column limits.
const (
	MaxProductNameLength = 200
	MaxPriceDigits       = 10
	MaxPriceDecimals     = 2
)

// ProductForm validates product submissions.
type ProductForm struct {
	Form

	Name        string
	Description *string
	Quantity    int64
	Price       decimal.NullDecimal
}

// NewProductForm parses and validates submitted product values.
func NewProductForm(values url.Values) *ProductForm {
	f := &ProductForm{Form: newForm(values)}

	f.Name = f.requiredString(FieldProductName, MaxProductNameLength)

	if desc := f.trimmed(FieldProductDescription); desc != "" {
		f.Description = &desc
	}

	f.Quantity = f.quantity()
	f.Price = f.price()

	return f
}

// EmptyProductForm returns a blank product form.
func EmptyProductForm() *ProductForm {
	return &ProductForm{Form: newForm(nil)}
}

// ProductFormFrom builds an unsubmitted form populated from a stored product.
func ProductFormFrom(p *models.Product) *ProductForm {
	values := url.Values{}
	values.Set(FieldProductName, p.Name)
	if p.Description != nil {
		values.Set(FieldProductDescription, *p.Description)
	}
	values.Set(FieldProductQuantity, strconv.FormatInt(p.Quantity, 10))
	if p.Price.Valid {
		values.Set(FieldProductPrice, p.Price.Decimal.StringFixed(MaxPriceDecimals))
	}

	return &ProductForm{
		Form:        newForm(values),
		Name:        p.Name,
		Description: p.Description,
		Quantity:    p.Quantity,
		Price:       p.Price,
	}
}

// Apply copies the cleaned values onto p. Ownership fields are left alone.
func (f *ProductForm) Apply(p *models.Product) {
	p.Name = f.Name
	p.Description = f.Description
	p.Quantity = f.Quantity
	p.Price = f.Price
}

func (f *ProductForm) quantity() int64 {
	raw := f.trimmed(FieldProductQuantity)
	if raw == "" {
		return 0
	}

	q, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f.AddError(FieldProductQuantity, "Enter a whole number.")
		return 0
	}
	if q > math.MaxInt32 {
		f.AddError(FieldProductQuantity, "Ensure this value is less than or equal to 2147483647.")
		return 0
	}
	if q < math.MinInt32 {
		f.AddError(FieldProductQuantity, "Ensure this value is greater than or equal to -2147483648.")
		return 0
	}

	return q
}

func (f *ProductForm) price() decimal.NullDecimal {
	raw := f.trimmed(FieldProductPrice)
	if raw == "" {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		f.AddError(FieldProductPrice, "Enter a number.")
		return decimal.NullDecimal{}
	}

	digits, decimals := countDigits(d)
	msg := ""
	switch {
	case digits > MaxPriceDigits:
		msg = "Ensure that there are no more than 10 digits in total."
	case decimals > MaxPriceDecimals:
		msg = "Ensure that there are no more than 2 decimal places."
	case digits-decimals > MaxPriceDigits-MaxPriceDecimals:
		msg = "Ensure that there are no more than 8 digits before the decimal point."
	}
	if msg != "" {
		f.AddError(FieldProductPrice, msg)
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(d)
}

// countDigits returns the total significant digits and the decimal places of d
// as written, so "1.50" has three digits and two decimal places.
func countDigits(d decimal.Decimal) (digits, decimals int) {
	coef := d.Coefficient()
	coef.Abs(coef)

	exp := int(d.Exponent())
	if coef.Sign() == 0 && exp >= 0 {
		return 1, 0
	}

	digits = len(coef.String())
	if exp >= 0 {
		return digits + exp, 0
	}

	decimals = -exp
	if decimals > digits {
		digits = decimals
	}
	return digits, decimals
}
