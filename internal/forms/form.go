// Package forms validates submitted HTML form values.
//
// Each form keeps the raw submitted values for re-rendering, a map of
// field-level errors, and the cleaned values once validation has run.
package forms

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Common error messages.
const (
	msgRequired = "This field is required."
)

// Errors maps a field name to its error message.
type Errors map[string]string

// Form holds the raw values and field errors shared by all forms.
type Form struct {
	Values url.Values
	Errors Errors
}

func newForm(values url.Values) Form {
	if values == nil {
		values = url.Values{}
	}
	return Form{Values: values, Errors: Errors{}}
}

// Valid reports whether no field errors were recorded.
func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

// Get returns the raw submitted value of a field.
func (f *Form) Get(field string) string {
	return f.Values.Get(field)
}

// Error returns the error recorded for a field, or an empty string.
func (f *Form) Error(field string) string {
	return f.Errors[field]
}

// AddError records an error for a field. The first error for a field is kept.
func (f *Form) AddError(field, message string) {
	if _, exists := f.Errors[field]; exists {
		return
	}
	f.Errors[field] = message
}

// AddErrors records each field error that is not already present.
func (f *Form) AddErrors(errs map[string]string) {
	for field, message := range errs {
		f.AddError(field, message)
	}
}

// trimmed returns the submitted value with surrounding whitespace removed.
func (f *Form) trimmed(field string) string {
	return strings.TrimSpace(f.Values.Get(field))
}

// requiredString validates a trimmed required value with a maximum length.
func (f *Form) requiredString(field string, maxLen int) string {
	v := f.trimmed(field)
	if v == "" {
		f.AddError(field, msgRequired)
		return ""
	}
	f.maxLength(field, v, maxLen)
	return v
}

func (f *Form) maxLength(field, v string, maxLen int) {
	if n := utf8.RuneCountInString(v); n > maxLen {
		f.AddError(field, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", maxLen, n))
	}
}

func (f *Form) maxBytes(field, v string, maxLen int) {
	if len(v) > maxLen {
		f.AddError(field, fmt.Sprintf("Ensure this value is at most %d bytes long.", maxLen))
	}
}

func (f *Form) email(field, v string) {
	if v == "" {
		return
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		f.AddError(field, "Enter a valid email address.")
	}
}
