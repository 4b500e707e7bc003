package forms

import "net/url"

// Registration and login field names.
const (
	FieldCompanyName = "company_name"
	FieldAdminName   = "admin_name"
	FieldEmail       = "email"
	FieldLogin       = "login"
)

// RegistrationForm validates the company sign-up form.
// Password confirmation is compared by the account service.
type RegistrationForm struct {
	Form

	CompanyName     string
	AdminName       string
	Email           string
	Login           string
	Password        string
	ConfirmPassword string
}

// NewRegistrationForm parses and validates submitted registration values.
func NewRegistrationForm(values url.Values) *RegistrationForm {
	f := &RegistrationForm{Form: newForm(values)}

	f.CompanyName = f.requiredString(FieldCompanyName, MaxCompanyNameLength)
	f.AdminName = f.requiredString(FieldAdminName, MaxUserNameLength)
	f.Email = f.requiredString(FieldEmail, MaxEmailLength)
	f.email(FieldEmail, f.Email)
	f.Login = f.requiredString(FieldLogin, MaxLoginLength)

	f.Password = f.Get(FieldPassword)
	if f.Password == "" {
		f.AddError(FieldPassword, msgRequired)
	} else {
		f.maxBytes(FieldPassword, f.Password, MaxPasswordLength)
	}
	f.ConfirmPassword = f.Get(FieldConfirmPassword)
	if f.ConfirmPassword == "" {
		f.AddError(FieldConfirmPassword, msgRequired)
	}

	return f
}

// EmptyRegistrationForm returns a blank registration form.
func EmptyRegistrationForm() *RegistrationForm {
	return &RegistrationForm{Form: newForm(nil)}
}

// LoginForm validates the login form.
type LoginForm struct {
	Form

	Login    string
	Password string
}

// NewLoginForm parses and validates submitted login values.
func NewLoginForm(values url.Values) *LoginForm {
	f := &LoginForm{Form: newForm(values)}

	f.Login = f.trimmed(FieldLogin)
	if f.Login == "" {
		f.AddError(FieldLogin, msgRequired)
	}
	f.Password = f.Get(FieldPassword)
	if f.Password == "" {
		f.AddError(FieldPassword, msgRequired)
	}

	return f
}

// EmptyLoginForm returns a blank login form.
func EmptyLoginForm() *LoginForm {
	return &LoginForm{Form: newForm(nil)}
}
