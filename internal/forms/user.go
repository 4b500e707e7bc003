package forms

import (
	"net/url"

	"github.com/wolfeidau/stockroom/internal/models"
)

// User field names.
const (
	FieldUserName        = "name"
	FieldUserEmail       = "email"
	FieldUserLogin       = "login"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldIsAdmin         = "is_admin"
)

// User column limits.
const (
	MaxUserNameLength    = 50
	MaxEmailLength       = 50
	MaxLoginLength       = 20
	MaxPasswordLength    = 72 // bcrypt input limit
	MaxCompanyNameLength = 100
)

const msgPasswordMismatch = "Passwords do not match."

// UserForm validates user create and edit submissions.
//
// The is_admin field is only part of the editable set when the acting user is
// the company's primary admin. The service layer enforces the same rule.
type UserForm struct {
	Form

	Name     string
	Email    string
	Login    string
	Password string // empty on edit means keep the current hash
	IsAdmin  bool

	creating      bool
	canGrantAdmin bool
}

// NewUserForm parses and validates submitted user values.
// creating makes both password fields required.
func NewUserForm(values url.Values, creating, canGrantAdmin bool) *UserForm {
	f := &UserForm{
		Form:          newForm(values),
		creating:      creating,
		canGrantAdmin: canGrantAdmin,
	}

	f.Name = f.requiredString(FieldUserName, MaxUserNameLength)
	f.Email = f.requiredString(FieldUserEmail, MaxEmailLength)
	f.email(FieldUserEmail, f.Email)
	f.Login = f.requiredString(FieldUserLogin, MaxLoginLength)

	password := f.Get(FieldPassword)
	confirm := f.Get(FieldConfirmPassword)

	if creating {
		if password == "" {
			f.AddError(FieldPassword, msgRequired)
		}
		if confirm == "" {
			f.AddError(FieldConfirmPassword, msgRequired)
		}
	}
	if password != "" {
		f.maxBytes(FieldPassword, password, MaxPasswordLength)
	}
	if password != "" && confirm != "" && password != confirm {
		f.AddError(FieldConfirmPassword, msgPasswordMismatch)
	}
	f.Password = password

	if canGrantAdmin {
		f.IsAdmin = checkbox(f.Get(FieldIsAdmin))
	}

	return f
}

// UserFormFrom builds an unsubmitted edit form populated from a stored user.
// Password fields are always blank.
func UserFormFrom(u *models.User, canGrantAdmin bool) *UserForm {
	values := url.Values{}
	values.Set(FieldUserName, u.Name)
	values.Set(FieldUserEmail, u.Email)
	values.Set(FieldUserLogin, u.Login)
	if canGrantAdmin && u.IsAdmin {
		values.Set(FieldIsAdmin, "on")
	}

	return &UserForm{
		Form:          newForm(values),
		Name:          u.Name,
		Email:         u.Email,
		Login:         u.Login,
		IsAdmin:       u.IsAdmin,
		canGrantAdmin: canGrantAdmin,
	}
}

// EmptyUserForm returns a blank create form.
func EmptyUserForm(canGrantAdmin bool) *UserForm {
	return &UserForm{
		Form:          newForm(nil),
		creating:      true,
		canGrantAdmin: canGrantAdmin,
	}
}

// Creating reports whether the form is used to create a user.
func (f *UserForm) Creating() bool {
	return f.creating
}

// ShowAdmin reports whether is_admin is editable.
func (f *UserForm) ShowAdmin() bool {
	return f.canGrantAdmin
}

// AdminChecked reports whether the is_admin checkbox should render checked.
func (f *UserForm) AdminChecked() bool {
	return checkbox(f.Get(FieldIsAdmin))
}

// Fields returns the editable field set.
func (f *UserForm) Fields() []string {
	fields := []string{FieldUserName, FieldUserEmail, FieldUserLogin, FieldPassword, FieldConfirmPassword}
	if f.canGrantAdmin {
		fields = append(fields, FieldIsAdmin)
	}
	return fields
}

func checkbox(v string) bool {
	switch v {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
