package server

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/forms"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
	"github.com/wolfeidau/stockroom/internal/store/memory"
)

type tenant struct {
	company *models.Company
	admin   *models.User
	ctx     auth.AuthContext
}

type fixture struct {
	stores   store.Stores
	accounts *AccountService
	products *ProductService
	users    *UserService
}

func newFixture() *fixture {
	stores := memory.NewStores()
	return &fixture{
		stores:   stores,
		accounts: NewAccountService(stores),
		products: NewProductService(stores),
		users:    NewUserService(stores),
	}
}

func newSession() *models.Session {
	now := time.Now()
	return &models.Session{
		SessionID: uuid.Must(uuid.NewV7()),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func registration(company, login string) Registration {
	return Registration{
		CompanyName:     company,
		AdminName:       "Admin " + login,
		Email:           login + "@example.com",
		Login:           login,
		Password:        "p1",
		ConfirmPassword: "p1",
	}
}

func (f *fixture) register(t *testing.T, company, login string) *tenant {
	t.Helper()
	c, admin, err := f.accounts.Register(context.Background(), newSession(), registration(company, login))
	require.NoError(t, err)
	return &tenant{company: c, admin: admin, ctx: auth.AuthContext{User: admin, Company: c}}
}

// as returns an auth context for another user of the tenant's company.
func (tn *tenant) as(u *models.User) auth.AuthContext {
	return auth.AuthContext{User: u, Company: tn.company}
}

func userValues(name, login, password string, isAdmin bool) url.Values {
	v := url.Values{}
	v.Set(forms.FieldUserName, name)
	v.Set(forms.FieldUserEmail, login+"@example.com")
	v.Set(forms.FieldUserLogin, login)
	v.Set(forms.FieldPassword, password)
	v.Set(forms.FieldConfirmPassword, password)
	if isAdmin {
		v.Set(forms.FieldIsAdmin, "on")
	}
	return v
}

func productValues(name, quantity, price string) url.Values {
	v := url.Values{}
	v.Set(forms.FieldProductName, name)
	v.Set(forms.FieldProductQuantity, quantity)
	v.Set(forms.FieldProductPrice, price)
	return v
}

func requireKind(t *testing.T, err error, kind error) *Error {
	t.Helper()
	require.ErrorIs(t, err, kind)
	e, ok := AsError(err)
	require.True(t, ok)
	return e
}
