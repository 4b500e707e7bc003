package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

// Capabilities are what the acting user may do to other users of their company.
type Capabilities struct {
	// PrimaryAdmin is the company's lowest-id admin.
	PrimaryAdmin *models.User
	// GrantAdmin is true only when the actor is the primary admin.
	GrantAdmin bool
}

// IsPrimaryAdmin reports whether u is the company's primary admin.
func (c Capabilities) IsPrimaryAdmin(u *models.User) bool {
	return c.PrimaryAdmin.SameAs(u)
}

// ResolveCapabilities looks up the primary admin of the actor's company and
// derives what the actor may change.
func ResolveCapabilities(ctx context.Context, users store.UserStore, ac AuthContext) (Capabilities, error) {
	if ac.User == nil || ac.Company == nil {
		return Capabilities{}, ErrUnauthenticated
	}

	primary, err := users.PrimaryAdmin(ctx, ac.Company.CompanyID)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		return Capabilities{}, fmt.Errorf("failed to resolve primary admin: %w", err)
	}

	return Capabilities{
		PrimaryAdmin: primary,
		GrantAdmin:   primary.SameAs(ac.User),
	}, nil
}
