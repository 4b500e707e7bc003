package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/forms"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
	"github.com/wolfeidau/stockroom/internal/telemetry"
)

// User-visible user management messages.
const (
	MsgUserNotFound       = "User not found."
	MsgNotAdmin           = "You do not have administrator permission to access this page."
	MsgPrimaryAdminEdit   = "You cannot edit the profile of the company's primary administrator."
	MsgPrimaryAdminDelete = "The company's primary administrator cannot be deleted."
	MsgSelfDelete         = "You cannot delete your own administrator account."
	MsgUserFormInvalid    = "An error occurred while saving the user. Check the data."
)

// UserService manages the users of the acting admin's company.
type UserService struct {
	users   store.UserStore
	metrics *telemetry.Metrics
}

// NewUserService creates a new user service.
func NewUserService(stores store.Stores) *UserService {
	return &UserService{
		users:   stores.Users,
		metrics: telemetry.GetMetrics(),
	}
}

// UserList is the roster of a company.
type UserList struct {
	Users        []*models.User
	PrimaryAdmin *models.User
}

// IsPrimaryAdmin reports whether u is the listed company's primary admin.
func (l *UserList) IsPrimaryAdmin(u *models.User) bool {
	return l.PrimaryAdmin.SameAs(u)
}

// Capabilities resolves what the actor may change on other users.
func (s *UserService) Capabilities(ctx context.Context, ac auth.AuthContext) (auth.Capabilities, error) {
	if err := s.requireAdmin(ctx, ac); err != nil {
		return auth.Capabilities{}, err
	}
	return auth.ResolveCapabilities(ctx, s.users, ac)
}

// List returns the users of the actor's company and its primary admin.
func (s *UserService) List(ctx context.Context, ac auth.AuthContext) (*UserList, error) {
	caps, err := s.Capabilities(ctx, ac)
	if err != nil {
		return nil, err
	}

	users, err := s.users.ListByCompany(ctx, ac.Company.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserList{Users: users, PrimaryAdmin: caps.PrimaryAdmin}, nil
}

// Create validates the form and adds a user to the actor's company.
// The admin flag is only honoured when the actor is the primary admin.
func (s *UserService) Create(ctx context.Context, ac auth.AuthContext, f *forms.UserForm) (*models.User, error) {
	caps, err := s.Capabilities(ctx, ac)
	if err != nil {
		return nil, err
	}

	if !f.Valid() {
		return nil, ValidationError(MsgUserFormInvalid, f.Errors)
	}

	if err := checkLoginAndEmail(ctx, s.users, f.Login, f.Email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(f.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		CompanyID:    ac.Company.CompanyID,
		Name:         f.Name,
		Email:        f.Email,
		Login:        f.Login,
		PasswordHash: hash,
		IsAdmin:      caps.GrantAdmin && f.IsAdmin,
	}
	if f.IsAdmin && !caps.GrantAdmin {
		log.Ctx(ctx).Warn().
			Int64("user_id", ac.User.UserID).
			Msg("Ignoring is_admin from non-primary admin")
	}

	if err := s.users.Create(ctx, u); err != nil {
		if conflict := conflictFromStore(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.RecordUserMutation(ctx, "create")
	log.Ctx(ctx).Info().
		Int64("user_id", u.UserID).
		Int64("company_id", u.CompanyID).
		Bool("is_admin", u.IsAdmin).
		Msg("User created")

	return u, nil
}

// GetForEdit loads a user of the actor's company that may be edited.
// The returned capabilities decide whether is_admin is editable.
func (s *UserService) GetForEdit(ctx context.Context, ac auth.AuthContext, userID int64) (*models.User, auth.Capabilities, error) {
	caps, err := s.Capabilities(ctx, ac)
	if err != nil {
		return nil, auth.Capabilities{}, err
	}

	target, err := s.scoped(ctx, ac, userID)
	if err != nil {
		return nil, auth.Capabilities{}, err
	}

	if caps.IsPrimaryAdmin(target) {
		log.Ctx(ctx).Warn().
			Int64("user_id", ac.User.UserID).
			Int64("target_id", target.UserID).
			Msg("Primary admin edit denied")
		return nil, auth.Capabilities{}, ForbiddenError(MsgPrimaryAdminEdit)
	}

	return target, caps, nil
}

// Update validates the form and overwrites the target user.
// A blank password keeps the stored hash. The admin flag changes only for a primary admin actor.
func (s *UserService) Update(ctx context.Context, ac auth.AuthContext, userID int64, f *forms.UserForm) (*models.User, error) {
	target, caps, err := s.GetForEdit(ctx, ac, userID)
	if err != nil {
		return nil, err
	}

	if !f.Valid() {
		return nil, ValidationError(MsgUserFormInvalid, f.Errors)
	}

	if err := checkLoginAndEmail(ctx, s.users, f.Login, f.Email, target.UserID); err != nil {
		return nil, err
	}

	target.Name = f.Name
	target.Email = f.Email
	target.Login = f.Login

	if f.Password != "" {
		hash, err := auth.HashPassword(f.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		target.PasswordHash = hash
	}

	if caps.GrantAdmin {
		target.IsAdmin = f.IsAdmin
	}

	if err := s.users.Update(ctx, target); err != nil {
		if conflict := conflictFromStore(err); conflict != nil {
			return nil, conflict
		}
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, NotFoundError(MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.metrics.RecordUserMutation(ctx, "update")
	log.Ctx(ctx).Info().
		Int64("user_id", target.UserID).
		Bool("is_admin", target.IsAdmin).
		Msg("User updated")

	return target, nil
}

// GetForDelete loads a user of the actor's company that may be deleted.
// The primary admin and the actor themselves are protected.
func (s *UserService) GetForDelete(ctx context.Context, ac auth.AuthContext, userID int64) (*models.User, error) {
	caps, err := s.Capabilities(ctx, ac)
	if err != nil {
		return nil, err
	}

	target, err := s.scoped(ctx, ac, userID)
	if err != nil {
		return nil, err
	}

	if caps.IsPrimaryAdmin(target) {
		log.Ctx(ctx).Warn().
			Int64("user_id", ac.User.UserID).
			Int64("target_id", target.UserID).
			Msg("Primary admin delete denied")
		return nil, ForbiddenError(MsgPrimaryAdminDelete)
	}

	if target.SameAs(ac.User) {
		log.Ctx(ctx).Warn().
			Int64("user_id", ac.User.UserID).
			Msg("Self delete denied")
		return nil, ForbiddenError(MsgSelfDelete)
	}

	return target, nil
}

// Delete removes a user from the actor's company.
// Sessions bound to the deleted user go stale and are cleared on their next request.
func (s *UserService) Delete(ctx context.Context, ac auth.AuthContext, userID int64) (*models.User, error) {
	target, err := s.GetForDelete(ctx, ac, userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.Delete(ctx, ac.Company.CompanyID, target.UserID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, NotFoundError(MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	s.metrics.RecordUserMutation(ctx, "delete")
	log.Ctx(ctx).Info().Int64("user_id", target.UserID).Msg("User deleted")

	return target, nil
}

// scoped loads a user only if it belongs to the actor's company.
func (s *UserService) scoped(ctx context.Context, ac auth.AuthContext, userID int64) (*models.User, error) {
	u, err := s.users.GetInCompany(ctx, ac.Company.CompanyID, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, NotFoundError(MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserService) requireAdmin(ctx context.Context, ac auth.AuthContext) error {
	if ac.User == nil || ac.Company == nil {
		return ForbiddenError(MsgNotAdmin)
	}
	if !ac.User.IsAdmin {
		log.Ctx(ctx).Warn().Int64("user_id", ac.User.UserID).Msg("Non-admin user management denied")
		return ForbiddenError(MsgNotAdmin)
	}
	return nil
}
