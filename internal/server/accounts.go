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

// User-visible account messages.
const (
	MsgPasswordMismatch = "Passwords do not match."
	MsgCompanyExists    = "A company with this name already exists."
	MsgLoginTaken       = "This login is already in use."
	MsgEmailTaken       = "This email is already in use."
	MsgBadCredentials   = "Invalid login or password."
)

// AccountService handles registration, login and logout.
type AccountService struct {
	companies store.CompanyStore
	users     store.UserStore
	metrics   *telemetry.Metrics
}

// NewAccountService creates a new account service.
func NewAccountService(stores store.Stores) *AccountService {
	return &AccountService{
		companies: stores.Companies,
		users:     stores.Users,
		metrics:   telemetry.GetMetrics(),
	}
}

// Registration is the input to Register.
type Registration struct {
	CompanyName     string
	AdminName       string
	Email           string
	Login           string
	Password        string
	ConfirmPassword string
}

// RegistrationFromForm copies cleaned registration form values.
func RegistrationFromForm(f *forms.RegistrationForm) Registration {
	return Registration{
		CompanyName:     f.CompanyName,
		AdminName:       f.AdminName,
		Email:           f.Email,
		Login:           f.Login,
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
	}
}

// Register creates a company with its primary admin and binds the session to the admin.
// Uniqueness is checked in order: company name, login, email.
func (s *AccountService) Register(ctx context.Context, sess *models.Session, reg Registration) (*models.Company, *models.User, error) {
	company, admin, err := s.register(ctx, reg)
	if err != nil {
		s.metrics.RecordRegistration(ctx, "failure")
		return nil, nil, err
	}

	sess.SetUser(admin.UserID)
	s.metrics.RecordRegistration(ctx, "success")

	log.Ctx(ctx).Info().
		Int64("company_id", company.CompanyID).
		Int64("user_id", admin.UserID).
		Msg("Company registered")

	return company, admin, nil
}

func (s *AccountService) register(ctx context.Context, reg Registration) (*models.Company, *models.User, error) {
	if reg.Password != reg.ConfirmPassword {
		return nil, nil, ValidationError(MsgPasswordMismatch, map[string]string{
			forms.FieldConfirmPassword: MsgPasswordMismatch,
		})
	}

	// Pre-checks race with concurrent registrations; the store constraints are the backstop.
	if _, err := s.companies.GetByName(ctx, reg.CompanyName); err == nil {
		return nil, nil, ConflictError(forms.FieldCompanyName, MsgCompanyExists)
	} else if !errors.Is(err, store.ErrCompanyNotFound) {
		return nil, nil, fmt.Errorf("failed to check company name: %w", err)
	}

	if err := checkLoginAndEmail(ctx, s.users, reg.Login, reg.Email, 0); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmptyPassword) {
			return nil, nil, ValidationError("Password is required.", map[string]string{
				forms.FieldPassword: "This field is required.",
			})
		}
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	company := &models.Company{Name: reg.CompanyName}
	admin := &models.User{
		Name:         reg.AdminName,
		Email:        reg.Email,
		Login:        reg.Login,
		PasswordHash: hash,
		IsAdmin:      true,
	}

	if err := s.companies.CreateWithAdmin(ctx, company, admin); err != nil {
		if conflict := conflictFromStore(err); conflict != nil {
			return nil, nil, conflict
		}
		return nil, nil, fmt.Errorf("failed to create company: %w", err)
	}

	return company, admin, nil
}

// checkLoginAndEmail reports a conflict if another user holds login or email.
// selfID is the user being edited, or 0 when creating.
func checkLoginAndEmail(ctx context.Context, users store.UserStore, login, email string, selfID int64) error {
	existing, err := users.GetByLogin(ctx, login)
	switch {
	case err == nil && existing.UserID != selfID:
		return ConflictError(forms.FieldLogin, MsgLoginTaken)
	case err != nil && !errors.Is(err, store.ErrUserNotFound):
		return fmt.Errorf("failed to check login: %w", err)
	}

	existing, err = users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.UserID != selfID:
		return ConflictError(forms.FieldEmail, MsgEmailTaken)
	case err != nil && !errors.Is(err, store.ErrUserNotFound):
		return fmt.Errorf("failed to check email: %w", err)
	}

	return nil
}

// Login verifies credentials and binds the session to the user.
// Both failure kinds carry the same user-visible message.
func (s *AccountService) Login(ctx context.Context, sess *models.Session, login, password string) (*models.User, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Ctx(ctx).Debug().Str("login", login).Msg("Login not found")
			s.metrics.RecordLogin(ctx, "unknown_login")
			return nil, NotFoundError(MsgBadCredentials)
		}
		return nil, fmt.Errorf("failed to look up login: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		log.Ctx(ctx).Debug().Int64("user_id", user.UserID).Msg("Password mismatch")
		s.metrics.RecordLogin(ctx, "bad_password")
		return nil, AuthError(MsgBadCredentials)
	}

	sess.SetUser(user.UserID)
	s.metrics.RecordLogin(ctx, "success")

	log.Ctx(ctx).Info().Int64("user_id", user.UserID).Msg("User logged in")

	return user, nil
}

// Logout clears the session identity. It is safe to call without a session.
func (s *AccountService) Logout(ctx context.Context, sess *models.Session) {
	if sess == nil {
		return
	}
	if sess.UserID != nil {
		log.Ctx(ctx).Info().Int64("user_id", *sess.UserID).Msg("User logged out")
	}
	sess.ClearUser()
}

// conflictFromStore maps store uniqueness sentinels to conflict errors.
func conflictFromStore(err error) *Error {
	switch {
	case errors.Is(err, store.ErrCompanyAlreadyExists):
		return ConflictError(forms.FieldCompanyName, MsgCompanyExists)
	case errors.Is(err, store.ErrLoginTaken):
		return ConflictError(forms.FieldLogin, MsgLoginTaken)
	case errors.Is(err, store.ErrEmailTaken):
		return ConflictError(forms.FieldEmail, MsgEmailTaken)
	}
	return nil
}
