package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

var (
	// ErrUnauthenticated is returned when the session has no live user.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the user lacks the required privilege.
	ErrForbidden = errors.New("forbidden")
)

// Redirect targets for denied requests.
const (
	LoginURL       = "/login"
	ProductListURL = "/products"
)

// Check names, used in logs and metrics.
const (
	CheckSession = "session"
	CheckAdmin   = "admin"
)

// AuthContext identifies the acting user and their company.
// It is produced by the guard chain and passed explicitly to handlers.
type AuthContext struct {
	User    *models.User
	Company *models.Company
}

// Outcome is the result of a single check or a whole chain.
type Outcome struct {
	Allowed bool

	// Check names the check that denied the request.
	Check string
	// Redirect is where the client should be sent on denial.
	Redirect string
	// Message is the user-visible flash for the denial.
	Message string
	// Err is ErrUnauthenticated, ErrForbidden or an unexpected storage error.
	Err error
}

// Allow returns an allowing outcome.
func Allow() Outcome {
	return Outcome{Allowed: true}
}

// Deny returns a denying outcome.
func Deny(check, redirect, message string, err error) Outcome {
	return Outcome{
		Check:    check,
		Redirect: redirect,
		Message:  message,
		Err:      err,
	}
}

// Check inspects the session and the AuthContext built so far.
// A check may fill in ac for the checks that follow it.
type Check func(ctx context.Context, sess *models.Session, ac *AuthContext) Outcome

// Guard is an ordered list of checks.
type Guard struct {
	checks []Check
}

// Chain composes checks in order. The first denial wins.
func Chain(checks ...Check) *Guard {
	return &Guard{checks: checks}
}

// Run executes the checks against the session.
func (g *Guard) Run(ctx context.Context, sess *models.Session) (AuthContext, Outcome) {
	var ac AuthContext
	for _, check := range g.checks {
		outcome := check(ctx, sess, &ac)
		if !outcome.Allowed {
			log.Ctx(ctx).Debug().
				Str("check", outcome.Check).
				Str("redirect", outcome.Redirect).
				AnErr("reason", outcome.Err).
				Msg("Guard denied request")
			return AuthContext{}, outcome
		}
	}
	return ac, Allow()
}

// SessionCheck resolves the session's user id to a live user and company.
// A user id that no longer resolves is cleared from the session.
func SessionCheck(users store.UserStore, companies store.CompanyStore) Check {
	return func(ctx context.Context, sess *models.Session, ac *AuthContext) Outcome {
		if sess == nil || sess.UserID == nil {
			return Deny(CheckSession, LoginURL, "You need to be logged in to access this page.", ErrUnauthenticated)
		}

		user, err := users.Get(ctx, *sess.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				sess.ClearUser()
				return Deny(CheckSession, LoginURL, "Invalid session. Please log in again.", ErrUnauthenticated)
			}
			return Deny(CheckSession, "", "", err)
		}

		company, err := companies.Get(ctx, user.CompanyID)
		if err != nil {
			if errors.Is(err, store.ErrCompanyNotFound) {
				sess.ClearUser()
				return Deny(CheckSession, LoginURL, "Invalid session. Please log in again.", ErrUnauthenticated)
			}
			return Deny(CheckSession, "", "", err)
		}

		ac.User = user
		ac.Company = company
		return Allow()
	}
}

// AdminCheck requires a resolved user with the admin flag.
// It must run after SessionCheck.
func AdminCheck() Check {
	return func(ctx context.Context, sess *models.Session, ac *AuthContext) Outcome {
		if ac.User == nil {
			return Deny(CheckAdmin, LoginURL, "You need to be logged in to access this page.", ErrUnauthenticated)
		}
		if !ac.User.IsAdmin {
			return Deny(CheckAdmin, ProductListURL, "You do not have administrator permission to access this page.", ErrForbidden)
		}
		return Allow()
	}
}

// RequireUser gates product operations.
func RequireUser(users store.UserStore, companies store.CompanyStore) *Guard {
	return Chain(SessionCheck(users, companies))
}

// RequireAdmin gates user management operations.
func RequireAdmin(users store.UserStore, companies store.CompanyStore) *Guard {
	return Chain(SessionCheck(users, companies), AdminCheck())
}
