package website

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/forms"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/server"
)

func (s *Website) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", "Home", nil, nil)
}

func (s *Website) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", "Register your company", nil, forms.EmptyRegistrationForm())
}

func (s *Website) register(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	sess, err := s.session(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	f := forms.NewRegistrationForm(r.PostForm)
	if !f.Valid() {
		s.render(w, r, http.StatusUnprocessableEntity, "register", "Register your company", nil, f)
		return
	}

	company, _, err := s.accounts.Register(r.Context(), sess, server.RegistrationFromForm(f))
	if err != nil {
		e, ok := rejected(err)
		if !ok {
			s.serverError(w, r, err)
			return
		}
		f.AddErrors(e.Fields)
		sess.AddFlash(models.FlashError, e.Message)
		s.render(w, r, http.StatusUnprocessableEntity, "register", "Register your company", nil, f)
		return
	}

	if err := s.sessions.Rotate(r.Context()); err != nil {
		s.serverError(w, r, err)
		return
	}

	s.redirect(w, r, "/register/success", models.FlashSuccess,
		fmt.Sprintf("Company %q registered successfully!", company.Name))
}

// registerSuccess shows the new admin and company. A stale session is
// cleared and sent to login like any other unauthenticated request.
func (s *Website) registerSuccess(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	ac, outcome := s.requireUser.Run(r.Context(), sess)
	if !outcome.Allowed {
		if outcome.Redirect == "" {
			s.serverError(w, r, outcome.Err)
			return
		}
		http.Redirect(w, r, auth.LoginURL, http.StatusFound)
		return
	}

	s.render(w, r, http.StatusOK, "register_success", "Registration complete", &ac, nil)
}

func (s *Website) loginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", "Log in", nil, forms.EmptyLoginForm())
}

func (s *Website) login(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	sess, err := s.session(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	f := forms.NewLoginForm(r.PostForm)
	if !f.Valid() {
		s.render(w, r, http.StatusUnprocessableEntity, "login", "Log in", nil, f)
		return
	}

	user, err := s.accounts.Login(r.Context(), sess, f.Login, f.Password)
	if err != nil {
		if errors.Is(err, server.ErrNotFound) || errors.Is(err, server.ErrAuth) {
			e, _ := server.AsError(err)
			sess.AddFlash(models.FlashError, e.Message)
			s.render(w, r, http.StatusUnauthorized, "login", "Log in", nil, f)
			return
		}
		s.serverError(w, r, err)
		return
	}

	if err := s.sessions.Rotate(r.Context()); err != nil {
		s.serverError(w, r, err)
		return
	}

	s.redirect(w, r, auth.ProductListURL, models.FlashSuccess,
		fmt.Sprintf("Logged in successfully! Welcome, %s.", user.Name))
}

func (s *Website) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(r)
	s.accounts.Logout(r.Context(), sess)
	s.redirect(w, r, "/", models.FlashInfo, "You have been logged out.")
}
