package website

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/login"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/server"
)

//go:embed templates
var templateFS embed.FS

type pages struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"price": func(p *models.Product) string {
		if !p.Price.Valid {
			return "-"
		}
		return p.Price.Decimal.StringFixed(2)
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

func loadPages() (*pages, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	p := &pages{templates: make(map[string]*template.Template)}
	for _, file := range files {
		name := file[len("templates/") : len(file)-len(".html")]
		if name == "base" {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		p.templates[name] = tmpl
	}

	return p, nil
}

// page is the data every template receives.
type page struct {
	Title   string
	User    *models.User
	Company *models.Company
	Flashes []models.Flash
	Data    any
}

// render executes a page and consumes the session's flashes.
func (s *Website) render(w http.ResponseWriter, r *http.Request, status int, name, title string, ac *auth.AuthContext, data any) {
	tmpl, ok := s.pages.templates[name]
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}

	p := page{Title: title, Data: data}
	if ac != nil {
		p.User = ac.User
		p.Company = ac.Company
	}
	sess, sessOK := login.FromContext(r.Context())
	if sessOK {
		p.Flashes = sess.TakeFlashes()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", p); err != nil {
		if sessOK {
			sess.Flashes = append(p.Flashes, sess.Flashes...)
		}
		s.serverError(w, r, fmt.Errorf("failed to render %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect queues a flash and sends the client to target.
func (s *Website) redirect(w http.ResponseWriter, r *http.Request, target, level, message string) {
	if message != "" {
		if sess, ok := login.FromContext(r.Context()); ok {
			sess.AddFlash(level, message)
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// fail converts a service error into a response. NotFound renders a 404 page
// for page loads and redirects to listURL for submissions. Forbidden always
// redirects to listURL.
func (s *Website) fail(w http.ResponseWriter, r *http.Request, err error, listURL string) {
	e, ok := server.AsError(err)
	if !ok {
		s.serverError(w, r, err)
		return
	}

	switch {
	case errors.Is(e, server.ErrNotFound):
		if r.Method == http.MethodGet {
			s.renderStatus(w, r, http.StatusNotFound, e.Message)
			return
		}
		s.redirect(w, r, listURL, models.FlashError, e.Message)
	case errors.Is(e, server.ErrForbidden):
		s.redirect(w, r, listURL, models.FlashError, e.Message)
	default:
		s.serverError(w, r, err)
	}
}

func (s *Website) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusNotFound, "Page not found.")
}

func (s *Website) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	s.renderStatus(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// renderStatus writes a bare error page. It never fails over to serverError.
func (s *Website) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	tmpl := s.pages.templates["error"]

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", page{Title: http.StatusText(status), Data: message}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to render error page")
		http.Error(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// session returns the request's session. Middleware guarantees one exists.
func (s *Website) session(r *http.Request) (*models.Session, error) {
	sess, ok := login.FromContext(r.Context())
	if !ok {
		return nil, errNoSession
	}
	return sess, nil
}

type authedHandler func(w http.ResponseWriter, r *http.Request, ac auth.AuthContext)

func (s *Website) withUser(h authedHandler) http.HandlerFunc {
	return s.guarded(s.requireUser, h)
}

func (s *Website) withAdmin(h authedHandler) http.HandlerFunc {
	return s.guarded(s.requireAdmin, h)
}

// guarded runs the guard chain and turns a denial into an error flash and redirect.
func (s *Website) guarded(g *auth.Guard, h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, err := s.session(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		ac, outcome := g.Run(ctx, sess)
		if !outcome.Allowed {
			s.metrics.RecordGuardDenial(ctx, outcome.Check)
			if outcome.Redirect == "" {
				s.serverError(w, r, fmt.Errorf("%s check failed: %w", outcome.Check, outcome.Err))
				return
			}
			s.redirect(w, r, outcome.Redirect, models.FlashError, outcome.Message)
			return
		}

		h(w, r, ac)
	}
}

// pathID parses the {id} path segment. Non-numeric ids are reported as not found.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseForm parses the submitted body, rendering a 400 on failure.
func (s *Website) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("Failed to parse form")
		s.renderStatus(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return false
	}
	return true
}

// rejected pulls the user-visible message and field errors out of a
// validation, conflict or auth error. ok is false for any other error.
func rejected(err error) (*server.Error, bool) {
	e, ok := server.AsError(err)
	if !ok {
		return nil, false
	}
	if errors.Is(e, server.ErrValidation) || errors.Is(e, server.ErrConflict) || errors.Is(e, server.ErrAuth) {
		return e, true
	}
	return nil, false
}
