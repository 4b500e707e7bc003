// Package website serves the HTML pages of the application.
package website

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"filippo.io/csrf"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/auth"
	httpmiddleware "github.com/wolfeidau/stockroom/internal/http"
	"github.com/wolfeidau/stockroom/internal/logger"
	"github.com/wolfeidau/stockroom/internal/login"
	"github.com/wolfeidau/stockroom/internal/server"
	"github.com/wolfeidau/stockroom/internal/store"
	"github.com/wolfeidau/stockroom/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config configures the website.
type Config struct {
	Logger zerolog.Logger

	SessionTTL   time.Duration
	CookieSecure bool

	// TrustProxy makes client IPs come from X-Forwarded-For / X-Real-IP.
	TrustProxy bool

	// RateLimitPerMinute limits login and registration posts per client IP.
	// Zero disables limiting.
	RateLimitPerMinute int
	RateLimitBurst     int

	// TrustedOrigins may submit cross-origin forms.
	TrustedOrigins []string

	// Pinger is checked by /healthz. Nil means always healthy.
	Pinger Pinger
}

// Website holds the services and middleware behind the HTML pages.
type Website struct {
	cfg Config

	accounts *server.AccountService
	products *server.ProductService
	users    *server.UserService

	requireUser  *auth.Guard
	requireAdmin *auth.Guard

	sessions *login.Sessions
	limiter  *httpmiddleware.RateLimiter
	csrf     func(http.Handler) http.Handler
	pages    *pages
	metrics  *telemetry.Metrics
}

// New creates the website over stores.
func New(stores store.Stores, cfg Config) (*Website, error) {
	sessions, err := login.NewSessions(stores.Sessions, login.Config{
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	protection := csrf.New()
	for _, origin := range cfg.TrustedOrigins {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("invalid trusted origin %q: %w", origin, err)
		}
	}

	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	return &Website{
		cfg:          cfg,
		accounts:     server.NewAccountService(stores),
		products:     server.NewProductService(stores),
		users:        server.NewUserService(stores),
		requireUser:  auth.RequireUser(stores.Users, stores.Companies),
		requireAdmin: auth.RequireAdmin(stores.Users, stores.Companies),
		sessions:     sessions,
		limiter:      httpmiddleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		csrf:         protection.Handler,
		pages:        pages,
		metrics:      telemetry.GetMetrics(),
	}, nil
}

// PruneSessions deletes expired sessions every interval until ctx is done.
func (s *Website) PruneSessions(ctx context.Context, interval time.Duration) {
	s.sessions.PruneExpired(ctx, interval)
}

// Handler returns the complete HTTP handler with middleware applied.
func (s *Website) Handler() http.Handler {
	app := http.NewServeMux()

	app.HandleFunc("GET /{$}", s.home)

	app.HandleFunc("GET /register", s.registerForm)
	app.Handle("POST /register", s.limiter.Middleware(http.HandlerFunc(s.register)))
	app.HandleFunc("GET /register/success", s.registerSuccess)

	app.HandleFunc("GET /login", s.loginForm)
	app.Handle("POST /login", s.limiter.Middleware(http.HandlerFunc(s.login)))
	app.HandleFunc("POST /logout", s.logout)

	app.HandleFunc("GET /products", s.withUser(s.productList))
	app.HandleFunc("GET /products/new", s.withUser(s.productNew))
	app.HandleFunc("POST /products/new", s.withUser(s.productCreate))
	app.HandleFunc("GET /products/{id}/edit", s.withUser(s.productEdit))
	app.HandleFunc("POST /products/{id}/edit", s.withUser(s.productUpdate))
	app.HandleFunc("GET /products/{id}/delete", s.withUser(s.productConfirmDelete))
	app.HandleFunc("POST /products/{id}/delete", s.withUser(s.productDelete))

	app.HandleFunc("GET /users", s.withAdmin(s.userList))
	app.HandleFunc("GET /users/new", s.withAdmin(s.userNew))
	app.HandleFunc("POST /users/new", s.withAdmin(s.userCreate))
	app.HandleFunc("GET /users/{id}/edit", s.withAdmin(s.userEdit))
	app.HandleFunc("POST /users/{id}/edit", s.withAdmin(s.userUpdate))
	app.HandleFunc("GET /users/{id}/delete", s.withAdmin(s.userConfirmDelete))
	app.HandleFunc("POST /users/{id}/delete", s.withAdmin(s.userDelete))

	app.HandleFunc("/", s.notFound)

	root := http.NewServeMux()
	// Health checks bypass the session and CSRF layers.
	root.HandleFunc("GET /healthz", s.health)
	root.Handle("/", s.csrf(s.sessions.Middleware(app)))

	var handler http.Handler = root
	handler = logger.NewHTTPRequests(s.cfg.Logger).Middleware(handler)
	handler = httpmiddleware.ClientIPMiddleware(s.cfg.TrustProxy)(handler)
	handler = otelhttp.NewHandler(handler, "stockroom",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	return handler
}

func (s *Website) health(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.cfg.Pinger.Ping(ctx); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

var errNoSession = errors.New("no session in request context")
