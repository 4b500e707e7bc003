package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	httpmiddleware "github.com/wolfeidau/stockroom/internal/http"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

// DefaultCookieName is the name of the session cookie.
const DefaultCookieName = "_session"

type contextKey string

const sessionContextKey contextKey = "session"

// Config configures the session cookie.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Sessions loads the browser session for every request and persists it
// before the first byte of the response is written.
type Sessions struct {
	store      store.SessionStore
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessions creates a session manager backed by sessions.
func NewSessions(sessions store.SessionStore, cfg Config) (*Sessions, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}

	return &Sessions{
		store:      sessions,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}, nil
}

// Middleware attaches a session to the request context. Requests without a
// valid session cookie get a fresh anonymous session, which is only stored
// (and its cookie set) once it holds a user or a flash.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, stored, err := s.load(ctx, r)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to load session")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		st := &state{sess: sess, stored: stored}
		sw := &sessionWriter{ResponseWriter: w, save: func() {
			if err := s.persist(ctx, w, st); err != nil {
				log.Ctx(ctx).Error().Err(err).Str("session_id", sess.SessionID.String()).Msg("Failed to save session")
			}
		}}

		next.ServeHTTP(sw, r.WithContext(withState(ctx, st)))
		sw.flush()
	})
}

// Rotate moves the request's session to a new id, keeping its user and
// flashes. The old row is deleted and the cookie replaced when the response is
// committed. Call it whenever the session's identity changes.
func (s *Sessions) Rotate(ctx context.Context) error {
	st, ok := ctx.Value(sessionContextKey).(*state)
	if !ok {
		return errors.New("no session in context")
	}

	sessionID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate session ID: %w", err)
	}

	if st.stored {
		previous := st.sess.SessionID
		st.retired = &previous
	}

	now := time.Now()
	st.sess.SessionID = sessionID
	st.sess.CreatedAt = now
	st.sess.ExpiresAt = now.Add(s.ttl)
	st.sess.LastUsedAt = now
	st.stored = false

	log.Ctx(ctx).Debug().Str("session_id", sessionID.String()).Msg("Rotated session")
	return nil
}

func (s *Sessions) load(ctx context.Context, r *http.Request) (*models.Session, bool, error) {
	if cookie, err := r.Cookie(s.cookieName); err == nil {
		sessionID, err := uuid.Parse(cookie.Value)
		if err != nil {
			log.Ctx(ctx).Debug().Msg("Invalid session cookie")
		} else {
			sess, err := s.store.Get(ctx, sessionID)
			switch {
			case err == nil:
				return sess, true, nil
			case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, store.ErrSessionExpired):
				log.Ctx(ctx).Debug().Err(err).Str("session_id", sessionID.String()).Msg("Replacing session")
			default:
				return nil, false, fmt.Errorf("failed to get session: %w", err)
			}
		}
	}

	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	return &models.Session{
		SessionID:  sessionID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
		LastUsedAt: now,
		UserAgent:  r.UserAgent(),
		IPAddress:  httpmiddleware.ClientIP(r),
	}, false, nil
}

func (s *Sessions) persist(ctx context.Context, w http.ResponseWriter, st *state) error {
	sess := st.sess
	switch {
	case st.stored:
		if err := s.store.Save(ctx, sess); err != nil {
			return err
		}
	case sess.UserID != nil || len(sess.Flashes) > 0:
		if err := s.store.Create(ctx, sess); err != nil {
			return err
		}
		st.stored = true
		s.setCookie(w, sess)
	}

	if st.retired != nil {
		err := s.store.Delete(ctx, *st.retired)
		if err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			return fmt.Errorf("failed to delete rotated session: %w", err)
		}
		st.retired = nil
	}
	return nil
}

// PruneExpired deletes expired sessions every interval until ctx is done.
func (s *Sessions) PruneExpired(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pruneOnce(ctx)
		}
	}
}

func (s *Sessions) pruneOnce(ctx context.Context) int {
	count, err := s.store.DeleteExpired(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to prune expired sessions")
		return 0
	}
	if count > 0 {
		log.Ctx(ctx).Info().Int("count", count).Msg("Pruned expired sessions")
	}
	return count
}

func (s *Sessions) setCookie(w http.ResponseWriter, sess *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.SessionID.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
}

// state tracks one request's session between load and persist.
type state struct {
	sess    *models.Session
	stored  bool
	retired *uuid.UUID
}

func withState(ctx context.Context, st *state) context.Context {
	return context.WithValue(ctx, sessionContextKey, st)
}

// FromContext returns the session attached by Middleware.
func FromContext(ctx context.Context) (*models.Session, bool) {
	st, ok := ctx.Value(sessionContextKey).(*state)
	if !ok {
		return nil, false
	}
	return st.sess, true
}

// WithSession attaches an already stored sess to ctx.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return withState(ctx, &state{sess: sess, stored: true})
}

// sessionWriter persists the session once, just before the response is committed.
type sessionWriter struct {
	http.ResponseWriter
	save  func()
	saved bool
}

func (w *sessionWriter) flush() {
	if !w.saved {
		w.saved = true
		w.save()
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
