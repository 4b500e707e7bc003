package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
	"github.com/wolfeidau/stockroom/internal/store/memory"
)

func newTestSessions(t *testing.T) (*Sessions, store.SessionStore) {
	t.Helper()
	sessions := memory.NewSessionStore()
	m, err := NewSessions(sessions, Config{TTL: time.Hour})
	require.NoError(t, err)
	return m, sessions
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestNewSessions(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewSessions(nil, Config{TTL: time.Hour})
		require.Error(t, err)
	})

	t.Run("requires positive ttl", func(t *testing.T) {
		_, err := NewSessions(memory.NewSessionStore(), Config{})
		require.Error(t, err)
	})
}

func TestSessions_Middleware(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous session without state is not stored", func(t *testing.T) {
		m, sessions := newTestSessions(t)

		var seen *models.Session
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := FromContext(r.Context())
			require.True(t, ok)
			seen = sess
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		require.Empty(t, rec.Result().Cookies())

		_, err := sessions.Get(ctx, seen.SessionID)
		require.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("stores new session once it has a flash", func(t *testing.T) {
		m, sessions := newTestSessions(t)

		var seen *models.Session
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = FromContext(r.Context())
			seen.AddFlash(models.FlashInfo, "hi")
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.RemoteAddr = "192.0.2.10:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		cookie := sessionCookie(t, rec)
		require.Equal(t, seen.SessionID.String(), cookie.Value)
		require.True(t, cookie.HttpOnly)
		require.Equal(t, 3600, cookie.MaxAge)

		stored, err := sessions.Get(ctx, seen.SessionID)
		require.NoError(t, err)
		require.Nil(t, stored.UserID)
		require.Equal(t, "test-agent", stored.UserAgent)
		require.Equal(t, "192.0.2.10", stored.IPAddress)
	})

	t.Run("persists changes before the response", func(t *testing.T) {
		m, sessions := newTestSessions(t)

		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := FromContext(r.Context())
			sess.SetUser(42)
			sess.AddFlash(models.FlashSuccess, "hello")
			http.Redirect(w, r, "/next", http.StatusFound)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusFound, rec.Code)

		id, err := uuid.Parse(sessionCookie(t, rec).Value)
		require.NoError(t, err)

		stored, err := sessions.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, int64(42), *stored.UserID)
		require.Equal(t, []models.Flash{{Level: models.FlashSuccess, Message: "hello"}}, stored.Flashes)
	})

	t.Run("reuses existing session", func(t *testing.T) {
		m, sessions := newTestSessions(t)

		now := time.Now()
		existing := &models.Session{
			SessionID: uuid.Must(uuid.NewV7()),
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}
		require.NoError(t, sessions.Create(ctx, existing))

		var seen uuid.UUID
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := FromContext(r.Context())
			seen = sess.SessionID
			sess.AddFlash(models.FlashInfo, "again")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: existing.SessionID.String()})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, existing.SessionID, seen)
		require.Empty(t, rec.Result().Cookies())

		stored, err := sessions.Get(ctx, existing.SessionID)
		require.NoError(t, err)
		require.Len(t, stored.Flashes, 1)
	})

	t.Run("replaces expired or unknown session", func(t *testing.T) {
		m, sessions := newTestSessions(t)

		now := time.Now()
		expired := &models.Session{
			SessionID: uuid.Must(uuid.NewV7()),
			CreatedAt: now.Add(-2 * time.Hour),
			ExpiresAt: now.Add(-time.Hour),
		}
		require.NoError(t, sessions.Create(ctx, expired))

		for _, value := range []string{expired.SessionID.String(), uuid.Must(uuid.NewV7()).String(), "garbage"} {
			h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sess, _ := FromContext(r.Context())
				sess.AddFlash(models.FlashInfo, "fresh")
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: value})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			cookie := sessionCookie(t, rec)
			require.NotEqual(t, value, cookie.Value)
		}
	})
}

func TestSessions_Rotate(t *testing.T) {
	ctx := context.Background()

	t.Run("moves a stored session to a new id", func(t *testing.T) {
		m, sessions := newTestSessions(t)

		now := time.Now()
		existing := &models.Session{
			SessionID: uuid.Must(uuid.NewV7()),
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
			Flashes:   []models.Flash{{Level: models.FlashError, Message: "pending"}},
		}
		require.NoError(t, sessions.Create(ctx, existing))

		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := FromContext(r.Context())
			sess.SetUser(7)
			require.NoError(t, m.Rotate(r.Context()))
			http.Redirect(w, r, "/products", http.StatusFound)
		}))

		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: existing.SessionID.String()})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		cookie := sessionCookie(t, rec)
		require.NotEqual(t, existing.SessionID.String(), cookie.Value)

		_, err := sessions.Get(ctx, existing.SessionID)
		require.ErrorIs(t, err, store.ErrSessionNotFound)

		rotated, err := sessions.Get(ctx, uuid.MustParse(cookie.Value))
		require.NoError(t, err)
		require.Equal(t, int64(7), *rotated.UserID)
		require.Equal(t, []models.Flash{{Level: models.FlashError, Message: "pending"}}, rotated.Flashes)
	})

	t.Run("new anonymous session", func(t *testing.T) {
		m, sessions := newTestSessions(t)

		var first uuid.UUID
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := FromContext(r.Context())
			first = sess.SessionID
			sess.SetUser(9)
			require.NoError(t, m.Rotate(r.Context()))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))

		cookie := sessionCookie(t, rec)
		require.NotEqual(t, first.String(), cookie.Value)

		stored, err := sessions.Get(ctx, uuid.MustParse(cookie.Value))
		require.NoError(t, err)
		require.Equal(t, int64(9), *stored.UserID)
	})

	t.Run("requires middleware", func(t *testing.T) {
		m, _ := newTestSessions(t)
		require.Error(t, m.Rotate(ctx))
	})
}

func TestSessions_PruneExpired(t *testing.T) {
	ctx := context.Background()
	m, sessions := newTestSessions(t)

	now := time.Now()
	expired := &models.Session{SessionID: uuid.Must(uuid.NewV7()), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	live := &models.Session{SessionID: uuid.Must(uuid.NewV7()), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, sessions.Create(ctx, expired))
	require.NoError(t, sessions.Create(ctx, live))

	require.Equal(t, 1, m.pruneOnce(ctx))

	_, err := sessions.Get(ctx, expired.SessionID)
	require.ErrorIs(t, err, store.ErrSessionNotFound)
	_, err = sessions.Get(ctx, live.SessionID)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	m.PruneExpired(cancelled, time.Millisecond)
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	sess := &models.Session{SessionID: uuid.Must(uuid.NewV7())}
	got, ok := FromContext(WithSession(context.Background(), sess))
	require.True(t, ok)
	require.Same(t, sess, got)
}
