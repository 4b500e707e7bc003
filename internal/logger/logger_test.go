package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestHTTPRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := NewHTTPRequests(logger).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Ctx(r.Context()).Debug().Msg("inside handler")
		http.Redirect(w, r, "/login", http.StatusFound)
	}))

	r := httptest.NewRequest(http.MethodGet, "/products", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusFound, w.Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	require.Equal(t, "http request", entry["message"])
	require.Equal(t, "GET", entry["method"])
	require.Equal(t, "/products", entry["path"])
	require.Equal(t, "192.0.2.1", entry["client_ip"])
	require.EqualValues(t, http.StatusFound, entry["status"])
	require.Equal(t, "info", entry["level"])
}

func TestHTTPRequests_serverError(t *testing.T) {
	var buf bytes.Buffer

	h := NewHTTPRequests(zerolog.New(&buf)).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.EqualValues(t, http.StatusInternalServerError, entry["status"])
	require.Equal(t, "error", entry["level"])
}
