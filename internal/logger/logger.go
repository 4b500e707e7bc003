package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	httpmiddleware "github.com/wolfeidau/stockroom/internal/http"
	"github.com/wolfeidau/stockroom/internal/telemetry"
)

// Setup builds the process logger: JSON to stderr, or a console writer in dev mode.
// It also becomes the default for contexts without a logger attached.
func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	zerolog.DefaultContextLogger = &logger

	return logger
}

// HTTPRequests attaches the logger to each request context and logs the
// outcome of every request.
type HTTPRequests struct {
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

func NewHTTPRequests(logger zerolog.Logger) *HTTPRequests {
	return &HTTPRequests{logger: logger, metrics: telemetry.GetMetrics()}
}

func (h *HTTPRequests) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		clientIP := httpmiddleware.ClientIP(r)
		ctx := h.logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("client_ip", clientIP).
			Logger().WithContext(r.Context())

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(started)
		h.metrics.RecordRequest(ctx, r.Method, rec.status, float64(duration.Microseconds())/1000)

		event := zerolog.Ctx(ctx).Info()
		if rec.status >= http.StatusInternalServerError {
			event = zerolog.Ctx(ctx).Error()
		}
		event.
			Int("status", rec.status).
			Dur("duration", duration).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
