package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/stockroom/internal/logger"
	"github.com/wolfeidau/stockroom/internal/store"
	memorystore "github.com/wolfeidau/stockroom/internal/store/memory"
	postgresstore "github.com/wolfeidau/stockroom/internal/store/postgres"
	"github.com/wolfeidau/stockroom/internal/telemetry"
	"github.com/wolfeidau/stockroom/internal/website"
)

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"STOCKROOM_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"STOCKROOM_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"STOCKROOM_TLS_KEY"`

	// Session configuration
	SessionTTL   time.Duration `help:"session TTL" default:"168h" env:"STOCKROOM_SESSION_TTL"`
	CookieSecure bool          `help:"mark the session cookie Secure" default:"false" env:"STOCKROOM_COOKIE_SECURE"`
	SessionPrune time.Duration `help:"interval between expired session sweeps, 0 disables" default:"1h" env:"STOCKROOM_SESSION_PRUNE"`

	// Request protection
	TrustProxy         bool     `help:"take client IPs from X-Forwarded-For / X-Real-IP" default:"false" env:"STOCKROOM_TRUST_PROXY"`
	RateLimitPerMinute int      `help:"login and registration attempts per client IP per minute, 0 disables" default:"30" env:"STOCKROOM_RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int      `help:"burst allowance for login and registration attempts" default:"5" env:"STOCKROOM_RATE_LIMIT_BURST"`
	TrustedOrigins     []string `help:"origins allowed to submit cross-origin forms" env:"STOCKROOM_TRUSTED_ORIGINS"`

	Tracing          bool    `help:"enable tracing and metrics export" default:"false" env:"STOCKROOM_TRACING"`
	TraceSampleRatio float64 `help:"fraction of root traces sampled" default:"1.0" env:"STOCKROOM_TRACE_SAMPLE_RATIO"`

	// Store configuration
	StoreType     string             `name:"store" help:"store type (memory or postgres)" default:"memory" env:"STOCKROOM_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"STOCKROOM_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	if s.MinConns > s.MaxConns {
		return fmt.Errorf("--postgres-min-conns (%d) must not exceed --postgres-max-conns (%d)", s.MinConns, s.MaxConns)
	}
	return nil
}

func (s *PostgresStoreFlags) poolConfig(autoMigrate bool) *postgresstore.PoolConfig {
	return &postgresstore.PoolConfig{
		ConnString:      s.ConnString,
		MaxConns:        s.MaxConns,
		MinConns:        s.MinConns,
		MaxConnLifetime: s.MaxConnLifetime,
		MaxConnIdleTime: s.MaxConnIdleTime,
		AutoMigrate:     autoMigrate,
	}
}

// connect validates the flags and opens the shared pool.
func (s *PostgresStoreFlags) connect(ctx context.Context, autoMigrate bool) (*pgxpool.Pool, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
	}
	pool, err := postgresstore.NewPool(ctx, s.poolConfig(autoMigrate))
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return pool, nil
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Options{
			ServiceName: "stockroom",
			Version:     globals.Version,
			SampleRatio: c.TraceSampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
			shutdown = func(context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	stores, pinger, closeStores, err := c.createStores(ctx, log)
	if err != nil {
		return err
	}
	defer closeStores()

	site, err := website.New(stores, website.Config{
		Logger:             log,
		SessionTTL:         c.SessionTTL,
		CookieSecure:       c.CookieSecure,
		TrustProxy:         c.TrustProxy,
		RateLimitPerMinute: c.RateLimitPerMinute,
		RateLimitBurst:     c.RateLimitBurst,
		TrustedOrigins:     c.TrustedOrigins,
		Pinger:             pinger,
	})
	if err != nil {
		return fmt.Errorf("failed to create website: %w", err)
	}

	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS certificate and key must be provided together (--cert and --key)")
	}

	if c.SessionPrune > 0 {
		go site.PruneSessions(ctx, c.SessionPrune)
	}

	srv := configureHTTPServer(c.Listen, site.Handler())

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" {
			log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (c *ServeCmd) createStores(ctx context.Context, log zerolog.Logger) (store.Stores, website.Pinger, func(), error) {
	switch c.StoreType {
	case "postgres":
		pool, err := c.PostgresStore.connect(ctx, c.PostgresStore.AutoMigrate)
		if err != nil {
			return store.Stores{}, nil, nil, err
		}
		log.Info().Bool("auto_migrate", c.PostgresStore.AutoMigrate).Msg("Using PostgreSQL stores")
		return postgresstore.NewStores(pool), pool, pool.Close, nil

	default:
		log.Warn().Msg("Using in-memory stores, data is lost on restart")
		return memorystore.NewStores(), nil, func() {}, nil
	}
}
