package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/auth"
	"github.com/vovakirdan/grams-server/internal/config"
	"github.com/vovakirdan/grams-server/internal/feed"
	"github.com/vovakirdan/grams-server/internal/grams"
	"github.com/vovakirdan/grams-server/internal/store"
	"github.com/vovakirdan/grams-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/grams-server/internal/transport/http"
)

// App wires together store, services and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *feed.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	authService := NewAuthService(cfg, st)
	sessions := auth.NewSessions(auth.SessionConfig{
		Secret: []byte(cfg.SessionSecret),
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.CookieSecure,
	})

	hub := feed.NewHub(cfg.FeedBuffer, logger)
	gramService := grams.NewService(st, hub, logger)
	server := transporthttp.NewServer(gramService, authService, sessions, hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// OpenStore opens the database and applies the schema.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*sqlite.SQLiteStore, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
	return st, nil
}

// NewAuthService builds the account service from configuration.
func NewAuthService(cfg *config.Config, users store.UserStore) *auth.Service {
	return auth.NewService(users, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
}

// Run starts the feed hub and HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Closing the hub first ends feed connections, which Shutdown does not track.
		stopHub()
		<-a.hub.Done()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
