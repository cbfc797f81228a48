// Package server wires the zkauth components together and runs them: the
// HTTP and gRPC front ends, the background sweeper and, when configured,
// signing key rotation.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/logging"
	"github.com/dmitrijs2005/zkauth/internal/server/auth"
	"github.com/dmitrijs2005/zkauth/internal/server/challenges"
	"github.com/dmitrijs2005/zkauth/internal/server/config"
	"github.com/dmitrijs2005/zkauth/internal/server/credentials"
	"github.com/dmitrijs2005/zkauth/internal/server/httpapi"
	"github.com/dmitrijs2005/zkauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/zkauth/internal/server/services"
	"github.com/dmitrijs2005/zkauth/internal/server/sessions"
	"github.com/dmitrijs2005/zkauth/internal/zkp"

	gs "github.com/dmitrijs2005/zkauth/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	keys        *auth.Keyring
	credentials *credentials.MemoryRepository
	challenges  *challenges.MemoryRepository
	sessions    *sessions.Manager
	limiter     *ratelimit.RateLimiter
	authService *services.AuthService
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(c, logger)
}

func newApp(c *config.Config, logger logging.Logger) (*App, error) {
	group, err := zkp.NamedGroup(c.Group)
	if err != nil {
		return nil, fmt.Errorf("group init error: %w", err)
	}

	deriver, err := zkp.NewDeriver(group, c.Hash, zkp.ZeroPolicy(c.ZeroPolicy))
	if err != nil {
		return nil, fmt.Errorf("deriver init error: %w", err)
	}

	keys, err := auth.NewKeyring([]byte(c.SecretKey), c.RetainedKeys)
	if err != nil {
		return nil, fmt.Errorf("keyring init error: %w", err)
	}

	creds := credentials.NewMemoryRepository()
	chals := challenges.NewMemoryRepository(group, c.ChallengeValidityDuration)
	sm := sessions.NewManager(keys, c.SessionValidityDuration)

	// idle clients are forgotten after a few sweep rounds
	limiter := ratelimit.New(c.RateLimitRPS, c.RateLimitBurst, 4*c.SweepInterval)

	as := services.NewAuthService(group, deriver, creds, chals, sm, c.MaxFailedAttempts, logger)

	return &App{
		config:      c,
		logger:      logger,
		keys:        keys,
		credentials: creds,
		challenges:  chals,
		sessions:    sm,
		limiter:     limiter,
		authService: as,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.limiter)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.authService, app.limiter, httpapi.Options{
		AllowedOrigins:  app.config.AllowedOrigins,
		CookieName:      app.config.SessionCookieName,
		CookieSecure:    app.config.SessionCookieSecure,
		SessionValidity: app.config.SessionValidityDuration,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// sweep drops expired challenges, sessions and idle rate limiter entries.
func (app *App) sweep(ctx context.Context, now time.Time) {
	c := app.challenges.Sweep(now)
	s := app.sessions.Sweep(now)
	l := app.limiter.Sweep(now)

	if c+s+l > 0 {
		app.logger.Debug(ctx, "swept expired state", "challenges", c, "sessions", s, "clients", l)
	}
}

func (app *App) runSweeper(ctx context.Context) {
	if app.config.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			app.sweep(ctx, now)
		}
	}
}

func (app *App) runKeyRotation(ctx context.Context) {
	if app.config.KeyRotationInterval <= 0 {
		return
	}

	ticker := time.NewTicker(app.config.KeyRotationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.keys.Rotate(); err != nil {
				app.logger.Error(ctx, "rotating signing key", "error", err)
				continue
			}
			app.logger.Info(ctx, "signing key rotated", "kid", app.keys.CurrentID())
		}
	}
}

// Run starts every component and blocks until ctx is cancelled, a signal
// arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"group", app.authService.Group().Name(),
		"challenge_ttl", app.config.ChallengeValidityDuration.String(),
		"max_failed_attempts", app.config.MaxFailedAttempts,
	)
	if app.config.SecretKey == "" {
		app.logger.Warn(ctx, "no secret key configured, sessions will not survive a restart")
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(4)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.runSweeper(ctx)
	}()
	go func() {
		defer wg.Done()
		app.runKeyRotation(ctx)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped", "users", app.credentials.Count())
}
