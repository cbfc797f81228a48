// Package httpapi serves the browser-facing JSON API over fasthttp.
package httpapi

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/dmitrijs2005/zkauth/internal/logging"
	"github.com/dmitrijs2005/zkauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/zkauth/internal/server/services"
	"github.com/valyala/fasthttp"
)

// Options configures the transport concerns of the HTTP API.
type Options struct {
	AllowedOrigins  []string // "*" allows any origin
	CookieName      string
	CookieSecure    bool
	SessionValidity time.Duration // cookie Max-Age
	MaxBodySize     int
}

const defaultMaxBodySize = 64 << 10

type HTTPServer struct {
	address string
	auth    *services.AuthService
	limiter *ratelimit.RateLimiter
	opts    Options
	origins map[string]struct{}
	anyOrig bool
	logger  logging.Logger
}

// NewHTTPServer returns a server for address. limiter may be nil.
func NewHTTPServer(a string, l logging.Logger, as *services.AuthService, limiter *ratelimit.RateLimiter, opts Options) *HTTPServer {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}
	if opts.CookieName == "" {
		opts.CookieName = common.SessionCookieName
	}

	s := &HTTPServer{
		address: a,
		auth:    as,
		limiter: limiter,
		opts:    opts,
		origins: make(map[string]struct{}, len(opts.AllowedOrigins)),
		logger:  l.With("module", "http_server"),
	}
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			s.anyOrig = true
			continue
		}
		s.origins[o] = struct{}{}
	}
	return s
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then shuts down,
// letting in-flight requests finish.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "zkauth",
		MaxRequestBodySize: s.opts.MaxBodySize,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		CloseOnShutdown:    true,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		if err := srv.Shutdown(); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
