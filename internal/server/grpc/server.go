// Package grpc exposes the auth service as zkauth.v1.AuthService.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/zkauth/internal/logging"
	pb "github.com/dmitrijs2005/zkauth/internal/proto"
	"github.com/dmitrijs2005/zkauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/zkauth/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address string
	auth    *services.AuthService
	limiter *ratelimit.RateLimiter
	logger  logging.Logger
}

// NewGRPCServer returns a server for address. limiter may be nil.
func NewGRPCServer(a string, l logging.Logger, as *services.AuthService, limiter *ratelimit.RateLimiter) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		limiter: limiter,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.rateLimitInterceptor, s.accessTokenInterceptor))
	pb.RegisterAuthServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
