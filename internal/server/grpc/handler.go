package grpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkauth/internal/common"
	pb "github.com/dmitrijs2005/zkauth/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username := pb.StringField(req, pb.FieldUsername)

	s.logger.Info(ctx, "Registration request", "username", username)

	info, err := s.auth.Register(ctx, username, pb.StringField(req, pb.FieldPassword))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return pb.NewMessage(map[string]string{
		pb.FieldMessage: fmt.Sprintf("User '%s' registered", username),
		pb.FieldP:       info.P.String(),
		pb.FieldG:       info.G.String(),
	}), nil
}

func (s *GRPCServer) BeginLogin(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ch, err := s.auth.BeginLogin(ctx, pb.StringField(req, pb.FieldUsername))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return pb.NewMessage(map[string]string{
		pb.FieldP: ch.P.String(),
		pb.FieldG: ch.G.String(),
		pb.FieldH: ch.H.String(),
		pb.FieldE: ch.E.String(),
	}), nil
}

func (s *GRPCServer) FinishLogin(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.auth.FinishLogin(ctx,
		pb.StringField(req, pb.FieldUsername),
		pb.StringField(req, pb.FieldA),
		pb.StringField(req, pb.FieldY),
	)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return pb.NewMessage(map[string]string{
		pb.FieldMessage:     "Login successful!",
		pb.FieldUsername:    res.Username,
		pb.FieldAccessToken: res.Token,
	}), nil
}

func (s *GRPCServer) Protected(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := s.auth.CheckAuthenticated(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return pb.NewMessage(map[string]string{
		pb.FieldMessage:  fmt.Sprintf("You are logged in as %s!", username),
		pb.FieldUsername: username,
	}), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.auth.Logout(ctx); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return pb.NewMessage(map[string]string{pb.FieldMessage: "Logout successful!"}), nil
}

// toStatus maps error categories to gRPC codes. Only internal errors are
// logged; the rest are ordinary client outcomes.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
