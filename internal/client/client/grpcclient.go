package client

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/client/models"
	"github.com/dmitrijs2005/zkauth/internal/common"
	pb "github.com/dmitrijs2005/zkauth/internal/proto"
	"github.com/dmitrijs2005/zkauth/internal/zkp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.AuthServiceClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

// accessTokenInterceptor attaches the current access token, if any, and
// bounds every call by the configured timeout.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewAuthClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, userName string, password []byte) (string, error) {

	req := pb.NewMessage(map[string]string{
		pb.FieldUsername: userName,
		pb.FieldPassword: string(password),
	})

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}

	return pb.StringField(resp, pb.FieldMessage), nil
}

func (s *GRPCClient) BeginLogin(ctx context.Context, userName string) (*models.Challenge, error) {

	req := pb.NewMessage(map[string]string{pb.FieldUsername: userName})

	resp, err := s.client.BeginLogin(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	ch := &models.Challenge{}
	for _, f := range []struct {
		name string
		dst  **big.Int
	}{
		{pb.FieldP, &ch.P},
		{pb.FieldG, &ch.G},
		{pb.FieldH, &ch.H},
		{pb.FieldE, &ch.E},
	} {
		v, err := intField(resp, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	return ch, nil
}

// FinishLogin submits the proof (a, y). On success the returned access token
// is kept for subsequent calls.
func (s *GRPCClient) FinishLogin(ctx context.Context, userName string, a, y *big.Int) (string, error) {

	req := pb.NewMessage(map[string]string{
		pb.FieldUsername: userName,
		pb.FieldA:        a.String(),
		pb.FieldY:        y.String(),
	})

	resp, err := s.client.FinishLogin(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}

	token := pb.StringField(resp, pb.FieldAccessToken)
	if token == "" {
		return "", fmt.Errorf("%w: no %s", ErrMalformedResponse, pb.FieldAccessToken)
	}
	s.setToken(token)

	return pb.StringField(resp, pb.FieldUsername), nil
}

func (s *GRPCClient) Whoami(ctx context.Context) (string, error) {

	resp, err := s.client.Protected(ctx, &structpb.Struct{})
	if err != nil {
		return "", s.mapError(err)
	}

	return pb.StringField(resp, pb.FieldUsername), nil
}

// Logout revokes the session on the server. The local token is dropped even
// when the call fails.
func (s *GRPCClient) Logout(ctx context.Context) error {

	_, err := s.client.Logout(ctx, &structpb.Struct{})
	s.setToken("")

	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func intField(msg *structpb.Struct, name string) (*big.Int, error) {
	v, err := zkp.ParseInteger(pb.StringField(msg, name))
	if err != nil {
		return nil, fmt.Errorf("%w: field %s: %w", ErrMalformedResponse, name, err)
	}
	return v, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	case codes.ResourceExhausted:
		return common.ErrRateLimited
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
