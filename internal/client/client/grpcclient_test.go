package client

import (
	"context"
	"errors"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/dmitrijs2005/zkauth/internal/logging"
	pb "github.com/dmitrijs2005/zkauth/internal/proto"
	"github.com/dmitrijs2005/zkauth/internal/server/auth"
	"github.com/dmitrijs2005/zkauth/internal/server/challenges"
	"github.com/dmitrijs2005/zkauth/internal/server/credentials"
	gs "github.com/dmitrijs2005/zkauth/internal/server/grpc"
	"github.com/dmitrijs2005/zkauth/internal/server/services"
	"github.com/dmitrijs2005/zkauth/internal/server/sessions"
	"github.com/dmitrijs2005/zkauth/internal/zkp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

/*************
 * Fake pb client
 *************/

type fakePB struct {
	lastRegisterReq *structpb.Struct
	lastBeginReq    *structpb.Struct
	lastFinishReq   *structpb.Struct

	registerResp  *structpb.Struct
	registerErr   error
	beginResp     *structpb.Struct
	beginErr      error
	finishResp    *structpb.Struct
	finishErr     error
	protectedResp *structpb.Struct
	protectedErr  error
	logoutErr     error
}

func (f *fakePB) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.lastRegisterReq = in
	return f.registerResp, f.registerErr
}
func (f *fakePB) BeginLogin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.lastBeginReq = in
	return f.beginResp, f.beginErr
}
func (f *fakePB) FinishLogin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.lastFinishReq = in
	return f.finishResp, f.finishErr
}
func (f *fakePB) Protected(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.protectedResp, f.protectedErr
}
func (f *fakePB) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return pb.NewMessage(map[string]string{pb.FieldMessage: "Logout successful!"}), f.logoutErr
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_AttachesToken(t *testing.T) {
	c := &GRPCClient{accessToken: "A1"}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Equal(t, []string{"A1"}, toks)
		return nil
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "stale")
	require.NoError(t, c.accessTokenInterceptor(ctx, "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_NoTokenNoMetadata(t *testing.T) {
	c := &GRPCClient{}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_AppliesTimeout(t *testing.T) {
	c := &GRPCClient{timeout: time.Second}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		require.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
		return status.Error(codes.Internal, "boom")
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(status.Error(codes.PermissionDenied, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(status.Error(codes.Unavailable, "x")), ErrUnavailable)
	require.ErrorIs(t, c.mapError(status.Error(codes.DeadlineExceeded, "x")), ErrUnavailable)
	require.ErrorIs(t, c.mapError(status.Error(codes.NotFound, "x")), ErrRejected)
	require.ErrorIs(t, c.mapError(status.Error(codes.AlreadyExists, "x")), ErrRejected)
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "x")), ErrRejected)
	require.ErrorIs(t, c.mapError(status.Error(codes.ResourceExhausted, "x")), common.ErrRateLimited)
	require.ErrorContains(t, c.mapError(status.Error(codes.NotFound, "user not found")), "user not found")
	require.ErrorContains(t, c.mapError(errors.New("plain")), "rpc error:")
	require.NoError(t, c.mapError(nil))
}

/*************
 * Method tests
 *************/

func TestRegister_SendsPassword(t *testing.T) {
	f := &fakePB{registerResp: pb.NewMessage(map[string]string{pb.FieldMessage: "User 'u' registered"})}
	c := &GRPCClient{client: f}

	msg, err := c.Register(context.Background(), "u", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "User 'u' registered", msg)
	assert.Equal(t, "u", pb.StringField(f.lastRegisterReq, pb.FieldUsername))
	assert.Equal(t, "pw", pb.StringField(f.lastRegisterReq, pb.FieldPassword))
}

func TestRegister_MapsError(t *testing.T) {
	f := &fakePB{registerErr: status.Error(codes.AlreadyExists, "username taken")}
	c := &GRPCClient{client: f}

	_, err := c.Register(context.Background(), "u", []byte("pw"))
	require.ErrorIs(t, err, ErrRejected)
}

func TestBeginLogin_ParsesChallenge(t *testing.T) {
	f := &fakePB{beginResp: pb.NewMessage(map[string]string{
		pb.FieldP: "467", pb.FieldG: "2", pb.FieldH: "88", pb.FieldE: "10",
	})}
	c := &GRPCClient{client: f}

	ch, err := c.BeginLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(467), ch.P.Int64())
	assert.Equal(t, int64(2), ch.G.Int64())
	assert.Equal(t, int64(88), ch.H.Int64())
	assert.Equal(t, int64(10), ch.E.Int64())
	assert.Equal(t, "alice", pb.StringField(f.lastBeginReq, pb.FieldUsername))
}

func TestBeginLogin_MalformedResponse(t *testing.T) {
	f := &fakePB{beginResp: pb.NewMessage(map[string]string{
		pb.FieldP: "467", pb.FieldG: "2", pb.FieldH: "eighty-eight", pb.FieldE: "10",
	})}
	c := &GRPCClient{client: f}

	_, err := c.BeginLogin(context.Background(), "alice")
	require.ErrorIs(t, err, ErrMalformedResponse)
	require.ErrorContains(t, err, "field h")
}

func TestFinishLogin_StoresToken(t *testing.T) {
	f := &fakePB{finishResp: pb.NewMessage(map[string]string{
		pb.FieldMessage: "Login successful!", pb.FieldUsername: "alice", pb.FieldAccessToken: "T",
	})}
	c := &GRPCClient{client: f}

	user, err := c.FinishLogin(context.Background(), "alice", big.NewInt(32), big.NewInt(47))
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "T", c.token())
	assert.Equal(t, "32", pb.StringField(f.lastFinishReq, pb.FieldA))
	assert.Equal(t, "47", pb.StringField(f.lastFinishReq, pb.FieldY))
}

func TestFinishLogin_FailureKeepsPreviousToken(t *testing.T) {
	f := &fakePB{finishErr: status.Error(codes.Unauthenticated, "verification failed")}
	c := &GRPCClient{client: f, accessToken: "old"}

	_, err := c.FinishLogin(context.Background(), "alice", big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "old", c.token())
}

func TestFinishLogin_MissingToken(t *testing.T) {
	f := &fakePB{finishResp: pb.NewMessage(map[string]string{pb.FieldUsername: "alice"})}
	c := &GRPCClient{client: f}

	_, err := c.FinishLogin(context.Background(), "alice", big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestLogout_DropsTokenEvenOnError(t *testing.T) {
	f := &fakePB{logoutErr: status.Error(codes.Unavailable, "down")}
	c := &GRPCClient{client: f, accessToken: "T"}

	require.ErrorIs(t, c.Logout(context.Background()), ErrUnavailable)
	assert.Empty(t, c.token())
}

func TestWhoami(t *testing.T) {
	f := &fakePB{protectedResp: pb.NewMessage(map[string]string{pb.FieldUsername: "alice"})}
	c := &GRPCClient{client: f}

	user, err := c.Whoami(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

/*************
 * Against a live server
 *************/

func newBufconnClient(t *testing.T) *GRPCClient {
	t.Helper()

	group, err := zkp.NamedGroup(zkp.GroupDemo)
	require.NoError(t, err)
	deriver, err := zkp.NewDeriver(group, "", "")
	require.NoError(t, err)
	keys, err := auth.NewKeyring(nil, 0)
	require.NoError(t, err)

	svc := services.NewAuthService(group, deriver,
		credentials.NewMemoryRepository(),
		challenges.NewMemoryRepository(group, time.Minute),
		sessions.NewManager(keys, time.Hour),
		0, logging.Nop{})

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.NewGRPCServer("bufnet", logging.Nop{}, svc, nil).Serve(ctx, lis) }()

	c := &GRPCClient{endpointURL: "passthrough:///bufnet", timeout: 5 * time.Second}
	require.NoError(t, c.InitGRPCClient(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})))

	t.Cleanup(func() {
		c.Close()
		cancel()
		<-done
	})
	return c
}

func TestGRPCClient_FullFlow(t *testing.T) {
	c := newBufconnClient(t)
	ctx := context.Background()

	_, err := c.Whoami(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)

	msg, err := c.Register(ctx, "alice", []byte("pw1"))
	require.NoError(t, err)
	assert.Equal(t, "User 'alice' registered", msg)

	_, err = c.Register(ctx, "alice", []byte("pw1"))
	require.ErrorIs(t, err, ErrRejected)

	ch, err := c.BeginLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(88), ch.H.Int64())

	group, err := zkp.NewGroup(ch.P, ch.G)
	require.NoError(t, err)
	prover := zkp.NewProver(group, nil)
	a, k, err := prover.Commit()
	require.NoError(t, err)
	y := prover.Respond(k, ch.E, big.NewInt(144))

	user, err := c.FinishLogin(ctx, "alice", a, y)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	user, err = c.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	require.NoError(t, c.Logout(ctx))

	_, err = c.Whoami(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGRPCClient_UnknownUser(t *testing.T) {
	c := newBufconnClient(t)

	_, err := c.BeginLogin(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrRejected)
}
