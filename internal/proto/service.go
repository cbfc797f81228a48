// Package proto describes the zkauth.v1.AuthService gRPC contract. Messages
// are google.protobuf.Struct values keyed by the field names below, the same
// names the HTTP API uses in its JSON bodies. Big integers travel as decimal
// strings.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "zkauth.v1.AuthService"

// Full method names, as seen by interceptors.
const (
	MethodRegister    = "/" + ServiceName + "/Register"
	MethodBeginLogin  = "/" + ServiceName + "/BeginLogin"
	MethodFinishLogin = "/" + ServiceName + "/FinishLogin"
	MethodProtected   = "/" + ServiceName + "/Protected"
	MethodLogout      = "/" + ServiceName + "/Logout"
)

// Message field names.
const (
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldMessage     = "message"
	FieldP           = "p"
	FieldG           = "g"
	FieldH           = "h"
	FieldE           = "e"
	FieldA           = "a"
	FieldY           = "y"
	FieldAccessToken = "access_token"
)

// AuthServiceServer is the server API for zkauth.v1.AuthService.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BeginLogin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FinishLogin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Protected(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceDesc is the grpc.ServiceDesc for zkauth.v1.AuthService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, AuthServiceServer.Register)},
		{MethodName: "BeginLogin", Handler: unaryHandler(MethodBeginLogin, AuthServiceServer.BeginLogin)},
		{MethodName: "FinishLogin", Handler: unaryHandler(MethodFinishLogin, AuthServiceServer.FinishLogin)},
		{MethodName: "Protected", Handler: unaryHandler(MethodProtected, AuthServiceServer.Protected)},
		{MethodName: "Logout", Handler: unaryHandler(MethodLogout, AuthServiceServer.Logout)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zkauth/v1/auth.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient is the client API for zkauth.v1.AuthService.
type AuthServiceClient interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	BeginLogin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	FinishLogin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Protected(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func (c *authServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRegister, in, opts)
}

func (c *authServiceClient) BeginLogin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodBeginLogin, in, opts)
}

func (c *authServiceClient) FinishLogin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodFinishLogin, in, opts)
}

func (c *authServiceClient) Protected(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodProtected, in, opts)
}

func (c *authServiceClient) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogout, in, opts)
}

// StringField returns the string value of key, or "" when it is absent or not
// a string.
func StringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// NewMessage builds a Struct from string fields.
func NewMessage(fields map[string]string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		s.Fields[k] = structpb.NewStringValue(v)
	}
	return s
}
