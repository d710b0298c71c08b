package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const sessionServiceName = "posts.v1.SessionService"

// SessionServiceServer is the server API for posts.v1.SessionService. Messages
// are protobuf well-known types, so no generated code is required.
type SessionServiceServer interface {
	ValidateAccessToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	GetUser(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error)
}

var SessionServiceDesc = gogrpc.ServiceDesc{
	ServiceName: sessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{
			MethodName: "ValidateAccessToken",
			Handler:    validateAccessTokenHandler,
		},
		{
			MethodName: "GetUser",
			Handler:    getUserHandler,
		},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "posts/v1/session.proto",
}

func RegisterSessionServiceServer(s gogrpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

func validateAccessTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).ValidateAccessToken(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + sessionServiceName + "/ValidateAccessToken",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).ValidateAccessToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getUserHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).GetUser(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + sessionServiceName + "/GetUser",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).GetUser(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionServiceClient calls posts.v1.SessionService over an existing connection.
type SessionServiceClient struct {
	cc gogrpc.ClientConnInterface
}

func NewSessionServiceClient(cc gogrpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) ValidateAccessToken(ctx context.Context, in *wrapperspb.StringValue, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+sessionServiceName+"/ValidateAccessToken", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) GetUser(ctx context.Context, in *wrapperspb.UInt64Value, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+sessionServiceName+"/GetUser", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
