// Package handshake carries the negotiation handshake over gRPC.
//
// The service has a single unary method whose request and response are
// google.protobuf.Struct values holding the JSON wire shapes from api/v1alpha1,
// so no generated stubs are needed on either side.
package handshake

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName         = "latency.handshake.v1.Handshake"
	FullMethodNegotiate = "/" + ServiceName + "/Negotiate"
)

// HandshakeServer is the server API for the Handshake service.
type HandshakeServer interface {
	Negotiate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc is the grpc.ServiceDesc for the Handshake service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HandshakeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Negotiate",
			Handler:    negotiateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "latency/handshake/v1/handshake.proto",
}

func RegisterHandshakeServer(s grpc.ServiceRegistrar, srv HandshakeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func negotiateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HandshakeServer).Negotiate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: FullMethodNegotiate,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HandshakeServer).Negotiate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
