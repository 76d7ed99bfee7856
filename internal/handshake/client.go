package handshake

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/negotiation"
)

// Client calls the Handshake service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Negotiate sends req and returns the peer's result. A negotiation failure is
// returned as a *negotiation.Failure result, not an error.
func (c *Client) Negotiate(ctx context.Context, req latencyv1alpha1.HandshakeRequest, opts ...grpc.CallOption) (negotiation.Result, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethodNegotiate, in, out, opts...); err != nil {
		return nil, err
	}
	data, err := fromStruct(out)
	if err != nil {
		return nil, err
	}
	return negotiation.UnmarshalResult(data)
}
