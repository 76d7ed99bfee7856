package handshake

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-logr/logr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/negotiation"
)

// Server answers Negotiate calls with a negotiation.Negotiator.
type Server struct {
	negotiator *negotiation.Negotiator
	logger     logr.Logger
}

var _ HandshakeServer = (*Server)(nil)

func NewServer(negotiator *negotiation.Negotiator, logger logr.Logger) *Server {
	return &Server{negotiator: negotiator, logger: logger}
}

// Negotiate decodes the request, runs the handshake and encodes the result.
// A failed negotiation is a normal response; only malformed requests are
// reported as gRPC errors.
func (s *Server) Negotiate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	data, err := fromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var req latencyv1alpha1.HandshakeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "handshake: decode request: %v", err)
	}

	result, err := s.negotiator.Handshake(req)
	if err != nil {
		if errors.Is(err, negotiation.ErrInvalidRequest) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error(err, "handshake failed", "component", req.Component)
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp, err := negotiation.ToResponse(result)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
