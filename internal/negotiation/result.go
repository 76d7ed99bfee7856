package negotiation

import (
	"encoding/json"
	"fmt"
	"strings"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
)

// Result is the outcome of one handshake attempt: either *Success or *Failure.
//
// The interface is sealed; callers branch with a type switch:
//
//	switch r := result.(type) {
//	case *negotiation.Success:
//	case *negotiation.Failure:
//	}
type Result interface {
	isResult()
}

type Success struct {
	SelectedProtocol string
	Capabilities     []latencyv1alpha1.Capability
	// Warnings is nil when there is nothing to report.
	Warnings []string
}

// Failure reports that no mutually supported protocol version exists.
//
// Retryable is always false: the same two version sets fail identically
// until one side changes its supported versions.
type Failure struct {
	Code               latencyv1alpha1.ErrorCode
	Message            string
	RequestedProtocols []string
	AvailableProtocols []string
	Retryable          bool
}

func (*Success) isResult() {}
func (*Failure) isResult() {}

// NewSuccess builds a Success. An empty warnings list is dropped so that the
// wire form omits the field.
func NewSuccess(selectedProtocol string, capabilities []latencyv1alpha1.Capability, warnings []string) *Success {
	s := &Success{
		SelectedProtocol: selectedProtocol,
		Capabilities:     append([]latencyv1alpha1.Capability{}, capabilities...),
	}
	if len(warnings) > 0 {
		s.Warnings = append([]string(nil), warnings...)
	}
	return s
}

// NewFailure builds the non-retryable negotiation failure for the two version sets.
func NewFailure(requested, available []string) *Failure {
	return &Failure{
		Code: latencyv1alpha1.ErrorCodeProtocolNegotiationFailed,
		Message: fmt.Sprintf("no mutually supported protocol version: requested [%s], available [%s]",
			strings.Join(requested, ", "), strings.Join(available, ", ")),
		RequestedProtocols: append([]string{}, requested...),
		AvailableProtocols: append([]string{}, available...),
		Retryable:          false,
	}
}

// ToResponse converts a Result to its wire form.
func ToResponse(r Result) (latencyv1alpha1.HandshakeResponse, error) {
	switch r := r.(type) {
	case *Success:
		if r == nil {
			break
		}
		return latencyv1alpha1.HandshakeResponse{Success: &latencyv1alpha1.HandshakeSuccess{
			SelectedProtocol: r.SelectedProtocol,
			Capabilities:     r.Capabilities,
			Warnings:         r.Warnings,
		}}, nil
	case *Failure:
		if r == nil {
			break
		}
		return latencyv1alpha1.HandshakeResponse{Failure: &latencyv1alpha1.HandshakeFailure{
			Error: latencyv1alpha1.HandshakeError{
				Code:    r.Code,
				Message: r.Message,
				Details: latencyv1alpha1.HandshakeErrorDetails{
					RequestedProtocols: r.RequestedProtocols,
					AvailableProtocols: r.AvailableProtocols,
				},
				Retryable: r.Retryable,
			},
		}}, nil
	}
	return latencyv1alpha1.HandshakeResponse{}, fmt.Errorf("negotiation: nil or unknown result type %T", r)
}

// FromResponse converts a wire response back to a Result.
func FromResponse(resp latencyv1alpha1.HandshakeResponse) (Result, error) {
	switch {
	case resp.Success != nil && resp.Failure == nil:
		return &Success{
			SelectedProtocol: resp.Success.SelectedProtocol,
			Capabilities:     resp.Success.Capabilities,
			Warnings:         resp.Success.Warnings,
		}, nil
	case resp.Failure != nil && resp.Success == nil:
		e := resp.Failure.Error
		return &Failure{
			Code:               e.Code,
			Message:            e.Message,
			RequestedProtocols: e.Details.RequestedProtocols,
			AvailableProtocols: e.Details.AvailableProtocols,
			Retryable:          e.Retryable,
		}, nil
	}
	return nil, fmt.Errorf("negotiation: %w", latencyv1alpha1.ErrInvalidHandshakeResponse)
}

// MarshalResult encodes r as the JSON handshake response.
func MarshalResult(r Result) ([]byte, error) {
	resp, err := ToResponse(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

// UnmarshalResult decodes a JSON handshake response.
func UnmarshalResult(data []byte) (Result, error) {
	var resp latencyv1alpha1.HandshakeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("negotiation: decode handshake response: %w", err)
	}
	return FromResponse(resp)
}
