package v1alpha1

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HandshakeRequest is sent by a connecting party before any cross-core traffic.
type HandshakeRequest struct {
	Component          Component `json:"component"`
	PackageVersion     string    `json:"packageVersion"`
	SupportedProtocols []string  `json:"supportedProtocols"`
	// Capabilities the caller would like enabled for the session.
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// HandshakeResponse is the wire form of a negotiation result.
//
// It is a tagged union keyed on the "success" field: exactly one of Success
// and Failure is set.
type HandshakeResponse struct {
	Success *HandshakeSuccess
	Failure *HandshakeFailure
}

type HandshakeSuccess struct {
	SelectedProtocol string       `json:"selectedProtocol"`
	Capabilities     []Capability `json:"capabilities"`
	// Warnings is omitted entirely when there are none.
	Warnings []string `json:"warnings,omitempty"`
}

type HandshakeFailure struct {
	Error HandshakeError `json:"error"`
}

type HandshakeError struct {
	Code      ErrorCode             `json:"code"`
	Message   string                `json:"message"`
	Details   HandshakeErrorDetails `json:"details"`
	Retryable bool                  `json:"retryable"`
}

type HandshakeErrorDetails struct {
	RequestedProtocols []string `json:"requestedProtocols"`
	AvailableProtocols []string `json:"availableProtocols"`
}

var (
	ErrInvalidHandshakeResponse = errors.New("invalid handshake response")
)

func (r HandshakeResponse) MarshalJSON() ([]byte, error) {
	switch {
	case r.Success != nil && r.Failure != nil:
		return nil, fmt.Errorf("%w: both success and failure are set", ErrInvalidHandshakeResponse)
	case r.Success != nil:
		return json.Marshal(struct {
			Success bool `json:"success"`
			*HandshakeSuccess
		}{true, r.Success})
	case r.Failure != nil:
		return json.Marshal(struct {
			Success bool `json:"success"`
			*HandshakeFailure
		}{false, r.Failure})
	}
	return nil, fmt.Errorf("%w: neither success nor failure is set", ErrInvalidHandshakeResponse)
}

func (r *HandshakeResponse) UnmarshalJSON(data []byte) error {
	var tag struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Success == nil {
		return fmt.Errorf("%w: missing \"success\" field", ErrInvalidHandshakeResponse)
	}

	*r = HandshakeResponse{}
	if *tag.Success {
		r.Success = &HandshakeSuccess{}
		return json.Unmarshal(data, r.Success)
	}
	r.Failure = &HandshakeFailure{}
	return json.Unmarshal(data, r.Failure)
}
