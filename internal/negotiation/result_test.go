package negotiation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
)

func TestNewSuccess_OmitsEmptyWarnings(t *testing.T) {
	for _, warnings := range [][]string{nil, {}} {
		s := NewSuccess("2.0.0", []latencyv1alpha1.Capability{"telemetry"}, warnings)
		if s.Warnings != nil {
			t.Fatalf("expected nil warnings, got %#v", s.Warnings)
		}
		data, err := MarshalResult(s)
		if err != nil {
			t.Fatalf("MarshalResult: %v", err)
		}
		if strings.Contains(string(data), "warnings") {
			t.Fatalf("expected warnings field to be absent: %s", data)
		}
	}
}

func TestNewSuccess_WireShape(t *testing.T) {
	data, err := MarshalResult(NewSuccess("2.0.0", nil, []string{"old-auth is deprecated"}))
	if err != nil {
		t.Fatalf("MarshalResult: %v", err)
	}
	want := `{"success":true,"selectedProtocol":"2.0.0","capabilities":[],"warnings":["old-auth is deprecated"]}`
	if string(data) != want {
		t.Fatalf("wire=%s\nwant %s", data, want)
	}
}

func TestNewFailure_WireShape(t *testing.T) {
	f := NewFailure([]string{"3.0.0", "4.0.0"}, []string{"1.0.0", "2.0.0"})
	if f.Retryable {
		t.Fatalf("expected non-retryable failure")
	}
	if f.Code != latencyv1alpha1.ErrorCodeProtocolNegotiationFailed {
		t.Fatalf("unexpected code %q", f.Code)
	}
	if !strings.Contains(f.Message, "3.0.0, 4.0.0") || !strings.Contains(f.Message, "1.0.0, 2.0.0") {
		t.Fatalf("expected both lists in message: %q", f.Message)
	}

	data, err := MarshalResult(f)
	if err != nil {
		t.Fatalf("MarshalResult: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    "PROTOCOL_NEGOTIATION_FAILED",
			"message": f.Message,
			"details": map[string]any{
				"requestedProtocols": []any{"3.0.0", "4.0.0"},
				"availableProtocols": []any{"1.0.0", "2.0.0"},
			},
			"retryable": false,
		},
	}
	if diff := cmp.Diff(want, generic); diff != "" {
		t.Fatalf("wire mismatch (-want +got):\n%s", diff)
	}
}

func TestResult_RoundTrip(t *testing.T) {
	results := []Result{
		NewSuccess("1.0.0", nil, nil),
		NewSuccess("2.0.0-rc.1", []latencyv1alpha1.Capability{"metrics", "telemetry"}, []string{"a", "b"}),
		NewFailure([]string{"3.0.0"}, []string{"1.0.0"}),
		NewFailure(nil, nil),
	}

	for _, r := range results {
		data, err := MarshalResult(r)
		if err != nil {
			t.Fatalf("MarshalResult(%+v): %v", r, err)
		}
		got, err := UnmarshalResult(data)
		if err != nil {
			t.Fatalf("UnmarshalResult(%s): %v", data, err)
		}
		if diff := cmp.Diff(r, got); diff != "" {
			t.Fatalf("round trip mismatch for %s (-want +got):\n%s", data, diff)
		}
	}
}

func TestUnmarshalResult_RejectsUntagged(t *testing.T) {
	_, err := UnmarshalResult([]byte(`{"selectedProtocol":"1.0.0"}`))
	if !errors.Is(err, latencyv1alpha1.ErrInvalidHandshakeResponse) {
		t.Fatalf("expected ErrInvalidHandshakeResponse, got %v", err)
	}
}

func TestToResponse_RejectsNil(t *testing.T) {
	for _, r := range []Result{nil, (*Success)(nil), (*Failure)(nil)} {
		if _, err := ToResponse(r); err == nil {
			t.Fatalf("expected error for %#v", r)
		}
		if _, err := MarshalResult(r); err == nil {
			t.Fatalf("expected MarshalResult error for %#v", r)
		}
	}
	if _, err := json.Marshal(latencyv1alpha1.HandshakeResponse{}); err == nil {
		t.Fatalf("expected error for empty response")
	}
}
