package handshake

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct converts a JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("handshake: encode payload: %w", err)
	}
	return out, nil
}

// fromStruct renders s as JSON.
func fromStruct(s *structpb.Struct) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("handshake: empty payload")
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("handshake: decode payload: %w", err)
	}
	return data, nil
}
