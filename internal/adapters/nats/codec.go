package natsadapter

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ContentType tags event payloads on the wire.
const ContentType = "application/x-protobuf; messageType=google.protobuf.Struct"

// Encode serialises an event as a protobuf Struct built from its JSON form.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("event is not an object: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return proto.Marshal(s)
}

// Decode reverses Encode into v.
func Decode(data []byte, v any) error {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ToJSON converts an encoded event to JSON for clients that cannot read
// protobuf.
func ToJSON(data []byte) ([]byte, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return json.Marshal(s.AsMap())
}
