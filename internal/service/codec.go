package service

import (
	"encoding/json"
	"fmt"
)

// jsonCodec lets Connect carry plain Go structs as application/json.
// It replaces Connect's built-in "json" codec, which only accepts protobuf
// messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid JSON message: %w", err)
	}
	return nil
}
