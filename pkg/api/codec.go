package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CodecName is registered for the application/json content type.
const CodecName = "json"

// Codec is a connect.Codec for the plain structs of this package. It
// replaces Connect's default protobuf-JSON codec.
type Codec struct{}

func (Codec) Name() string {
	return CodecName
}

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal rejects unknown fields so that misspelled options fail loudly.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("failed to decode %T: %w", msg, err)
	}
	return nil
}
