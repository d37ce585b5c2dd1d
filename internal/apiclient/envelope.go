package apiclient

import (
	"bytes"
	"encoding/json"
)

var nullLiteral = []byte("null")

// unwrapEnvelope normalizes backend response shapes. Endpoints answer either
// with a bare payload or with `{"data": payload}`; callers always receive the
// payload. Normalizing once here replaces defensive unwrapping at every call
// site.
func unwrapEnvelope(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if decodeErr := json.Unmarshal(trimmed, &envelope); decodeErr != nil {
		return raw
	}
	if len(envelope.Data) == 0 || bytes.Equal(bytes.TrimSpace(envelope.Data), nullLiteral) {
		return raw
	}
	return envelope.Data
}
