// Package qrcode encodes ticket payloads into scannable strings. Image
// rendering is an external concern; this adapter only produces the encoded
// payload a renderer or scanner consumes.
package qrcode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"felicity/internal/domain/ticket"
)

// Encoder turns a ticket payload into its scannable representation. It is a
// pure function of the payload: no side effects, no storage.
type Encoder interface {
	Encode(p ticket.Payload) (string, error)
}

// DataEncoder encodes the payload as base64 JSON behind a data URI, the
// form the scanning endpoint decodes back.
type DataEncoder struct{}

// NewDataEncoder creates a DataEncoder.
func NewDataEncoder() *DataEncoder {
	return &DataEncoder{}
}

var _ Encoder = (*DataEncoder)(nil)

// Encode serializes the payload.
func (e *DataEncoder) Encode(p ticket.Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode ticket payload: %w", err)
	}
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses an encoded payload back into its structured form.
func Decode(encoded string) (ticket.Payload, error) {
	const prefix = "data:application/json;base64,"
	if len(encoded) < len(prefix) || encoded[:len(prefix)] != prefix {
		return ticket.Payload{}, fmt.Errorf("unrecognized payload encoding")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded[len(prefix):])
	if err != nil {
		return ticket.Payload{}, fmt.Errorf("decode ticket payload: %w", err)
	}
	var p ticket.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ticket.Payload{}, fmt.Errorf("decode ticket payload: %w", err)
	}
	return p, nil
}
