package batch

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Encode serialises a record to its ledger wire form: canonical JSON text,
// then lowercase hex. Hex keeps the payload inside the character set every
// ledger backend accepts for stream data.
func Encode(r *Record) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	wire := make([]byte, hex.EncodedLen(len(raw)))
	hex.Encode(wire, raw)
	return wire, nil
}

// Decode reverses Encode. A payload that is not valid hex, or whose decoded
// text is not valid JSON, yields a *DecodeError.
func Decode(payload []byte) (*Record, error) {
	raw, err := decodeHex(payload)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("unmarshal record: %w", err)}
	}
	return &r, nil
}

// DecodeFields decodes a payload into a flat field map instead of a Record.
// The diff engine works on these maps so that fields absent from older
// payloads (published before the schema gained them) stay distinguishable
// from fields with zero values.
func DecodeFields(payload []byte) (map[string]any, error) {
	raw, err := decodeHex(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("unmarshal record: %w", err)}
	}
	return fields, nil
}

func decodeHex(payload []byte) ([]byte, error) {
	raw := make([]byte, hex.DecodedLen(len(payload)))
	n, err := hex.Decode(raw, payload)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("decode hex: %w", err)}
	}
	return raw[:n], nil
}
