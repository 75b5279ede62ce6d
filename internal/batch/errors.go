package batch

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no version chain exists for a requested batch
// key. It is an expected condition, not a transport failure: adapters render
// it as an absent result (CLI message, HTTP 404).
var ErrNotFound = errors.New("batch not found")

// ValidationError reports malformed caller input (a date in the wrong
// format, an expiration query of the wrong shape). It is recovered locally
// and reported back with the offending input; nothing is appended to the
// ledger when one occurs.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// DecodeError reports a ledger payload that is not valid hex-encoded JSON.
// It signals ledger corruption or a foreign writer on the stream and is
// surfaced, never swallowed.
type DecodeError struct {
	Key string // batch key the payload was stored under, when known
	Err error
}

func (e *DecodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("decode ledger payload: %v", e.Err)
	}
	return fmt.Sprintf("decode ledger payload for %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
