package ledger

import "fmt"

// TransportError wraps any RPC-level or connection-level failure of a ledger
// call. The core propagates it untouched so callers can decide retry policy.
type TransportError struct {
	Op  string // "append", "liststreamkeyitems", ...
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
