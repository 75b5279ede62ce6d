// Package ledger defines the append-only stream client that BatchTrace
// publishes batch snapshots to, along with its implementations.
//
// A stream is a named partition of the ledger; every entry in it carries a
// key (the batch number) and an opaque payload (the hex-encoded record
// snapshot). Entries are immutable once appended and per-key order equals
// append order.
//
// Three implementations of the Client interface are provided:
//   - Multichain: JSON-RPC against a Multichain node, for production use.
//   - Postgres: durable single-node alternative backed by PostgreSQL.
//   - Memory: in-process, for testing and development.
package ledger

import "context"

// Item is one entry of a whole-stream listing: the key it was published
// under plus its payload.
type Item struct {
	Key     string
	Payload []byte
}

// Client is the minimal RPC surface the core consumes. Implementations must
// preserve append order in both ListForKey and ListAll; the latest-per-key
// computation in the expiration index depends on ListAll scan order equalling
// append order.
//
// Failures are reported as *TransportError. The client never retries; retry
// policy belongs to the caller.
type Client interface {
	// Append publishes one immutable entry to the stream and returns its
	// backend-assigned entry ID (txid for Multichain, UUID otherwise).
	// There is no compare-and-swap and no uniqueness check on content.
	Append(ctx context.Context, stream, key string, payload []byte) (string, error)

	// ListForKey returns every payload published under key, in append order.
	// An empty slice (not an error) means no entry exists for the key.
	ListForKey(ctx context.Context, stream, key string) ([][]byte, error)

	// ListAll returns every entry in the stream, in append order.
	ListAll(ctx context.Context, stream string) ([]Item, error)
}
