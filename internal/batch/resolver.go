package batch

import (
	"context"
	"errors"

	"github.com/batchtrace/batchtrace/internal/ledger"
)

// Resolver reconstructs record versions from a ledger stream. Every call
// re-scans the ledger: an external writer may have appended concurrently, so
// nothing is cached.
type Resolver struct {
	client ledger.Client
	stream string
}

// NewResolver creates a Resolver over the given stream.
func NewResolver(client ledger.Client, stream string) *Resolver {
	return &Resolver{client: client, stream: stream}
}

// Current returns the record's current version: the decoded last element of
// its version chain. An empty chain is ErrNotFound, not a transport failure.
func (r *Resolver) Current(ctx context.Context, key string) (*Record, error) {
	payloads, err := r.client.ListForKey(ctx, r.stream, key)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, ErrNotFound
	}

	rec, err := Decode(payloads[len(payloads)-1])
	if err != nil {
		return nil, withKey(err, key)
	}
	return rec, nil
}

// History returns every version of the record in chain order, index 0 being
// the initial snapshot. Cost is linear in chain length.
func (r *Resolver) History(ctx context.Context, key string) ([]*Record, error) {
	payloads, err := r.client.ListForKey(ctx, r.stream, key)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, ErrNotFound
	}

	records := make([]*Record, 0, len(payloads))
	for _, p := range payloads {
		rec, err := Decode(p)
		if err != nil {
			return nil, withKey(err, key)
		}
		records = append(records, rec)
	}
	return records, nil
}

// fieldHistory returns every version as a raw field map, for the diff engine.
func (r *Resolver) fieldHistory(ctx context.Context, key string) ([]map[string]any, error) {
	payloads, err := r.client.ListForKey(ctx, r.stream, key)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, ErrNotFound
	}

	versions := make([]map[string]any, 0, len(payloads))
	for _, p := range payloads {
		fields, err := DecodeFields(p)
		if err != nil {
			return nil, withKey(err, key)
		}
		versions = append(versions, fields)
	}
	return versions, nil
}

// withKey attaches the batch key to a DecodeError for diagnostics.
func withKey(err error, key string) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Key == "" {
		de.Key = key
	}
	return err
}
