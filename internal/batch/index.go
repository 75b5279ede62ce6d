package batch

import (
	"context"
	"sort"
	"time"

	"github.com/batchtrace/batchtrace/internal/ledger"
)

// granularity selects how much of an expiration date must match a query.
type granularity int

const (
	granYear granularity = iota
	granMonth
	granDay
)

// parseExpirationQuery validates an expiration query and returns its
// granularity and parsed target. The input's length selects the shape:
// 4 chars is a year, 7 is YYYY-MM, 10 is YYYY-MM-DD; anything else fails.
func parseExpirationQuery(input string) (granularity, time.Time, error) {
	var layout string
	var g granularity

	switch len(input) {
	case 4:
		layout, g = "2006", granYear
	case 7:
		layout, g = "2006-01", granMonth
	case 10:
		layout, g = DateLayout, granDay
	default:
		return 0, time.Time{}, &ValidationError{
			Input:  input,
			Reason: "expected YYYY, YYYY-MM, or YYYY-MM-DD",
		}
	}

	target, err := time.Parse(layout, input)
	if err != nil {
		return 0, time.Time{}, &ValidationError{Input: input, Reason: "not a valid date"}
	}
	return g, target, nil
}

func (g granularity) matches(target, expiration time.Time) bool {
	switch g {
	case granYear:
		return expiration.Year() == target.Year()
	case granMonth:
		return expiration.Year() == target.Year() && expiration.Month() == target.Month()
	default:
		return expiration.Equal(target)
	}
}

// Index answers whole-stream queries: expiration lookups and batch listing.
// Both scan every entry in the stream and reduce to the latest version per
// batch number by overwriting in scan order. That final value equals the
// current version only because ListAll returns entries in append order —
// a backend that reordered the stream would break this.
type Index struct {
	client ledger.Client
	stream string
}

// NewIndex creates an Index over the given stream.
func NewIndex(client ledger.Client, stream string) *Index {
	return &Index{client: client, stream: stream}
}

// latestByKey scans the whole stream and returns the last-seen record per
// batch number. Entries that fail to decode surface as a *DecodeError.
func (ix *Index) latestByKey(ctx context.Context) (map[string]*Record, error) {
	items, err := ix.client.ListAll(ctx, ix.stream)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*Record)
	for _, it := range items {
		rec, err := Decode(it.Payload)
		if err != nil {
			return nil, withKey(err, it.Key)
		}
		latest[rec.BatchNumber] = rec
	}
	return latest, nil
}

// FindByExpiration returns the current version of every batch whose
// expiration date matches the query at the query's granularity, sorted by
// batch number. Records whose expiration date does not parse are silently
// excluded.
func (ix *Index) FindByExpiration(ctx context.Context, input string) ([]*Record, error) {
	g, target, err := parseExpirationQuery(input)
	if err != nil {
		return nil, err
	}

	latest, err := ix.latestByKey(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*Record
	for _, rec := range latest {
		expiration, ok := rec.ExpirationTime()
		if !ok {
			continue
		}
		if g.matches(target, expiration) {
			matches = append(matches, rec)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].BatchNumber < matches[j].BatchNumber
	})
	return matches, nil
}

// ListKeys returns the distinct batch numbers ever appended to the stream,
// sorted. A batch never disappears from this list; deletion is unsupported.
func (ix *Index) ListKeys(ctx context.Context) ([]string, error) {
	latest, err := ix.latestByKey(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Latest returns the current version of every batch, sorted by batch number.
// The dashboard renders this list.
func (ix *Index) Latest(ctx context.Context) ([]*Record, error) {
	latest, err := ix.latestByKey(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(latest))
	for _, rec := range latest {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].BatchNumber < records[j].BatchNumber
	})
	return records, nil
}
