package batch

import (
	"context"
	"errors"
	"time"

	"github.com/batchtrace/batchtrace/internal/ledger"
	"go.uber.org/zap"
)

// AppendRecordFunc is an optional callback invoked after every successful
// ledger append, used to feed metrics without coupling the core to them.
type AppendRecordFunc func()

// Service is the mutation and query facade over one ledger stream. It
// composes the resolver, the diff engine, and the expiration index into the
// operations the CLI and web adapters consume.
//
// Mutations are a plain read-then-append with no compare-and-swap: two
// concurrent mutations that read the same current version both succeed, and
// whichever append lands last wins. See the package docs and DESIGN.md for
// why this is kept rather than fixed.
type Service struct {
	client   ledger.Client
	stream   string
	resolver *Resolver
	index    *Index
	onAppend AppendRecordFunc // nil = no metrics
	logger   *zap.Logger
}

// NewService creates a Service over the given stream.
func NewService(client ledger.Client, stream string, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		stream:   stream,
		resolver: NewResolver(client, stream),
		index:    NewIndex(client, stream),
		logger:   logger,
	}
}

// SetAppendRecord configures the per-append metrics callback.
func (s *Service) SetAppendRecord(fn AppendRecordFunc) {
	s.onAppend = fn
}

// publish encodes a snapshot and appends it as the record's next version.
func (s *Service) publish(ctx context.Context, key string, rec *Record) error {
	payload, err := Encode(rec)
	if err != nil {
		return err
	}
	entryID, err := s.client.Append(ctx, s.stream, key, payload)
	if err != nil {
		return err
	}
	if s.onAppend != nil {
		s.onAppend()
	}
	s.logger.Info("batch snapshot published",
		zap.String("batch", key),
		zap.String("entry_id", entryID),
	)
	return nil
}

// Create publishes the initial snapshot for a batch: status pending, empty
// QC tests, deviations, CAPA, and OOS lists.
//
// Create is deliberately not guarded against an existing chain. Re-creating
// a batch appends a fresh initial snapshot as its next version, which makes
// the operation an effective reset rather than an error. Callers that need
// strict create semantics must check Current first; a warning is logged so
// accidental resets stay visible in the audit trail.
func (s *Service) Create(ctx context.Context, key, manufactureDate, expirationDate string) (*Record, error) {
	if _, err := s.resolver.Current(ctx, key); err == nil {
		s.logger.Warn("create over existing chain, appending fresh initial snapshot",
			zap.String("batch", key),
		)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rec := NewRecord(key, manufactureDate, expirationDate)
	if err := s.publish(ctx, key, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// mutate reads the current version, applies fn to it, and publishes the
// result as the next version. ErrNotFound propagates when no chain exists.
func (s *Service) mutate(ctx context.Context, key string, fn func(*Record)) (*Record, error) {
	rec, err := s.resolver.Current(ctx, key)
	if err != nil {
		return nil, err
	}
	fn(rec)
	if err := s.publish(ctx, key, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AppendQCTest appends one QC test result to the batch and publishes the
// updated snapshot.
func (s *Service) AppendQCTest(ctx context.Context, key string, test QCTest) (*Record, error) {
	return s.mutate(ctx, key, func(r *Record) {
		r.QCTests = append(r.QCTests, test)
	})
}

// UpdateReleaseStatus replaces the batch's release status.
func (s *Service) UpdateReleaseStatus(ctx context.Context, key, status string) (*Record, error) {
	return s.mutate(ctx, key, func(r *Record) {
		r.ReleaseStatus = status
	})
}

// UpdateExpirationDate replaces the batch's expiration date. The new date is
// validated before the current version is read; on a malformed date nothing
// is appended.
func (s *Service) UpdateExpirationDate(ctx context.Context, key, expirationDate string) (*Record, error) {
	if _, err := time.Parse(DateLayout, expirationDate); err != nil {
		return nil, &ValidationError{Input: expirationDate, Reason: "expected YYYY-MM-DD"}
	}
	return s.mutate(ctx, key, func(r *Record) {
		r.ExpirationDate = expirationDate
	})
}

// AppendDeviation appends a deviation identifier to the batch.
func (s *Service) AppendDeviation(ctx context.Context, key, deviationID string) (*Record, error) {
	return s.mutate(ctx, key, func(r *Record) {
		r.Deviations = append(r.Deviations, deviationID)
	})
}

// AppendCAPA appends a CAPA identifier to the batch.
func (s *Service) AppendCAPA(ctx context.Context, key, capaID string) (*Record, error) {
	return s.mutate(ctx, key, func(r *Record) {
		r.CAPA = append(r.CAPA, capaID)
	})
}

// AppendOOS appends an out-of-specification investigation identifier to the
// batch.
func (s *Service) AppendOOS(ctx context.Context, key, oosID string) (*Record, error) {
	return s.mutate(ctx, key, func(r *Record) {
		r.OOSInvestigations = append(r.OOSInvestigations, oosID)
	})
}

// Current returns the batch's current version.
func (s *Service) Current(ctx context.Context, key string) (*Record, error) {
	return s.resolver.Current(ctx, key)
}

// History returns every version of the batch in chain order.
func (s *Service) History(ctx context.Context, key string) ([]*Record, error) {
	return s.resolver.History(ctx, key)
}

// Changes walks the batch's history and diffs each consecutive version pair.
// A chain of N versions yields N-1 diffs; diffs with no changed fields are
// included so version numbering stays contiguous for audit display.
func (s *Service) Changes(ctx context.Context, key string) ([]VersionDiff, error) {
	versions, err := s.resolver.fieldHistory(ctx, key)
	if err != nil {
		return nil, err
	}

	diffs := make([]VersionDiff, 0, len(versions)-1)
	for i := 1; i < len(versions); i++ {
		diffs = append(diffs, VersionDiff{
			FromVersion: i,
			ToVersion:   i + 1,
			Fields:      FieldDiff(versions[i-1], versions[i]),
		})
	}
	return diffs, nil
}

// FindByExpiration returns the current version of every batch matching the
// expiration query (YYYY, YYYY-MM, or YYYY-MM-DD).
func (s *Service) FindByExpiration(ctx context.Context, input string) ([]*Record, error) {
	return s.index.FindByExpiration(ctx, input)
}

// ListKeys returns every distinct batch number on the stream, sorted.
func (s *Service) ListKeys(ctx context.Context) ([]string, error) {
	return s.index.ListKeys(ctx)
}

// Latest returns the current version of every batch, sorted by batch number.
func (s *Service) Latest(ctx context.Context) ([]*Record, error) {
	return s.index.Latest(ctx)
}
