package batch_test

import (
	"errors"
	"testing"

	"github.com/batchtrace/batchtrace/internal/batch"
	"github.com/batchtrace/batchtrace/internal/ledger"
	"go.uber.org/zap"
)

func batchNumbers(records []*batch.Record) []string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.BatchNumber)
	}
	return keys
}

func TestFindByExpiration_granularities(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Create(ctx, "B1", "2025-01-01", "2026-06-15"); err != nil {
		t.Fatal(err)
	}

	for _, query := range []string{"2026", "2026-06", "2026-06-15"} {
		got, err := svc.FindByExpiration(ctx, query)
		if err != nil {
			t.Fatalf("FindByExpiration(%q): %v", query, err)
		}
		if len(got) != 1 || got[0].BatchNumber != "B1" {
			t.Errorf("FindByExpiration(%q): got %v, want [B1]", query, batchNumbers(got))
		}
	}

	for _, query := range []string{"2026-07", "2027", "2026-06-14"} {
		got, err := svc.FindByExpiration(ctx, query)
		if err != nil {
			t.Fatalf("FindByExpiration(%q): %v", query, err)
		}
		if len(got) != 0 {
			t.Errorf("FindByExpiration(%q): got %v, want no matches", query, batchNumbers(got))
		}
	}
}

func TestFindByExpiration_invalidInput(t *testing.T) {
	svc, _ := newService(t)

	for _, input := range []string{"", "26", "2026-6", "June 2026", "2026-06-15T00", "20XX"} {
		_, err := svc.FindByExpiration(ctx, input)
		var ve *batch.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("FindByExpiration(%q): expected *ValidationError, got %v", input, err)
		}
	}
}

// The latest chain entry per key wins: a batch whose expiration moved from
// 2026 to 2027 matches only the 2027 query.
func TestFindByExpiration_latestVersionWins(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Create(ctx, "B1", "2025-01-01", "2026-01-01"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateExpirationDate(ctx, "B1", "2026-02-01"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateExpirationDate(ctx, "B1", "2027-03-01"); err != nil {
		t.Fatal(err)
	}

	got, err := svc.FindByExpiration(ctx, "2027")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].BatchNumber != "B1" {
		t.Errorf("2027: got %v, want [B1]", batchNumbers(got))
	}

	got, err = svc.FindByExpiration(ctx, "2026")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("2026: stale versions must not match, got %v", batchNumbers(got))
	}
}

func TestFindByExpiration_unparseableExpirationSkipped(t *testing.T) {
	mem := ledger.NewMemory()
	svc := batch.NewService(mem, "root", zap.NewNop())

	if _, err := svc.Create(ctx, "GOOD", "2025-01-01", "2026-06-15"); err != nil {
		t.Fatal(err)
	}

	// A record with a garbage expiration date, published by a foreign writer.
	broken := batch.NewRecord("BROKEN", "2025-01-01", "sometime next year")
	payload, err := batch.Encode(broken)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mem.Append(ctx, "root", "BROKEN", payload); err != nil {
		t.Fatal(err)
	}

	got, err := svc.FindByExpiration(ctx, "2026")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].BatchNumber != "GOOD" {
		t.Errorf("got %v, want [GOOD]", batchNumbers(got))
	}
}

func TestListKeys_distinctAndSorted(t *testing.T) {
	svc, _ := newService(t)
	for _, key := range []string{"B3", "B1", "B2"} {
		if _, err := svc.Create(ctx, key, "2025-01-01", "2026-06-01"); err != nil {
			t.Fatal(err)
		}
	}
	// Extra versions must not duplicate keys.
	if _, err := svc.UpdateReleaseStatus(ctx, "B2", "released"); err != nil {
		t.Fatal(err)
	}

	keys, err := svc.ListKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"B1", "B2", "B3"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want %v", keys, want)
		}
	}
}

func TestIndex_decodeErrorSurfaces(t *testing.T) {
	mem := ledger.NewMemory()
	svc := batch.NewService(mem, "root", zap.NewNop())
	if _, err := mem.Append(ctx, "root", "B1", []byte("zzzz")); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ListKeys(ctx)
	var de *batch.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("expected *DecodeError, got %v", err)
	}
}
