package ledger_test

import (
	"testing"

	"github.com/batchtrace/batchtrace/internal/ledger"
)

func TestMemory_appendOrderPreserved(t *testing.T) {
	mem := ledger.NewMemory()

	for _, p := range []string{"v1", "v2", "v3"} {
		if _, err := mem.Append(ctx, "root", "B1", []byte(p)); err != nil {
			t.Fatal(err)
		}
	}

	payloads, err := mem.ListForKey(ctx, "root", "B1")
	if err != nil {
		t.Fatal(err)
	}
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}
	for i, want := range []string{"v1", "v2", "v3"} {
		if string(payloads[i]) != want {
			t.Errorf("payload %d: got %q, want %q", i, payloads[i], want)
		}
	}
}

func TestMemory_listForKeyEmptyChain(t *testing.T) {
	mem := ledger.NewMemory()

	payloads, err := mem.ListForKey(ctx, "root", "missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(payloads) != 0 {
		t.Errorf("expected empty result, got %d payloads", len(payloads))
	}
}

func TestMemory_appendCopiesPayload(t *testing.T) {
	mem := ledger.NewMemory()

	payload := []byte("original")
	if _, err := mem.Append(ctx, "root", "B1", payload); err != nil {
		t.Fatal(err)
	}
	payload[0] = 'X'

	got, err := mem.ListForKey(ctx, "root", "B1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got[0]) != "original" {
		t.Errorf("stored payload mutated: %q", got[0])
	}
}

func TestMemory_streamsAreIsolated(t *testing.T) {
	mem := ledger.NewMemory()

	if _, err := mem.Append(ctx, "root", "B1", []byte("aa")); err != nil {
		t.Fatal(err)
	}

	items, err := mem.ListAll(ctx, "other")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty stream, got %d items", len(items))
	}
}
