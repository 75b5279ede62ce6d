package batch_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/batchtrace/batchtrace/internal/batch"
)

func TestEncodeDecode_roundTrip(t *testing.T) {
	rec := batch.NewRecord("B-2025-001", "2025-01-01", "2026-06-01")
	rec.QCTests = append(rec.QCTests, batch.QCTest{
		TestName:   "sterility",
		TestResult: "pass",
		TestHash:   "ab12",
	})
	rec.Deviations = append(rec.Deviations, "DEV-7")

	payload, err := batch.Encode(rec)
	if err != nil {
		t.Fatal(err)
	}

	got, err := batch.Decode(payload)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestDecode_invalidHex(t *testing.T) {
	_, err := batch.Decode([]byte("not-hex-at-all"))

	var de *batch.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestDecode_hexButNotJSON(t *testing.T) {
	// "deadbeef" is valid hex but the decoded bytes are not JSON.
	_, err := batch.Decode([]byte("deadbeef"))

	var de *batch.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestDecodeFields_preservesAbsentFields(t *testing.T) {
	payload, err := batch.Encode(batch.NewRecord("B1", "2025-01-01", "2026-06-01"))
	if err != nil {
		t.Fatal(err)
	}

	fields, err := batch.DecodeFields(payload)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fields["batch_number"]; !ok {
		t.Error("expected batch_number key in field map")
	}
	if _, ok := fields["CAPA"]; !ok {
		t.Error("expected CAPA key in field map")
	}
}
