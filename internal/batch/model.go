// Package batch implements the versioned manufacturing-batch record layer:
// the wire codec, version-chain resolution, cross-version diffing, the
// expiration index, and the mutation facade consumed by the CLI and web
// adapters.
//
// Every mutation reads a record's current version from the ledger, applies
// one change to an in-memory copy, and appends a brand-new full snapshot as
// the next version. Entries are never deleted; the ledger is the sole source
// of truth and is re-scanned on every read.
package batch

import "time"

// StatusPending is the release status a record is created with. The status
// field is otherwise free-form: callers supply whatever value their QA
// process uses ("released", "rejected", "on_hold", ...).
const StatusPending = "pending"

// DateLayout is the day-granularity date format used throughout
// ("2025-01-31"). Manufacture and expiration dates are stored as strings in
// this layout, exactly as published to the ledger.
const DateLayout = "2006-01-02"

// QCTest is one quality-control result attached to a batch. TestHash is the
// SHA-256 fingerprint of the raw instrument output the result was derived
// from.
type QCTest struct {
	TestName   string `json:"test_name"`
	TestResult string `json:"test_result"`
	TestHash   string `json:"test_hash"`
}

// Record is the versioned business object for one manufacturing batch.
// The JSON tags define the canonical payload layout on the ledger and must
// not change: existing chains were published with these exact field names.
//
// All list fields are append-only from the domain's perspective; no
// operation removes entries.
type Record struct {
	BatchNumber       string   `json:"batch_number"`
	ManufactureDate   string   `json:"manufacture_date"`
	ExpirationDate    string   `json:"expiration_date"`
	ReleaseStatus     string   `json:"release_status"`
	QCTests           []QCTest `json:"qc_tests"`
	Deviations        []string `json:"deviations"`
	CAPA              []string `json:"CAPA"`
	OOSInvestigations []string `json:"OOS_investigations"`
}

// NewRecord builds the initial snapshot for a batch: status pending, all
// list fields present but empty (empty slices, not nil, so the published
// JSON carries [] rather than null).
func NewRecord(batchNumber, manufactureDate, expirationDate string) *Record {
	return &Record{
		BatchNumber:       batchNumber,
		ManufactureDate:   manufactureDate,
		ExpirationDate:    expirationDate,
		ReleaseStatus:     StatusPending,
		QCTests:           []QCTest{},
		Deviations:        []string{},
		CAPA:              []string{},
		OOSInvestigations: []string{},
	}
}

// ExpirationTime parses the record's expiration date. ok is false when the
// field is missing or not in DateLayout; such records are silently skipped
// by the expiration index.
func (r *Record) ExpirationTime() (time.Time, bool) {
	t, err := time.Parse(DateLayout, r.ExpirationDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
