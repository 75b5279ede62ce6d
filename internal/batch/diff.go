package batch

import "reflect"

// Change holds the before/after values of one top-level field. Old is nil
// when the field first appeared in the newer version.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// FieldDiff compares two record versions field by field and returns the
// fields that differ, keyed by field name.
//
// The comparison is driven entirely by the newer version's field set: a
// field present in old but absent from new is never reported. This asymmetry
// is load-bearing — consumers rely on a record that legitimately dropped a
// field (e.g. one published by an older schema) not showing up as a change.
//
// The diff is shallow per top-level field: when a list gains one element the
// reported change is the whole old array versus the whole new array.
func FieldDiff(old, new map[string]any) map[string]Change {
	changes := make(map[string]Change)
	for field, newVal := range new {
		oldVal, ok := old[field]
		if !ok {
			changes[field] = Change{Old: nil, New: newVal}
			continue
		}
		if !reflect.DeepEqual(oldVal, newVal) {
			changes[field] = Change{Old: oldVal, New: newVal}
		}
	}
	return changes
}

// VersionDiff is the set of field changes between two consecutive versions
// of one record. Versions are numbered from 1, matching audit display.
type VersionDiff struct {
	FromVersion int               `json:"from_version"`
	ToVersion   int               `json:"to_version"`
	Fields      map[string]Change `json:"fields"`
}
