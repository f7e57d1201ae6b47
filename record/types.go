// Package record defines the core data model of docstore: records, record
// ids, snapshots, and the schema validation capability.
package record

import (
	"maps"
	"strconv"
	"strings"
	"time"
)

// ID identifies a record within a collection. IDs are positive, strictly
// monotonically increasing and never reused, even after deletion.
type ID uint64

// String returns the decimal representation of the ID.
func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseID parses a decimal record id.
func ParseID(s string) (ID, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	return ID(u), err
}

// Record is a schema-validated document. Records are treated as immutable
// values: mutations replace the whole record in the snapshot, they never
// modify a stored record in place.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Snapshot is the complete id -> record mapping for a collection. It is the
// unit of persistence and the unit of rollback.
type Snapshot map[ID]Record

// Clone returns a copy of the snapshot. Record values are shared, which is
// safe under the immutable-record convention.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	maps.Copy(out, s)
	return out
}

// MaxID returns the highest id present in the snapshot, or 0 if empty.
func (s Snapshot) MaxID() ID {
	var max ID
	for id := range s {
		if id > max {
			max = id
		}
	}
	return max
}

// CanonicalKey reduces a scalar field value to a canonical string key.
//
// Keys are used for index postings and uniqueness comparison, so they must
// agree with the matcher's equality semantics: strings are case-folded,
// integers and integral floats collapse to the same key, and times compare
// by instant. Non-scalar values (arrays, nested objects) are not indexable
// and return ok=false.
func CanonicalKey(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return "s:" + strings.ToLower(t), true
	case bool:
		if t {
			return "b:1", true
		}
		return "b:0", true
	case time.Time:
		return "t:" + strconv.FormatInt(t.UnixNano(), 10), true
	case int:
		return numKey(float64(t)), true
	case int8:
		return numKey(float64(t)), true
	case int16:
		return numKey(float64(t)), true
	case int32:
		return numKey(float64(t)), true
	case int64:
		return numKey(float64(t)), true
	case uint:
		return numKey(float64(t)), true
	case uint8:
		return numKey(float64(t)), true
	case uint16:
		return numKey(float64(t)), true
	case uint32:
		return numKey(float64(t)), true
	case uint64:
		return numKey(float64(t)), true
	case float32:
		return numKey(float64(t)), true
	case float64:
		return numKey(t), true
	default:
		return "", false
	}
}

func numKey(f float64) string {
	if f == float64(int64(f)) {
		return "n:" + strconv.FormatInt(int64(f), 10)
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}
