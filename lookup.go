package docstore

import (
	"context"

	"github.com/hupe1980/docstore/record"
)

// Predicate is a capability-typed lookup: it receives a copy of the record
// and its id and reports whether the record matches. Predicates bypass the
// secondary index entirely and are evaluated per candidate.
type Predicate func(ctx context.Context, rec record.Record, id record.ID) (bool, error)

type lookupKind uint8

const (
	lookupByID lookupKind = iota
	lookupByPattern
	lookupByPredicate
)

// Lookup selects the records an operation applies to. Construct one with
// ByID, ByPattern, or ByPredicate.
type Lookup struct {
	kind      lookupKind
	id        record.ID
	pattern   record.Record
	predicate Predicate
}

// ByID selects the single record with the given id.
func ByID(id record.ID) Lookup {
	return Lookup{kind: lookupByID, id: id}
}

// ByPattern selects records deep-partial-matching the pattern. An empty (or
// nil) pattern selects every record.
func ByPattern(pattern record.Record) Lookup {
	return Lookup{kind: lookupByPattern, pattern: pattern}
}

// All selects every record in the collection.
func All() Lookup {
	return Lookup{kind: lookupByPattern}
}

// ByPredicate selects records for which fn returns true.
func ByPredicate(fn Predicate) Lookup {
	return Lookup{kind: lookupByPredicate, predicate: fn}
}

// FindOptions bounds result iteration. Limit and Offset are applied after
// match evaluation, in ascending id order. Zero values mean "no limit" and
// "no offset".
type FindOptions struct {
	Limit  int
	Offset int
}

// TransformFunc computes a replacement record from the current one. The
// result is validated as a whole record before being applied.
type TransformFunc func(ctx context.Context, rec record.Record, id record.ID) (record.Record, error)

type updateKind uint8

const (
	updatePatch updateKind = iota
	updateTransform
)

// Update describes a record mutation: either a partial-field patch merged
// onto the existing record, or a transform computing the full replacement.
type Update struct {
	kind      updateKind
	patch     record.Record
	transform TransformFunc
}

// Patch builds an Update that merges the given fields onto the existing
// record. The patch is schema-validated as a partial.
func Patch(fields record.Record) Update {
	return Update{kind: updatePatch, patch: fields}
}

// Transform builds an Update from a replacement function.
func Transform(fn TransformFunc) Update {
	return Update{kind: updateTransform, transform: fn}
}
