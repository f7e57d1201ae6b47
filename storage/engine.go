// Package storage implements the pluggable persistence backend for
// collection snapshots.
//
// An Engine persists a full snapshot atomically with respect to process
// crashes and reads it back, self-initializing an empty file on first run.
// Implementations differ only in encoding (selected via a codec); the
// atomicity and recovery contract is invariant.
package storage

import (
	"context"

	"github.com/hupe1980/docstore/record"
)

// Engine is the snapshot persistence boundary.
// Implementations must be safe for concurrent use.
type Engine interface {
	// Write serializes the snapshot and durably replaces the on-disk file.
	// If Write returns an error, the target file is unchanged.
	Write(ctx context.Context, snap record.Snapshot) error

	// Read loads the snapshot from disk. If the file does not exist, Read
	// initializes it with an empty snapshot and returns that.
	Read(ctx context.Context) (record.Snapshot, error)

	// Path returns the target file path.
	Path() string
}
