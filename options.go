package docstore

import (
	"log/slog"

	"github.com/hupe1980/docstore/codec"
	"github.com/hupe1980/docstore/internal/fs"
	"github.com/hupe1980/docstore/lockmgr"
	"github.com/hupe1980/docstore/resource"
)

type options struct {
	logger   *Logger
	metrics  MetricsCollector
	resource resource.Config
	fsys     fs.FileSystem
}

// Option configures Open behavior.
type Option func(*options)

// WithLogger configures structured logging for all collections.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for all collections.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithResourceConfig configures the shared resource controller: the
// in-flight operation cap and the optional IO throughput limit.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resource = cfg
	}
}

// WithFileSystem overrides the filesystem used for all persistence.
// Primarily for tests (fault injection).
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fsys = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metrics: NoopMetricsCollector{},
		fsys:    fs.Default,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	return o
}

type collectionOptions struct {
	codec   codec.Codec
	lockFns []func(*lockmgr.Options)
	eager   bool
}

// CollectionOption configures Define behavior.
type CollectionOption func(*collectionOptions)

// WithCodec configures the snapshot encoding for the collection. The codec
// determines the on-disk file extension. If nil is passed, codec.Default is
// used.
func WithCodec(c codec.Codec) CollectionOption {
	return func(o *collectionOptions) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLockOptions tunes the per-id lock manager (idle threshold, sweep
// interval).
func WithLockOptions(fns ...func(*lockmgr.Options)) CollectionOption {
	return func(o *collectionOptions) {
		o.lockFns = append(o.lockFns, fns...)
	}
}

// WithEagerLoad loads the snapshot at definition time instead of lazily on
// first access. Define then fails fast on an unreadable file.
func WithEagerLoad() CollectionOption {
	return func(o *collectionOptions) {
		o.eager = true
	}
}
