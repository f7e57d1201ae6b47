package docstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hupe1980/docstore/codec"
	"github.com/hupe1980/docstore/internal/fs"
	"github.com/hupe1980/docstore/record"
	"github.com/hupe1980/docstore/resource"
	"github.com/hupe1980/docstore/storage"
)

// dataSubdir is the subdirectory of the root folder holding collection files.
const dataSubdir = "data"

// Database is the top-level handle: it owns the root folder, the shared
// resource controller, and the collection registry. Collections are defined
// with [Define].
type Database struct {
	root    string
	dataDir string
	res     *resource.Controller
	logger  *Logger
	metrics MetricsCollector
	fsys    fs.FileSystem

	mu          sync.Mutex
	closed      bool
	collections map[string]interface{ Close() error }
}

// Open bootstraps the database folder (creating <root>/data if needed) and
// returns the Database handle.
func Open(root string, optFns ...Option) (*Database, error) {
	o := applyOptions(optFns)

	dataDir := filepath.Join(root, dataSubdir)
	if err := o.fsys.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &Database{
		root:        root,
		dataDir:     dataDir,
		res:         resource.NewController(o.resource),
		logger:      o.logger,
		metrics:     o.metrics,
		fsys:        o.fsys,
		collections: make(map[string]interface{ Close() error }),
	}, nil
}

// Root returns the configured root folder.
func (db *Database) Root() string { return db.root }

// Close closes every defined collection.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true

	var firstErr error
	for _, c := range db.collections {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (db *Database) register(name string, c interface{ Close() error }) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	if _, ok := db.collections[name]; ok {
		return fmt.Errorf("collection %q is already defined", name)
	}
	db.collections[name] = c
	return nil
}

// Define registers a collection named name, persisted at
// <root>/data/<name><ext> where ext is determined by the collection codec.
// The schema supplies validation plus the unique and indexed field sets; the
// factory wraps every record returned to a caller.
func Define[M any](db *Database, name string, schema *record.Schema, factory Factory[M], optFns ...CollectionOption) (*Collection[M], error) {
	if name == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}
	if schema == nil {
		return nil, fmt.Errorf("collection %q: schema must not be nil", name)
	}
	if factory == nil {
		return nil, fmt.Errorf("collection %q: factory must not be nil", name)
	}

	o := collectionOptions{codec: codec.Default}
	for _, fn := range optFns {
		fn(&o)
	}

	path := filepath.Join(db.dataDir, name+o.codec.Ext())
	engine := storage.NewFileEngine(path, func(so *storage.Options) {
		so.Codec = o.codec
		so.FS = db.fsys
		so.Controller = db.res
		so.Validate = func(rec record.Record) error {
			if _, ferrs := schema.Validate(rec); ferrs != nil {
				return &ValidationError{Fields: ferrs}
			}
			return nil
		}
	})

	c := newCollection(name, schema, factory, engine, db.res, db.logger.WithCollection(name), db.metrics, o.lockFns)

	if err := db.register(name, c); err != nil {
		c.locks.Close()
		return nil, err
	}

	if o.eager {
		if err := c.ensureLoaded(context.Background()); err != nil {
			return nil, err
		}
	}
	return c, nil
}
