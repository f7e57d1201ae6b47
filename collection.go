package docstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/docstore/index"
	"github.com/hupe1980/docstore/lockmgr"
	"github.com/hupe1980/docstore/match"
	"github.com/hupe1980/docstore/record"
	"github.com/hupe1980/docstore/resource"
	"github.com/hupe1980/docstore/storage"
)

// Factory constructs the caller-facing model from a validated record and its
// id. It is supplied at collection definition time and applied to every
// record returned to a caller.
type Factory[M any] func(rec record.Record, id record.ID) M

// Model is a minimal caller-facing wrapper pairing a record with its id.
type Model struct {
	ID     record.ID
	Fields record.Record
}

// RecordFactory is a ready-made Factory producing Model values.
func RecordFactory(rec record.Record, id record.ID) Model {
	return Model{ID: id, Fields: rec}
}

// Collection is the per-collection datastore engine: it owns the in-memory
// snapshot, the id allocator, uniqueness enforcement, the secondary index,
// and per-id locking, and orchestrates them into the public operation set.
type Collection[M any] struct {
	name    string
	schema  *record.Schema
	factory Factory[M]
	engine  storage.Engine
	locks   *lockmgr.Manager
	idx     *index.Inverted
	res     *resource.Controller
	logger  *Logger
	metrics MetricsCollector

	// mu guards snapshot, nextID and loaded. Logical mutation spans are
	// additionally serialized per id by locks.
	mu       sync.RWMutex
	loaded   bool
	snapshot record.Snapshot
	nextID   record.ID

	// persistMu serializes the snapshot persist step across operations, so
	// snapshots reach disk in mutation order.
	persistMu sync.Mutex
}

func newCollection[M any](
	name string,
	schema *record.Schema,
	factory Factory[M],
	engine storage.Engine,
	res *resource.Controller,
	logger *Logger,
	metrics MetricsCollector,
	lockFns []func(*lockmgr.Options),
) *Collection[M] {
	return &Collection[M]{
		name:    name,
		schema:  schema,
		factory: factory,
		engine:  engine,
		locks:   lockmgr.New(lockFns...),
		idx:     index.New(schema.IndexedFields()...),
		res:     res,
		logger:  logger,
		metrics: metrics,
	}
}

// Name returns the collection name.
func (c *Collection[M]) Name() string { return c.name }

// Close stops the collection's lock sweeper.
func (c *Collection[M]) Close() error {
	c.locks.Close()
	return nil
}

// ensureLoaded lazily loads the snapshot from the storage engine. A failed
// load yields a NotReadyError and is retried on the next call; ids are
// derived as max(id)+1, starting at 1 for an empty collection.
func (c *Collection[M]) ensureLoaded(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	snap, err := c.engine.Read(ctx)
	if err != nil {
		c.logger.LogLoad(ctx, 0, err)
		return &NotReadyError{cause: err}
	}

	c.snapshot = snap
	c.nextID = snap.MaxID() + 1
	c.loaded = true
	c.idx.Rebuild(snap)
	c.logger.LogLoad(ctx, len(snap), nil)
	return nil
}

// persist serializes the entire current snapshot and writes it atomically.
// On success the secondary index is rebuilt from the persisted state.
func (c *Collection[M]) persist(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	start := time.Now()

	c.mu.RLock()
	snap := c.snapshot.Clone()
	c.mu.RUnlock()

	if err := c.engine.Write(ctx, snap); err != nil {
		c.metrics.RecordPersist(time.Since(start), err)
		c.logger.LogPersist(ctx, len(snap), err)
		return &IOError{Op: "write", cause: err}
	}

	c.idx.Rebuild(snap)
	c.metrics.RecordPersist(time.Since(start), nil)
	c.logger.LogPersist(ctx, len(snap), nil)
	return nil
}

// get returns the current record for id.
func (c *Collection[M]) get(id record.ID) (record.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.snapshot[id]
	return rec, ok
}

// allIDs returns every snapshot id in ascending order.
func (c *Collection[M]) allIDs() []record.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]record.ID, 0, len(c.snapshot))
	for id := range c.snapshot {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// checkUniqueLocked scans the snapshot for another record holding an equal
// value for any unique field of candidate. Equality follows canonical-key
// semantics (case-insensitive for strings), consistent with the matcher.
//
// The caller must hold c.mu and keep holding it over the subsequent snapshot
// write: scanning and inserting in separate critical sections would let two
// concurrent mutations both pass the scan before either lands.
func (c *Collection[M]) checkUniqueLocked(candidate record.Record, exclude record.ID) error {
	for _, field := range c.schema.UniqueFields() {
		v, ok := candidate[field]
		if !ok || v == nil {
			continue
		}
		key, ok := record.CanonicalKey(v)
		if !ok {
			continue
		}
		for id, rec := range c.snapshot {
			if id == exclude {
				continue
			}
			rv, ok := rec[field]
			if !ok {
				continue
			}
			if rk, ok := record.CanonicalKey(rv); ok && rk == key {
				return &ConflictError{Field: field, Value: v}
			}
		}
	}
	return nil
}

// shapeConformant reports whether every key the pattern specifies is a
// direct key of the schema. Only such patterns are eligible for
// index-assisted resolution.
func (c *Collection[M]) shapeConformant(pattern record.Record) bool {
	for k := range pattern {
		if !c.schema.Has(k) {
			return false
		}
	}
	return true
}

// resolveCandidates resolves the candidate id set for a lookup, in ascending
// id order. When a shape-conformant pattern pins an indexed field to a
// scalar value, the index answers in O(1) instead of a full scan; if that
// field is also unique, short reports that the candidate set alone decides
// the lookup and remaining clauses can be skipped. Only read paths may act
// on short; bulk mutation re-evaluates every candidate.
func (c *Collection[M]) resolveCandidates(q Lookup) (ids []record.ID, short bool) {
	switch q.kind {
	case lookupByID:
		if _, ok := c.get(q.id); ok {
			return []record.ID{q.id}, false
		}
		return nil, false

	case lookupByPattern:
		if len(q.pattern) > 0 && c.shapeConformant(q.pattern) {
			for _, field := range c.idx.Fields() {
				v, ok := q.pattern[field]
				if !ok {
					continue
				}
				candidates, ok := c.idx.Lookup(field, v)
				if !ok {
					continue
				}
				unique := c.schema.Fields[field].Unique
				return candidates, unique
			}
		}
		return c.allIDs(), false

	default:
		return c.allIDs(), false
	}
}

// evalCandidate re-reads the record under the caller-held lock state and
// evaluates the lookup against it. The record may have been mutated or
// removed between resolution and lock acquisition, so candidates are always
// re-checked.
func (c *Collection[M]) evalCandidate(ctx context.Context, q Lookup, id record.ID, short bool) (record.Record, bool, error) {
	rec, ok := c.get(id)
	if !ok {
		return nil, false, nil
	}

	switch q.kind {
	case lookupByID:
		return rec, true, nil
	case lookupByPattern:
		if short {
			// Unique indexed field pinned: membership alone decides.
			return rec, true, nil
		}
		return rec, match.Match(q.pattern, rec), nil
	default:
		ok, err := q.predicate(ctx, rec.Clone(), id)
		if err != nil {
			return nil, false, err
		}
		return rec, ok, nil
	}
}

type matched struct {
	id  record.ID
	rec record.Record
}

// collect iterates candidates in order, evaluating each under its per-id
// lock, applying offset/limit after match evaluation. stopEarly caps
// evaluation at the first match (for Exists).
func (c *Collection[M]) collect(ctx context.Context, q Lookup, opts *FindOptions, stopEarly bool) ([]matched, error) {
	ids, short := c.resolveCandidates(q)

	var (
		out     []matched
		skipped int
		limit   int
		offset  int
	)
	if opts != nil {
		limit = opts.Limit
		offset = opts.Offset
	}

	for _, id := range ids {
		release := c.locks.Acquire(id)
		rec, ok, err := c.evalCandidate(ctx, q, id, short)
		release()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, matched{id: id, rec: rec})
		if stopEarly || (limit > 0 && len(out) >= limit) {
			break
		}
	}
	return out, nil
}

// Exists reports whether any record matches the lookup. For a pattern
// pinning a unique indexed field, candidate set membership alone answers
// existence.
func (c *Collection[M]) Exists(ctx context.Context, q Lookup) (bool, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if err := c.res.AcquireOp(ctx); err != nil {
		return false, err
	}
	defer c.res.ReleaseOp()

	start := time.Now()
	res, err := c.collect(ctx, q, nil, true)
	c.metrics.RecordFind(len(res), time.Since(start), err)
	c.logger.LogFind(ctx, len(res), err)
	if err != nil {
		return false, err
	}
	return len(res) > 0, nil
}

// Count returns the number of records matching the lookup.
func (c *Collection[M]) Count(ctx context.Context, q Lookup) (int, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	if err := c.res.AcquireOp(ctx); err != nil {
		return 0, err
	}
	defer c.res.ReleaseOp()

	start := time.Now()
	res, err := c.collect(ctx, q, nil, false)
	c.metrics.RecordFind(len(res), time.Since(start), err)
	c.logger.LogFind(ctx, len(res), err)
	if err != nil {
		return 0, err
	}
	return len(res), nil
}

// Find returns the models for every record matching the lookup, in
// ascending id order, bounded by opts. Zero matches is not a failure: Find
// returns an empty slice.
func (c *Collection[M]) Find(ctx context.Context, q Lookup, opts *FindOptions) ([]M, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if err := c.res.AcquireOp(ctx); err != nil {
		return nil, err
	}
	defer c.res.ReleaseOp()

	start := time.Now()
	res, err := c.collect(ctx, q, opts, false)
	c.metrics.RecordFind(len(res), time.Since(start), err)
	c.logger.LogFind(ctx, len(res), err)
	if err != nil {
		return nil, err
	}

	models := make([]M, len(res))
	for i, m := range res {
		models[i] = c.factory(m.rec.Clone(), m.id)
	}
	return models, nil
}

// FindOne returns the first record matching the lookup, or nil when nothing
// matches. "No results" is not a failure.
func (c *Collection[M]) FindOne(ctx context.Context, q Lookup) (*M, error) {
	models, err := c.Find(ctx, q, &FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	return &models[0], nil
}

// Create validates the candidate record, allocates the next id, enforces
// unique constraints against the whole snapshot, inserts, and persists. Ids
// are never reused, even if the creation subsequently fails to persist.
func (c *Collection[M]) Create(ctx context.Context, rec record.Record) (M, error) {
	var zero M
	if err := c.ensureLoaded(ctx); err != nil {
		return zero, err
	}
	if err := c.res.AcquireOp(ctx); err != nil {
		return zero, err
	}
	defer c.res.ReleaseOp()

	start := time.Now()
	m, id, err := c.create(ctx, rec)
	c.metrics.RecordCreate(time.Since(start), err)
	c.logger.LogCreate(ctx, id, err)
	return m, err
}

func (c *Collection[M]) create(ctx context.Context, rec record.Record) (M, record.ID, error) {
	var zero M

	validated, ferrs := c.schema.Validate(rec)
	if ferrs != nil {
		return zero, 0, &ValidationError{Fields: ferrs}
	}

	// The allocator counter is monotonic and never rolled back, so a failed
	// persist cannot lead to id reuse across retries.
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.mu.Unlock()

	release := c.locks.Acquire(id)
	defer release()

	c.mu.Lock()
	if err := c.checkUniqueLocked(validated, id); err != nil {
		c.mu.Unlock()
		return zero, id, err
	}
	c.snapshot[id] = validated
	c.mu.Unlock()

	if err := c.persist(ctx); err != nil {
		c.mu.Lock()
		delete(c.snapshot, id)
		c.mu.Unlock()
		return zero, id, err
	}

	return c.factory(validated.Clone(), id), id, nil
}

// applyUpdate computes the replacement record for cur under u. Patches are
// validated as partials and merged; transforms receive a copy of the current
// record and their result is validated as a whole record.
func (c *Collection[M]) applyUpdate(ctx context.Context, cur record.Record, id record.ID, u Update) (record.Record, error) {
	if u.kind == updateTransform {
		next, err := u.transform(ctx, cur.Clone(), id)
		if err != nil {
			return nil, err
		}
		validated, ferrs := c.schema.Validate(next)
		if ferrs != nil {
			return nil, &ValidationError{Fields: ferrs}
		}
		return validated, nil
	}

	patch, ferrs := c.schema.ValidatePartial(u.patch)
	if ferrs != nil {
		return nil, &ValidationError{Fields: ferrs}
	}
	next := cur.Clone()
	for k, v := range patch {
		next[k] = v
	}
	return next, nil
}

// FindOneAndUpdate applies the update to the record with the given id under
// that id's lock and persists the result. It returns the updated model, or
// ErrNotFound if the id is absent. On persist failure the prior value is
// restored and the write error propagated.
func (c *Collection[M]) FindOneAndUpdate(ctx context.Context, id record.ID, u Update) (M, error) {
	var zero M
	if err := c.ensureLoaded(ctx); err != nil {
		return zero, err
	}
	if err := c.res.AcquireOp(ctx); err != nil {
		return zero, err
	}
	defer c.res.ReleaseOp()

	start := time.Now()
	m, err := c.updateOne(ctx, id, u)
	c.metrics.RecordUpdate(time.Since(start), err)
	c.logger.LogUpdate(ctx, id, err)
	return m, err
}

func (c *Collection[M]) updateOne(ctx context.Context, id record.ID, u Update) (M, error) {
	var zero M

	release := c.locks.Acquire(id)
	defer release()

	cur, ok := c.get(id)
	if !ok {
		return zero, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	next, err := c.applyUpdate(ctx, cur, id, u)
	if err != nil {
		return zero, err
	}

	c.mu.Lock()
	if err := c.checkUniqueLocked(next, id); err != nil {
		c.mu.Unlock()
		return zero, err
	}
	c.snapshot[id] = next
	c.mu.Unlock()

	if err := c.persist(ctx); err != nil {
		c.mu.Lock()
		c.snapshot[id] = cur
		c.mu.Unlock()
		return zero, err
	}

	return c.factory(next.Clone(), id), nil
}

// FindOneAndDelete removes the record with the given id under that id's lock
// and persists. It returns the deleted model, or ErrNotFound if the id is
// absent. On persist failure the removed record is re-inserted.
func (c *Collection[M]) FindOneAndDelete(ctx context.Context, id record.ID) (M, error) {
	var zero M
	if err := c.ensureLoaded(ctx); err != nil {
		return zero, err
	}
	if err := c.res.AcquireOp(ctx); err != nil {
		return zero, err
	}
	defer c.res.ReleaseOp()

	start := time.Now()
	m, err := c.deleteOne(ctx, id)
	c.metrics.RecordDelete(time.Since(start), err)
	c.logger.LogDelete(ctx, id, err)
	return m, err
}

func (c *Collection[M]) deleteOne(ctx context.Context, id record.ID) (M, error) {
	var zero M

	release := c.locks.Acquire(id)
	defer release()

	cur, ok := c.get(id)
	if !ok {
		return zero, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	c.mu.Lock()
	delete(c.snapshot, id)
	c.mu.Unlock()

	if err := c.persist(ctx); err != nil {
		c.mu.Lock()
		c.snapshot[id] = cur
		c.mu.Unlock()
		return zero, err
	}

	return c.factory(cur.Clone(), id), nil
}

// rollback restores the pre-images of every touched id. A nil pre-image
// means the id did not exist before the operation and is removed.
func (c *Collection[M]) rollback(touched map[record.ID]record.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, pre := range touched {
		if pre == nil {
			delete(c.snapshot, id)
		} else {
			c.snapshot[id] = pre
		}
	}
}

// FindAndUpdate applies the update to every record matching the lookup and
// persists once for the whole batch. Each candidate is re-checked under its
// lock before mutation. The operation is all-or-nothing at the validation
// level: if any record's update fails validation (or a uniqueness check),
// every id touched so far is rolled back and the failure returned. Zero
// ultimately-matched candidates yields ErrNoMatch.
func (c *Collection[M]) FindAndUpdate(ctx context.Context, q Lookup, u Update) ([]M, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if err := c.res.AcquireOp(ctx); err != nil {
		return nil, err
	}
	defer c.res.ReleaseOp()

	start := time.Now()
	models, touched, err := c.bulkUpdate(ctx, q, u)
	c.metrics.RecordBulk(touched, time.Since(start), err)
	c.logger.LogBulk(ctx, "update", touched, err)
	return models, err
}

func (c *Collection[M]) bulkUpdate(ctx context.Context, q Lookup, u Update) ([]M, int, error) {
	ids, _ := c.resolveCandidates(q)

	touched := make(map[record.ID]record.Record)
	var results []matched

	for _, id := range ids {
		release := c.locks.Acquire(id)

		// Mutation always re-evaluates the pattern against the current
		// record; the index-membership shortcut is for read paths only, as
		// the record may have stopped matching since candidate resolution.
		rec, ok, err := c.evalCandidate(ctx, q, id, false)
		if err != nil {
			release()
			c.rollback(touched)
			return nil, 0, err
		}
		if !ok {
			release()
			continue
		}

		next, err := c.applyUpdate(ctx, rec, id, u)
		if err != nil {
			release()
			c.rollback(touched)
			return nil, 0, err
		}

		c.mu.Lock()
		if err := c.checkUniqueLocked(next, id); err != nil {
			c.mu.Unlock()
			release()
			c.rollback(touched)
			return nil, 0, err
		}
		touched[id] = rec
		c.snapshot[id] = next
		c.mu.Unlock()
		results = append(results, matched{id: id, rec: next})
		release()
	}

	if len(results) == 0 {
		return nil, 0, ErrNoMatch
	}

	if err := c.persist(ctx); err != nil {
		c.rollback(touched)
		return nil, 0, err
	}

	models := make([]M, len(results))
	for i, m := range results {
		models[i] = c.factory(m.rec.Clone(), m.id)
	}
	return models, len(results), nil
}

// FindAndDelete removes every record matching the lookup and persists once
// for the whole batch, returning the deleted models. Zero matched
// candidates yields ErrNoMatch; on persist failure every removed record is
// re-inserted.
func (c *Collection[M]) FindAndDelete(ctx context.Context, q Lookup) ([]M, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if err := c.res.AcquireOp(ctx); err != nil {
		return nil, err
	}
	defer c.res.ReleaseOp()

	start := time.Now()
	models, touched, err := c.bulkDelete(ctx, q)
	c.metrics.RecordBulk(touched, time.Since(start), err)
	c.logger.LogBulk(ctx, "delete", touched, err)
	return models, err
}

func (c *Collection[M]) bulkDelete(ctx context.Context, q Lookup) ([]M, int, error) {
	ids, _ := c.resolveCandidates(q)

	touched := make(map[record.ID]record.Record)
	var results []matched

	for _, id := range ids {
		release := c.locks.Acquire(id)

		// Like bulkUpdate, deletion never trusts index membership alone.
		rec, ok, err := c.evalCandidate(ctx, q, id, false)
		if err != nil {
			release()
			c.rollback(touched)
			return nil, 0, err
		}
		if !ok {
			release()
			continue
		}

		c.mu.Lock()
		touched[id] = rec
		delete(c.snapshot, id)
		c.mu.Unlock()
		results = append(results, matched{id: id, rec: rec})
		release()
	}

	if len(results) == 0 {
		return nil, 0, ErrNoMatch
	}

	if err := c.persist(ctx); err != nil {
		c.rollback(touched)
		return nil, 0, err
	}

	models := make([]M, len(results))
	for i, m := range results {
		models[i] = c.factory(m.rec.Clone(), m.id)
	}
	return models, len(results), nil
}
