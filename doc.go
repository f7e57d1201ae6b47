// Package docstore is an embedded, file-backed document store for a single
// process.
//
// Each named collection holds schema-validated records addressed by a
// monotonically increasing integer id. Collections support indexed and
// predicate-based queries, atomic full-snapshot persistence, and
// record-level concurrency control. The store targets local tools, scripts,
// and small services that need database-like guarantees without a server
// process.
//
// # Quick start
//
//	db, err := docstore.Open("./mydata")
//	if err != nil { ... }
//	defer db.Close()
//
//	schema := record.NewSchema(map[string]record.FieldSpec{
//	    "email": {Type: record.FieldTypeString, Required: true, Unique: true, Indexed: true},
//	    "name":  {Type: record.FieldTypeString},
//	})
//
//	users, err := docstore.Define(db, "users", schema, docstore.RecordFactory)
//	if err != nil { ... }
//
//	u, err := users.Create(ctx, record.Record{"email": "a@x.com", "name": "Ann"})
//
// # Guarantees
//
// Every mutating operation validates its candidate against the collection
// schema, enforces unique constraints across the whole snapshot, applies the
// mutation in memory, and persists the full snapshot atomically. On persist
// failure the in-memory state is rolled back to its pre-mutation state and
// the on-disk file is unchanged. Mutations on the same id are serialized by
// a per-id lock; the persist step itself is serialized across operations so
// snapshots reach disk in mutation order.
//
// Expected failures (absent record, validation failure, unique conflict,
// zero bulk matches, IO errors) are returned as structured errors, never
// panics.
package docstore
