package docstore_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hupe1980/docstore"
	"github.com/hupe1980/docstore/record"
)

// Example demonstrates defining a collection and running basic operations.
func Example() {
	root := "./example_data"
	defer os.RemoveAll(root) // Cleanup after example

	db, err := docstore.Open(root)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	schema := record.NewSchema(map[string]record.FieldSpec{
		"email": {Type: record.FieldTypeString, Required: true, Unique: true, Indexed: true},
		"name":  {Type: record.FieldTypeString},
	})

	users, err := docstore.Define(db, "users", schema, docstore.RecordFactory)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	created, err := users.Create(ctx, record.Record{"email": "ann@example.com", "name": "Ann"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("created id:", created.ID)

	// Lookups match strings case-insensitively, via the index when possible.
	found, err := users.FindOne(ctx, docstore.ByPattern(record.Record{"email": "ANN@example.com"}))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("found:", found.Fields["name"])

	// Output:
	// created id: 1
	// found: Ann
}

// Example_updates demonstrates patch and transform updates.
func Example_updates() {
	root := "./example_update_data"
	defer os.RemoveAll(root)

	db, err := docstore.Open(root)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	schema := record.NewSchema(map[string]record.FieldSpec{
		"email":    {Type: record.FieldTypeString, Required: true, Unique: true},
		"attempts": {Type: record.FieldTypeInt},
	})

	users, err := docstore.Define(db, "users", schema, docstore.RecordFactory)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	m, err := users.Create(ctx, record.Record{"email": "ann@example.com", "attempts": 0})
	if err != nil {
		log.Fatal(err)
	}

	// Patch: merge fields onto the existing record.
	m, err = users.FindOneAndUpdate(ctx, m.ID, docstore.Patch(record.Record{"attempts": 1}))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("after patch:", m.Fields["attempts"])

	// Transform: compute the full replacement record.
	m, err = users.FindOneAndUpdate(ctx, m.ID, docstore.Transform(
		func(_ context.Context, rec record.Record, _ record.ID) (record.Record, error) {
			rec["attempts"] = rec["attempts"].(int) + 1
			return rec, nil
		}))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("after transform:", m.Fields["attempts"])

	// Output:
	// after patch: 1
	// after transform: 2
}
