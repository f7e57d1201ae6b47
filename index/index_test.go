package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/docstore/record"
)

func testSnapshot() record.Snapshot {
	return record.Snapshot{
		1: record.Record{"email": "a@x.com", "age": 30},
		2: record.Record{"email": "b@x.com", "age": 30},
		3: record.Record{"email": "C@X.com", "age": 40},
		4: record.Record{"age": 30}, // no email
	}
}

func TestInvertedLookup(t *testing.T) {
	ix := New("email", "age")
	ix.Rebuild(testSnapshot())

	ids, ok := ix.Lookup("email", "a@x.com")
	require.True(t, ok)
	assert.Equal(t, []record.ID{1}, ids)

	ids, ok = ix.Lookup("age", 30)
	require.True(t, ok)
	assert.Equal(t, []record.ID{1, 2, 4}, ids)

	// Missing value resolves to an empty candidate set, not a scan fallback.
	ids, ok = ix.Lookup("email", "zz@x.com")
	require.True(t, ok)
	assert.Empty(t, ids)
}

func TestInvertedLookupCaseFolded(t *testing.T) {
	ix := New("email")
	ix.Rebuild(testSnapshot())

	ids, ok := ix.Lookup("email", "c@x.COM")
	require.True(t, ok)
	assert.Equal(t, []record.ID{3}, ids)
}

func TestInvertedLookupFallback(t *testing.T) {
	ix := New("email")
	ix.Rebuild(testSnapshot())

	// Non-indexed field: caller must full-scan.
	_, ok := ix.Lookup("age", 30)
	assert.False(t, ok)

	// Non-scalar value: caller must full-scan.
	_, ok = ix.Lookup("email", []any{"a@x.com"})
	assert.False(t, ok)
}

func TestInvertedRebuildReplaces(t *testing.T) {
	ix := New("age")
	ix.Rebuild(testSnapshot())

	ix.Rebuild(record.Snapshot{
		9: record.Record{"age": 50},
	})

	ids, ok := ix.Lookup("age", 30)
	require.True(t, ok)
	assert.Empty(t, ids)

	ids, ok = ix.Lookup("age", 50)
	require.True(t, ok)
	assert.Equal(t, []record.ID{9}, ids)
}

func TestInvertedMatchesBruteForce(t *testing.T) {
	snap := testSnapshot()
	ix := New("age")
	ix.Rebuild(snap)

	for _, v := range []int{30, 40, 99} {
		want := []record.ID{}
		for id, rec := range snap {
			key, ok := record.CanonicalKey(rec["age"])
			if !ok {
				continue
			}
			vk, _ := record.CanonicalKey(v)
			if key == vk {
				want = append(want, id)
			}
		}

		got, ok := ix.Lookup("age", v)
		require.True(t, ok)
		assert.ElementsMatch(t, want, got, "value %d", v)
	}
}

func TestInvertedCardinality(t *testing.T) {
	ix := New("age")
	ix.Rebuild(testSnapshot())

	assert.Equal(t, uint64(3), ix.Cardinality("age", 30))
	assert.Equal(t, uint64(0), ix.Cardinality("age", 99))
}
