package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return NewSchema(map[string]FieldSpec{
		"email":    {Type: FieldTypeString, Required: true, Unique: true, Indexed: true},
		"name":     {Type: FieldTypeString},
		"age":      {Type: FieldTypeInt},
		"score":    {Type: FieldTypeFloat},
		"active":   {Type: FieldTypeBool},
		"tags":     {Type: FieldTypeArray},
		"profile":  {Type: FieldTypeObject},
		"joinedAt": {Type: FieldTypeTime},
	})
}

func TestSchemaValidate(t *testing.T) {
	s := testSchema()

	validated, ferrs := s.Validate(Record{
		"email":    "a@x.com",
		"age":      float64(30), // JSON numbers arrive as float64
		"tags":     []any{"a", "b"},
		"profile":  map[string]any{"city": "Berlin"},
		"joinedAt": time.Now(),
	})
	require.Nil(t, ferrs)
	assert.Equal(t, "a@x.com", validated["email"])

	// Validated record is a copy.
	validated["email"] = "mutated"
	rec := Record{"email": "b@x.com"}
	v2, ferrs := s.Validate(rec)
	require.Nil(t, ferrs)
	v2["email"] = "changed"
	assert.Equal(t, "b@x.com", rec["email"])
}

func TestSchemaValidateMissingRequired(t *testing.T) {
	s := testSchema()

	_, ferrs := s.Validate(Record{"name": "Ann"})
	require.Len(t, ferrs, 1)
	assert.Equal(t, "email", ferrs[0].Field)
}

func TestSchemaValidateUnknownField(t *testing.T) {
	s := testSchema()

	_, ferrs := s.Validate(Record{"email": "a@x.com", "nope": 1})
	require.Len(t, ferrs, 1)
	assert.Equal(t, "nope", ferrs[0].Field)
}

func TestSchemaValidateTypeMismatch(t *testing.T) {
	s := testSchema()

	_, ferrs := s.Validate(Record{
		"email":  123,
		"age":    "old",
		"active": "yes",
	})
	require.Len(t, ferrs, 3)
	// Errors are sorted by field.
	assert.Equal(t, "active", ferrs[0].Field)
	assert.Equal(t, "age", ferrs[1].Field)
	assert.Equal(t, "email", ferrs[2].Field)
}

func TestSchemaValidateNonIntegralFloatAsInt(t *testing.T) {
	s := testSchema()

	_, ferrs := s.Validate(Record{"email": "a@x.com", "age": 30.5})
	require.Len(t, ferrs, 1)
	assert.Equal(t, "age", ferrs[0].Field)
}

func TestSchemaValidateTimeString(t *testing.T) {
	s := testSchema()

	_, ferrs := s.Validate(Record{"email": "a@x.com", "joinedAt": "2024-05-01T10:00:00Z"})
	assert.Nil(t, ferrs)

	_, ferrs = s.Validate(Record{"email": "a@x.com", "joinedAt": "yesterday"})
	require.Len(t, ferrs, 1)
	assert.Equal(t, "joinedAt", ferrs[0].Field)
}

func TestSchemaValidatePartial(t *testing.T) {
	s := testSchema()

	// Required is not applied to partials.
	validated, ferrs := s.ValidatePartial(Record{"name": "Ann"})
	require.Nil(t, ferrs)
	assert.Equal(t, "Ann", validated["name"])

	_, ferrs = s.ValidatePartial(Record{"age": "old"})
	require.Len(t, ferrs, 1)

	_, ferrs = s.ValidatePartial(Record{"nope": 1})
	require.Len(t, ferrs, 1)
}

func TestSchemaFieldSets(t *testing.T) {
	s := testSchema()
	assert.Equal(t, []string{"email"}, s.UniqueFields())
	assert.Equal(t, []string{"email"}, s.IndexedFields())
	assert.True(t, s.Has("name"))
	assert.False(t, s.Has("nope"))
}

func TestCanonicalKey(t *testing.T) {
	// Strings are case-folded.
	a, ok := CanonicalKey("A@X.com")
	require.True(t, ok)
	b, ok := CanonicalKey("a@x.COM")
	require.True(t, ok)
	assert.Equal(t, a, b)

	// Integers and integral floats collapse.
	ik, ok := CanonicalKey(5)
	require.True(t, ok)
	fk, ok := CanonicalKey(float64(5))
	require.True(t, ok)
	assert.Equal(t, ik, fk)

	nk, ok := CanonicalKey(5.5)
	require.True(t, ok)
	assert.NotEqual(t, ik, nk)

	// Times compare by instant.
	now := time.Now()
	t1, ok := CanonicalKey(now)
	require.True(t, ok)
	t2, ok := CanonicalKey(now.UTC())
	require.True(t, ok)
	assert.Equal(t, t1, t2)

	// Non-scalars are not indexable.
	_, ok = CanonicalKey([]any{"a"})
	assert.False(t, ok)
	_, ok = CanonicalKey(map[string]any{"a": 1})
	assert.False(t, ok)
}

func TestSnapshotMaxID(t *testing.T) {
	assert.Equal(t, ID(0), Snapshot{}.MaxID())

	s := Snapshot{
		1: Record{"a": 1},
		7: Record{"a": 2},
		3: Record{"a": 3},
	}
	assert.Equal(t, ID(7), s.MaxID())
}
