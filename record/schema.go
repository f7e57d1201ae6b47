package record

import (
	"fmt"
	"slices"
	"time"
)

// FieldType defines the data type of a record field.
type FieldType uint8

const (
	FieldTypeAny FieldType = iota
	FieldTypeInt
	FieldTypeFloat
	FieldTypeString
	FieldTypeBool
	FieldTypeTime
	FieldTypeArray
	FieldTypeObject
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	switch t {
	case FieldTypeAny:
		return "Any"
	case FieldTypeInt:
		return "Int"
	case FieldTypeFloat:
		return "Float"
	case FieldTypeString:
		return "String"
	case FieldTypeBool:
		return "Bool"
	case FieldTypeTime:
		return "Time"
	case FieldTypeArray:
		return "Array"
	case FieldTypeObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// FieldSpec declares type and constraints for a single schema field.
type FieldSpec struct {
	Type     FieldType
	Required bool
	Unique   bool
	Indexed  bool
}

// FieldError describes a single failed field validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

// Schema defines the expected structure of records in a collection.
type Schema struct {
	Fields map[string]FieldSpec
}

// NewSchema creates a schema from field specs.
func NewSchema(fields map[string]FieldSpec) *Schema {
	return &Schema{Fields: fields}
}

// Has reports whether the field is declared in the schema.
func (s *Schema) Has(field string) bool {
	_, ok := s.Fields[field]
	return ok
}

// UniqueFields returns the declared unique fields in deterministic order.
func (s *Schema) UniqueFields() []string {
	var out []string
	for k, spec := range s.Fields {
		if spec.Unique {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// IndexedFields returns the declared indexed fields in deterministic order.
func (s *Schema) IndexedFields() []string {
	var out []string
	for k, spec := range s.Fields {
		if spec.Indexed {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// Validate checks a whole candidate record against the schema. It returns
// the validated record or the list of per-field failures. Unknown fields are
// rejected; required fields must be present and non-nil.
func (s *Schema) Validate(candidate Record) (Record, []FieldError) {
	var errs []FieldError

	for k := range candidate {
		if !s.Has(k) {
			errs = append(errs, FieldError{Field: k, Message: "field is not defined in the schema"})
		}
	}

	for k, spec := range s.Fields {
		v, ok := candidate[k]
		if !ok || v == nil {
			if spec.Required {
				errs = append(errs, FieldError{Field: k, Message: "required field is missing"})
			}
			continue
		}
		if !checkType(v, spec.Type) {
			errs = append(errs, FieldError{
				Field:   k,
				Message: fmt.Sprintf("invalid type %T, expected %s", v, spec.Type),
			})
		}
	}

	if len(errs) > 0 {
		slices.SortFunc(errs, func(a, b FieldError) int {
			if a.Field < b.Field {
				return -1
			}
			if a.Field > b.Field {
				return 1
			}
			return 0
		})
		return nil, errs
	}
	return candidate.Clone(), nil
}

// ValidatePartial checks a patch-style candidate: only the fields present are
// validated, and Required constraints are not applied.
func (s *Schema) ValidatePartial(candidate Record) (Record, []FieldError) {
	var errs []FieldError

	for k, v := range candidate {
		spec, ok := s.Fields[k]
		if !ok {
			errs = append(errs, FieldError{Field: k, Message: "field is not defined in the schema"})
			continue
		}
		if v == nil {
			continue
		}
		if !checkType(v, spec.Type) {
			errs = append(errs, FieldError{
				Field:   k,
				Message: fmt.Sprintf("invalid type %T, expected %s", v, spec.Type),
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return candidate.Clone(), nil
}

func checkType(v any, expected FieldType) bool {
	switch expected {
	case FieldTypeAny:
		return true
	case FieldTypeInt:
		switch val := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			// JSON unmarshals numbers as float64. Check if it's an integer.
			return val == float64(int64(val))
		}
	case FieldTypeFloat:
		switch v.(type) {
		case float32, float64:
			return true
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true // Allow ints as floats
		}
	case FieldTypeString:
		_, ok := v.(string)
		return ok
	case FieldTypeBool:
		_, ok := v.(bool)
		return ok
	case FieldTypeTime:
		switch val := v.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339Nano, val)
			if err != nil {
				_, err = time.Parse(time.RFC3339, val)
			}
			return err == nil
		}
	case FieldTypeArray:
		switch v.(type) {
		case []any, []string, []int, []float64, []bool:
			return true
		}
	case FieldTypeObject:
		_, ok := v.(map[string]any)
		if !ok {
			_, ok = v.(Record)
		}
		return ok
	}
	return false
}
