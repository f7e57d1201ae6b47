// Package codec centralizes snapshot encoding.
//
// Docstore intentionally treats codec selection as a breaking-change boundary:
// if you change codecs, persisted files created by older codecs may no longer
// decode. The storage engine derives the on-disk file extension from the
// codec, so switching codecs targets a different file.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string

	// Ext returns the file extension (including the leading dot) used for
	// files persisted with this codec.
	Ext() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "binary":
		return Binary{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

// Default is the default codec used by the library.
//
// NOTE: This affects newly-created collections. Existing files are opened with
// whatever codec the collection was defined with; the extension must match.
var Default Codec = GoJSON{}
