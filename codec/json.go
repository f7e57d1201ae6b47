package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
// - For record maps, JSON is stable and portable.
// - Integer map keys encode as strings of digits, which keeps snapshot files
//   readable with ordinary JSON tooling.
//
// If you need custom encoding (e.g. protobuf/msgpack), implement Codec and
// pass it to the storage engine.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Ext returns the file extension for JSON-encoded files.
func (JSON) Ext() string { return ".json" }
