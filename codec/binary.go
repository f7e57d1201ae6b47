package codec

import (
	gojson "github.com/goccy/go-json"
	"github.com/klauspost/compress/s2"
)

// Binary is the compact binary codec: go-json encoding wrapped in s2 block
// compression. It trades human readability for smaller files and faster IO
// on large collections.
//
// The decoded value space is identical to the JSON codecs, so a collection
// can be inspected by decompressing the file with any s2 tool.
type Binary struct{}

// Marshal encodes the value and compresses it.
func (Binary) Marshal(v any) ([]byte, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	return s2.Encode(nil, b), nil
}

// Unmarshal decompresses the data and decodes it into v.
func (Binary) Unmarshal(data []byte, v any) error {
	b, err := s2.Decode(nil, data)
	if err != nil {
		return err
	}
	return gojson.Unmarshal(b, v)
}

// Name returns the unique name of the codec ("binary").
func (Binary) Name() string { return "binary" }

// Ext returns the file extension for binary-encoded files.
func (Binary) Ext() string { return ".bin" }
