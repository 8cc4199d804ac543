// Package json provides high-performance JSON serialization built on
// goccy/go-json. Message headers, schema files and CLI output all go
// through this package so the serializer is swapped in one place.
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/colstreamio/colstream/pkg/pool"
)

// Marshal is a high-performance drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a high-performance drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a high-performance replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// MarshalToWriter marshals v directly to a writer
func MarshalToWriter(w io.Writer, v interface{}) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// MarshalToBuffer marshals v to a pooled buffer. The caller returns the
// buffer with pool.PutBuffer when done with its bytes.
func MarshalToBuffer(v interface{}) (*bytes.Buffer, error) {
	buf := pool.GetBuffer()

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		pool.PutBuffer(buf)
		return nil, err
	}

	// Drop the trailing newline Encode appends.
	if buf.Len() > 0 && buf.Bytes()[buf.Len()-1] == '\n' {
		buf.Truncate(buf.Len() - 1)
	}

	return buf, nil
}
