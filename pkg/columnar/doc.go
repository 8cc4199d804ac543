// Package columnar implements the in-memory column model for colstream:
// typed columns, validated schemas and immutable row batches (chunks).
//
// # Overview
//
// The package provides:
//   - Typed columns for int64, float64, bool (bit-packed), string, bytes,
//     timestamp (epoch microseconds), dictionary-encoded strings and
//     nested structs
//   - Schema definitions loadable from YAML, with shape validation
//   - Chunk construction with full cross-column validation
//   - A row-oriented ChunkBuilder bridging record sources to columns
//
// # Schema
//
// A schema is an ordered list of fields. String fields may opt into
// dictionary encoding; struct fields nest child fields:
//
//	fields:
//	  - name: id
//	    type: int64
//	  - name: region
//	    type: string
//	    dictionary: true
//	  - name: location
//	    type: struct
//	    children:
//	      - name: lat
//	        type: float64
//	      - name: lon
//	        type: float64
//
// # Building Chunks
//
// Row sources append through a builder and flush batches:
//
//	builder, err := columnar.NewChunkBuilder(schema)
//	if err != nil {
//		return err
//	}
//	for _, row := range rows {
//		if err := builder.AppendRow(row); err != nil {
//			return err
//		}
//	}
//	chunk, err := builder.Flush()
//
// Column implementations coerce common input shapes: numeric columns
// parse strings, timestamp columns accept time.Time, RFC 3339 strings or
// raw epoch microseconds. Dictionary columns intern values as they are
// appended, keeping distinct values in first-seen order so equal column
// content always produces identical dictionaries.
package columnar
