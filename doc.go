// Package colstream implements the write side of a columnar data
// interchange protocol: in-memory column batches ("chunks") and their
// schema are serialized into a self-describing, length-framed binary
// stream that an independent reader process can replay without shared
// memory.
//
// # Architecture
//
// The stream encoding engine lives in pkg/ipc and is built from three
// parts:
//
// 1. Message Framer: turns one logical message (header plus optional
// body) into byte-exact wire bytes with the continuation marker, padded
// length prefix and 8-byte alignment, and writes the end-of-stream
// marker.
//
// 2. Dictionary Tracker: remembers which dictionaries are already on the
// stream by content fingerprint, so unchanged dictionaries are never
// retransmitted and changed ones are either replaced or rejected.
//
// 3. Stream Writer: the state machine tying them together. It owns the
// sink, enforces schema-before-data and dictionary-before-first-use
// ordering across an unbounded sequence of writes, and accounts for
// every byte framed.
//
// # Quick Start
//
// Write three rows with a dictionary-encoded column:
//
//	import (
//	    "github.com/colstreamio/colstream/pkg/columnar"
//	    "github.com/colstreamio/colstream/pkg/ipc"
//	)
//
//	schema, _ := columnar.NewSchema([]columnar.Field{
//	    {Name: "id", Type: columnar.TypeInt64},
//	    {Name: "region", Type: columnar.TypeString, Dictionary: true},
//	})
//
//	builder, _ := columnar.NewChunkBuilder(schema)
//	builder.AppendRow(map[string]interface{}{"id": int64(1), "region": "us-east"})
//	builder.AppendRow(map[string]interface{}{"id": int64(2), "region": "eu-west"})
//	builder.AppendRow(map[string]interface{}{"id": int64(3), "region": "us-east"})
//	chunk, _ := builder.Flush()
//
//	w := ipc.NewStreamWriter(sink, nil)
//	if err := w.Start(schema, nil); err != nil {
//	    return err
//	}
//	if err := w.Write(chunk); err != nil {
//	    return err
//	}
//	if err := w.Finish(); err != nil {
//	    return err
//	}
//
// # Key Packages
//
//	pkg/ipc          - Stream writer, message framing, dictionary tracking
//	pkg/columnar     - Schema, typed columns, chunks and the row builder
//	pkg/compression  - Body codecs: none, lz4, zstd
//	pkg/arrowconv    - Chunk/Schema conversion to and from Apache Arrow
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus metrics for write activity
//	internal/ingest  - CSV parsing, schema inference and chunk streaming
//	cmd/colstream    - CLI: convert, infer, bench, version
//
// # CLI
//
// Convert a CSV file, inferring the schema from the data:
//
//	colstream convert --input data.csv --output data.colstream --compression zstd
//
// Or pin the schema explicitly:
//
//	colstream infer --input data.csv --output schema.yaml
//	colstream convert --input data.csv --schema schema.yaml --output data.colstream
//
// # Guarantees
//
// A finished stream always carries exactly one schema message first,
// every dictionary message before the first chunk referencing it, and a
// terminal end-of-stream marker. An unchanged dictionary is never sent
// twice. Writers surface every failure synchronously and never retry: a
// failed write can leave partial bytes on the sink, and the caller owns
// recovery by starting a new stream.
package colstream
