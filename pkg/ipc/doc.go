// Package ipc implements the write side of the colstream wire protocol:
// a self-describing, length-framed binary stream carrying one schema
// message followed by dictionary and chunk messages, terminated by an
// end-of-stream marker.
//
// # Wire Format
//
// Every message is framed the same way, little-endian throughout:
//
//	+--------------------------+  4 bytes, constant 0xFFFFFFFF
//	| continuation marker      |
//	+--------------------------+  4 bytes
//	| padded header length     |
//	+--------------------------+  header, zero-padded to 8 bytes
//	| header bytes + padding   |
//	+--------------------------+  body, zero-padded to 8 bytes,
//	| body bytes + padding     |  omitted when the body is empty
//	+--------------------------+
//
// The end of the stream is a single 4-byte zero value. There is no
// message count anywhere; the terminal marker is the only way a reader
// learns the stream is complete.
//
// Headers are JSON objects with a "kind" discriminator: "schema" carries
// the field tree and dictionary ID assignments, "dictionary" carries one
// dictionary's values, "chunk" carries one batch of rows. Dictionary and
// chunk headers describe their body as a list of 8-aligned buffer
// descriptors, each optionally compressed.
//
// # Message Ordering
//
// The stream writer enforces the protocol's ordering invariants: the
// schema message is always first, a dictionary message always precedes
// the first chunk referencing it, and an unchanged dictionary is never
// retransmitted. Changed dictionary content is either re-emitted as a
// replacement or, when the stream disallows replacement, rejected before
// anything is written.
//
// # Basic Usage
//
//	w := ipc.NewStreamWriter(sink, nil)
//	if err := w.Start(schema, nil); err != nil {
//		return err
//	}
//	for _, chunk := range chunks {
//		if err := w.Write(chunk); err != nil {
//			return err
//		}
//	}
//	if err := w.Finish(); err != nil {
//		return err
//	}
//
// A writer serves exactly one stream. It owns its sink from creation
// until Finish or Detach and never closes it; callers manage the sink's
// lifecycle. Writers are not safe for concurrent use.
package ipc
