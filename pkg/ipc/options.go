package ipc

import (
	"go.uber.org/zap"

	"github.com/colstreamio/colstream/pkg/compression"
)

// DefaultMinCompressSize is the smallest raw buffer the encoder will try
// to compress.
const DefaultMinCompressSize = 64

// WriteOptions configures how chunks are encoded. The framer and the
// dictionary tracker never look inside; options flow through the writer
// to the chunk encoder unchanged.
type WriteOptions struct {
	// Compression selects the codec applied to body buffers. None (or
	// empty) stores every buffer raw.
	Compression compression.Algorithm

	// CompressionLevel tunes the codec.
	CompressionLevel compression.Level

	// MinCompressSize is the smallest raw buffer worth compressing.
	// Smaller buffers are always stored raw. A compressed buffer that
	// did not shrink is also stored raw.
	MinCompressSize int

	// DisallowReplacement rejects changed dictionary content instead of
	// emitting replacement messages. Set it when readers assume
	// dictionaries never change mid-stream.
	DisallowReplacement bool

	// Encoder overrides the built-in chunk encoder. Nil uses the
	// default.
	Encoder ChunkEncoder

	// Logger receives debug-level write accounting. Nil falls back to
	// the process logger.
	Logger *zap.Logger
}

// DefaultWriteOptions returns options for an uncompressed stream with
// dictionary replacement allowed.
func DefaultWriteOptions() *WriteOptions {
	return &WriteOptions{
		Compression:      compression.None,
		CompressionLevel: compression.Default,
		MinCompressSize:  DefaultMinCompressSize,
	}
}
