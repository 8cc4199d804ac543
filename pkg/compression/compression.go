// Package compression provides the body codecs for the colstream wire
// format. The format names exactly three codecs (none, lz4, zstd), so
// this package deliberately exposes only those. Buffers are compressed
// independently and in memory; streaming compression is not part of the
// wire contract.
//
// # Algorithm Selection
//
//   - LZ4: extremely fast, decent compression; the right default for
//     network-bound streams.
//   - Zstd: best compression ratio at good speed; the right choice when the
//     stream is archived.
//
// # Basic Usage
//
//	codec, err := compression.NewCodec(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	compressed, err := codec.Compress(data)
//	original, err := codec.Decompress(compressed)
package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/colstreamio/colstream/pkg/errors"
	"github.com/colstreamio/colstream/pkg/pool"
)

// Algorithm represents a compression algorithm. The string values are the
// codec names carried in message headers.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
)

// ParseAlgorithm maps a codec name to an Algorithm. The empty string maps
// to None so absent header fields decode cleanly.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", None:
		return None, nil
	case LZ4:
		return LZ4, nil
	case Zstd:
		return Zstd, nil
	default:
		return None, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", name)
	}
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Best maximizes compression ratio.
	Best Level = 9
)

// Codec provides compression and decompression for message body buffers.
// All implementations are safe for concurrent use.
type Codec interface {
	// Compress compresses data and returns the compressed bytes.
	// The input data is not modified.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns the original bytes.
	// The input data is not modified.
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm
}

// Config represents codec configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// DefaultConfig returns the default codec configuration: lz4 at the
// balanced level.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: LZ4,
		Level:     Default,
	}
}

// NewCodec creates a new codec based on the provided configuration.
// If config is nil, the default configuration is used.
func NewCodec(config *Config) (Codec, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Algorithm {
	case None:
		return &noneCodec{}, nil
	case LZ4:
		return newLZ4Codec(config), nil
	case Zstd:
		return newZstdCodec(config), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", config.Algorithm)
	}
}

// None codec (no compression)
type noneCodec struct{}

func (nc *noneCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (nc *noneCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
func (nc *noneCodec) Algorithm() Algorithm                   { return None }

// LZ4 codec
type lz4Codec struct {
	compressionLevel lz4.CompressionLevel
}

func newLZ4Codec(config *Config) *lz4Codec {
	return &lz4Codec{compressionLevel: mapLZ4Level(config.Level)}
}

func (lc *lz4Codec) Compress(data []byte) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	w := lz4.NewWriter(buf)
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "configuring lz4 writer")
	}

	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "lz4 compression failed")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "lz4 compression failed")
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func (lc *lz4Codec) Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if _, err := io.Copy(buf, r); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "lz4 decompression failed")
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func (lc *lz4Codec) Algorithm() Algorithm { return LZ4 }

// Zstd codec
type zstdCodec struct {
	encoderPool *pool.Pool[*zstd.Encoder]
	decoderPool *pool.Pool[*zstd.Decoder]
}

func newZstdCodec(config *Config) *zstdCodec {
	level := mapZstdLevel(config.Level)

	return &zstdCodec{
		encoderPool: pool.New(
			func() *zstd.Encoder {
				enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
				return enc
			},
			nil,
		),
		decoderPool: pool.New(
			func() *zstd.Decoder {
				dec, _ := zstd.NewReader(nil)
				return dec
			},
			nil,
		),
	}
}

func (zc *zstdCodec) Compress(data []byte) ([]byte, error) {
	enc := zc.encoderPool.Get()
	defer zc.encoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

func (zc *zstdCodec) Decompress(data []byte) ([]byte, error) {
	dec := zc.decoderPool.Get()
	defer zc.decoderPool.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "zstd decompression failed")
	}
	return out, nil
}

func (zc *zstdCodec) Algorithm() Algorithm { return Zstd }

// Helper functions to map compression levels

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
