package ipc

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/colstreamio/colstream/pkg/columnar"
	"github.com/colstreamio/colstream/pkg/compression"
	"github.com/colstreamio/colstream/pkg/errors"
	"github.com/colstreamio/colstream/pkg/json"
	"github.com/colstreamio/colstream/pkg/metrics"
)

// ChunkEncoder converts one chunk into zero or more dictionary messages
// plus exactly one data message. Implementations consult the tracker per
// dictionary column and must return an error, without emitting anything,
// when the tracker rejects a replacement. All returned messages are fully
// materialized; the writer frames them afterwards.
type ChunkEncoder interface {
	EncodeChunk(chunk *columnar.Chunk, fields []DictField, tracker *DictionaryTracker, opts *WriteOptions) (dictionaries []EncodedMessage, data EncodedMessage, err error)
}

// NewChunkEncoder returns the built-in chunk encoder. Like the writer
// that owns it, an encoder serves one stream at a time and is not safe
// for concurrent use.
func NewChunkEncoder() ChunkEncoder {
	return &bodyEncoder{}
}

// bodyEncoder is the reference ChunkEncoder. It lays buffers out
// 8-aligned in depth-first schema order and compresses them per the
// write options. The codec is cached across calls.
type bodyEncoder struct {
	codec      compression.Codec
	codecAlg   compression.Algorithm
	codecLevel compression.Level
}

func (e *bodyEncoder) EncodeChunk(chunk *columnar.Chunk, fields []DictField, tracker *DictionaryTracker, opts *WriteOptions) ([]EncodedMessage, EncodedMessage, error) {
	if chunk == nil {
		return nil, EncodedMessage{}, errors.New(errors.ErrorTypeValidation, "encode requires a chunk")
	}
	if tracker == nil {
		return nil, EncodedMessage{}, errors.New(errors.ErrorTypeValidation, "encode requires a dictionary tracker")
	}
	if opts == nil {
		opts = DefaultWriteOptions()
	}
	cols := chunk.Columns()
	if len(fields) != len(cols) {
		return nil, EncodedMessage{}, errors.Newf(errors.ErrorTypeValidation, "dictionary mapping has %d entries for %d columns", len(fields), len(cols))
	}

	codec, err := e.codecFor(opts)
	if err != nil {
		return nil, EncodedMessage{}, err
	}

	var dicts []EncodedMessage
	err = walkDictionaries(cols, fields, func(id int64, col *columnar.DictionaryColumn) error {
		fp := DictionaryFingerprint(col.Values())
		decision := tracker.ShouldEmit(id, fp)
		metrics.DictionaryDecisions.WithLabelValues(decision.String()).Inc()

		switch decision {
		case DecisionSkip:
			return nil
		case DecisionReject:
			return errors.Wrapf(ErrDictionaryReplaced, errors.ErrorTypeDictionary, "dictionary %d", id)
		}

		msg, err := dictionaryMessage(id, decision == DecisionReplace, col.Values(), codec, opts)
		if err != nil {
			return err
		}
		dicts = append(dicts, msg)
		return nil
	})
	if err != nil {
		return nil, EncodedMessage{}, err
	}

	body := newBodyBuilder(codec, opts.MinCompressSize)
	for _, col := range cols {
		if err := appendColumnBuffers(body, col); err != nil {
			return nil, EncodedMessage{}, err
		}
	}

	env := chunkEnvelope{
		Kind:       kindChunk,
		Rows:       int64(chunk.Rows()),
		Codec:      codecLabel(opts.Compression),
		Buffers:    body.refs,
		BodyLength: int64(body.len()),
	}
	meta, err := json.Marshal(env)
	if err != nil {
		return nil, EncodedMessage{}, errors.Wrap(err, errors.ErrorTypeInternal, "encoding chunk header")
	}

	return dicts, EncodedMessage{Meta: meta, Body: body.bytes()}, nil
}

// codecFor returns the codec for the options, reusing the previous one
// when algorithm and level are unchanged.
func (e *bodyEncoder) codecFor(opts *WriteOptions) (compression.Codec, error) {
	alg := opts.Compression
	if alg == "" || alg == compression.None {
		return nil, nil
	}
	if e.codec != nil && e.codecAlg == alg && e.codecLevel == opts.CompressionLevel {
		return e.codec, nil
	}

	codec, err := compression.NewCodec(&compression.Config{Algorithm: alg, Level: opts.CompressionLevel})
	if err != nil {
		return nil, err
	}
	e.codec = codec
	e.codecAlg = alg
	e.codecLevel = opts.CompressionLevel
	return codec, nil
}

// walkDictionaries visits every dictionary column in depth-first schema
// order alongside its DictField node.
func walkDictionaries(cols []columnar.Column, fields []DictField, visit func(id int64, col *columnar.DictionaryColumn) error) error {
	for i, col := range cols {
		switch c := col.(type) {
		case *columnar.DictionaryColumn:
			if fields[i].ID < 0 {
				return errors.Newf(errors.ErrorTypeValidation, "dictionary column at position %d has no dictionary ID in the mapping", i)
			}
			if err := visit(fields[i].ID, c); err != nil {
				return err
			}
		case *columnar.StructColumn:
			if len(fields[i].Children) != len(c.Children()) {
				return errors.Newf(errors.ErrorTypeValidation, "dictionary mapping has %d children for struct column with %d", len(fields[i].Children), len(c.Children()))
			}
			if err := walkDictionaries(c.Children(), fields[i].Children, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// dictionaryMessage encodes one dictionary's values as a message: the
// values travel in string column layout (offsets buffer plus data
// buffer).
func dictionaryMessage(id int64, replacement bool, values []string, codec compression.Codec, opts *WriteOptions) (EncodedMessage, error) {
	body := newBodyBuilder(codec, opts.MinCompressSize)
	offsets, data := stringBuffers(values)
	if err := body.add(offsets); err != nil {
		return EncodedMessage{}, err
	}
	if err := body.add(data); err != nil {
		return EncodedMessage{}, err
	}

	env := dictionaryEnvelope{
		Kind:        kindDictionary,
		ID:          id,
		Replacement: replacement,
		Rows:        int64(len(values)),
		Codec:       codecLabel(opts.Compression),
		Buffers:     body.refs,
		BodyLength:  int64(body.len()),
	}
	meta, err := json.Marshal(env)
	if err != nil {
		return EncodedMessage{}, errors.Wrap(err, errors.ErrorTypeInternal, "encoding dictionary header")
	}
	return EncodedMessage{Meta: meta, Body: body.bytes()}, nil
}

// appendColumnBuffers adds one column's wire buffers to the body in
// layout order. Struct columns contribute their children's buffers only.
func appendColumnBuffers(body *bodyBuilder, col columnar.Column) error {
	switch c := col.(type) {
	case *columnar.Int64Column:
		return body.add(int64Buffer(c.Values()))
	case *columnar.TimestampColumn:
		return body.add(int64Buffer(c.Values()))
	case *columnar.Float64Column:
		return body.add(float64Buffer(c.Values()))
	case *columnar.BoolColumn:
		return body.add(c.Bitmap())
	case *columnar.StringColumn:
		offsets, data := stringBuffers(c.Values())
		if err := body.add(offsets); err != nil {
			return err
		}
		return body.add(data)
	case *columnar.BytesColumn:
		offsets, data := bytesBuffers(c.Values())
		if err := body.add(offsets); err != nil {
			return err
		}
		return body.add(data)
	case *columnar.DictionaryColumn:
		return body.add(uint32Buffer(c.Codes()))
	case *columnar.StructColumn:
		for _, child := range c.Children() {
			if err := appendColumnBuffers(body, child); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Newf(errors.ErrorTypeInternal, "unsupported column type %T", col)
	}
}

// bodyBuilder accumulates 8-aligned, optionally compressed buffers into
// a message body and records their descriptors.
type bodyBuilder struct {
	codec   compression.Codec
	minSize int
	buf     bytes.Buffer
	refs    []bufferRef
}

func newBodyBuilder(codec compression.Codec, minSize int) *bodyBuilder {
	return &bodyBuilder{
		codec:   codec,
		minSize: minSize,
		refs:    make([]bufferRef, 0, 4),
	}
}

// add appends one buffer. The buffer is compressed when a codec is set,
// the raw bytes reach minSize and compression actually shrinks them;
// otherwise the raw bytes are stored and the descriptor says so.
func (b *bodyBuilder) add(raw []byte) error {
	stored := raw
	compressed := false
	if b.codec != nil && len(raw) >= b.minSize {
		enc, err := b.codec.Compress(raw)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "compressing buffer")
		}
		if len(enc) < len(raw) {
			stored = enc
			compressed = true
		}
	}

	b.refs = append(b.refs, bufferRef{
		Offset:             int64(b.buf.Len()),
		Length:             int64(len(stored)),
		UncompressedLength: int64(len(raw)),
		Compressed:         compressed,
	})
	b.buf.Write(stored)
	if rem := b.buf.Len() % alignment; rem != 0 {
		b.buf.Write(zeroPadding[:alignment-rem])
	}
	return nil
}

func (b *bodyBuilder) len() int { return b.buf.Len() }

func (b *bodyBuilder) bytes() []byte { return b.buf.Bytes() }

// Buffer layout helpers, all little-endian.

func int64Buffer(values []int64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
	}
	return out
}

func float64Buffer(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func uint32Buffer(values []uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// stringBuffers lays out string values as rows+1 uint32 offsets plus
// concatenated data bytes.
func stringBuffers(values []string) (offsets, data []byte) {
	total := 0
	for _, v := range values {
		total += len(v)
	}

	offs := make([]uint32, len(values)+1)
	data = make([]byte, 0, total)
	for i, v := range values {
		data = append(data, v...)
		offs[i+1] = uint32(len(data))
	}
	return uint32Buffer(offs), data
}

// bytesBuffers is stringBuffers for raw byte values.
func bytesBuffers(values [][]byte) (offsets, data []byte) {
	total := 0
	for _, v := range values {
		total += len(v)
	}

	offs := make([]uint32, len(values)+1)
	data = make([]byte, 0, total)
	for i, v := range values {
		data = append(data, v...)
		offs[i+1] = uint32(len(data))
	}
	return uint32Buffer(offs), data
}

func codecLabel(alg compression.Algorithm) string {
	if alg == "" {
		return string(compression.None)
	}
	return string(alg)
}
