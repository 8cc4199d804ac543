package ipc

import (
	"io"

	"go.uber.org/zap"

	"github.com/colstreamio/colstream/pkg/columnar"
	"github.com/colstreamio/colstream/pkg/errors"
	"github.com/colstreamio/colstream/pkg/logger"
	"github.com/colstreamio/colstream/pkg/metrics"
)

// Sentinel errors for stream state violations. They arrive wrapped with
// operation context; match with errors.Is.
var (
	// ErrNotStarted is returned by Write and Finish before Start.
	ErrNotStarted = errors.New(errors.ErrorTypeState, "stream not started")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New(errors.ErrorTypeState, "stream already started")

	// ErrStreamFinished is returned by any operation after Finish. The
	// stream is terminal; recovery means creating a new writer.
	ErrStreamFinished = errors.New(errors.ErrorTypeState, "stream already finished")

	// ErrWriterDetached is returned by any operation after Detach.
	ErrWriterDetached = errors.New(errors.ErrorTypeState, "writer detached from its sink")

	// ErrDictionaryReplaced is returned when dictionary content changes
	// on a stream that disallows replacement. Fatal for the stream.
	ErrDictionaryReplaced = errors.New(errors.ErrorTypeDictionary, "dictionary content changed with replacement disallowed")
)

// streamState tracks the writer lifecycle. Transitions only move
// forward; finished and detached are terminal.
type streamState int

const (
	streamNotStarted streamState = iota
	streamStarted
	streamFinished
	streamDetached
)

func (s streamState) String() string {
	switch s {
	case streamNotStarted:
		return "not-started"
	case streamStarted:
		return "started"
	case streamFinished:
		return "finished"
	case streamDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// StreamWriter writes one colstream onto a sink: a schema message first,
// then per chunk any needed dictionary messages followed by a data
// message, and finally the end-of-stream marker. The writer holds
// exclusive use of the sink from creation until Finish or Detach and
// never closes it.
//
// A writer serves exactly one stream and is not safe for concurrent use;
// callers serialize Start, Write and Finish.
type StreamWriter struct {
	sink    io.Writer
	opts    *WriteOptions
	encoder ChunkEncoder
	tracker *DictionaryTracker
	log     *zap.Logger

	state        streamState
	schema       *columnar.Schema
	fields       []DictField
	bytesWritten int64
	dictionaries int64
}

// NewStreamWriter creates a writer over sink. A nil opts uses
// DefaultWriteOptions.
func NewStreamWriter(sink io.Writer, opts *WriteOptions) *StreamWriter {
	if opts == nil {
		opts = DefaultWriteOptions()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	encoder := opts.Encoder
	if encoder == nil {
		encoder = NewChunkEncoder()
	}

	return &StreamWriter{
		sink:    sink,
		opts:    opts,
		encoder: encoder,
		tracker: NewDictionaryTracker(opts.DisallowReplacement),
		log:     log,
		state:   streamNotStarted,
	}
}

// Start fixes the stream's schema and dictionary mapping and frames the
// schema message. A nil fields derives the default mapping from the
// schema; an explicit mapping is validated against it. Start transitions
// the writer to started; calling it twice is an error.
func (w *StreamWriter) Start(schema *columnar.Schema, fields []DictField) error {
	if err := w.guard("starting stream", streamNotStarted); err != nil {
		return err
	}
	if schema == nil {
		return errors.New(errors.ErrorTypeValidation, "start requires a schema")
	}
	if err := schema.Validate(); err != nil {
		return err
	}
	if fields == nil {
		fields = DictFieldsForSchema(schema)
	} else if err := validateDictFields(schema, fields); err != nil {
		return err
	}

	meta, err := schemaMessageBytes(schema, fields)
	if err != nil {
		return err
	}
	metaLen, bodyLen, err := writeMessage(w.sink, EncodedMessage{Meta: meta})
	if err != nil {
		return err
	}
	w.recordMessage(kindSchema, metaLen, bodyLen)

	w.schema = schema
	w.fields = fields
	w.state = streamStarted
	metrics.ActiveStreams.Inc()

	w.log.Debug("stream started",
		zap.Int("fields", len(schema.Fields)),
		zap.Int64("bytes_written", w.bytesWritten),
	)
	return nil
}

// Write frames one chunk using the mapping fixed at Start: dictionary
// messages first for every dictionary whose content is new or changed,
// then the data message.
func (w *StreamWriter) Write(chunk *columnar.Chunk) error {
	return w.WriteWithFields(chunk, nil)
}

// WriteWithFields is Write with a per-call mapping override. A nil
// fields uses the stream mapping. Messages for one call are framed in
// encoder order, so a dictionary always precedes the first data message
// referencing it. There is no atomicity across those messages: a sink
// failure mid-call leaves the stream corrupt, with the byte count
// covering only fully framed messages.
func (w *StreamWriter) WriteWithFields(chunk *columnar.Chunk, fields []DictField) error {
	if err := w.guard("writing chunk", streamStarted); err != nil {
		return err
	}
	if chunk == nil {
		return errors.New(errors.ErrorTypeValidation, "write requires a chunk")
	}
	if fields == nil {
		fields = w.fields
	} else if err := validateDictFields(w.schema, fields); err != nil {
		return err
	}

	dicts, data, err := w.encoder.EncodeChunk(chunk, fields, w.tracker, w.opts)
	if err != nil {
		return err
	}

	for _, m := range dicts {
		metaLen, bodyLen, err := writeMessage(w.sink, m)
		if err != nil {
			return err
		}
		w.recordMessage(kindDictionary, metaLen, bodyLen)
		w.dictionaries++
	}

	metaLen, bodyLen, err := writeMessage(w.sink, data)
	if err != nil {
		return err
	}
	w.recordMessage(kindChunk, metaLen, bodyLen)
	metrics.ChunkRows.Observe(float64(chunk.Rows()))

	w.log.Debug("chunk written",
		zap.Int("rows", chunk.Rows()),
		zap.Int("dictionary_messages", len(dicts)),
		zap.Int64("bytes_written", w.bytesWritten),
	)
	return nil
}

// Finish frames the end-of-stream marker and makes the stream terminal.
// The sink is neither flushed nor closed; its lifecycle belongs to the
// caller. Finishing twice is an error.
func (w *StreamWriter) Finish() error {
	if err := w.guard("finishing stream", streamStarted); err != nil {
		return err
	}

	n, err := writeEndOfStream(w.sink)
	if err != nil {
		return err
	}
	w.bytesWritten += n
	metrics.BytesWritten.WithLabelValues("metadata").Add(float64(n))

	w.state = streamFinished
	metrics.ActiveStreams.Dec()

	w.log.Debug("stream finished",
		zap.Int64("bytes_written", w.bytesWritten),
		zap.Int64("dictionary_messages", w.dictionaries),
	)
	return nil
}

// BytesWritten returns the bytes framed onto the sink so far: message
// prefixes, padded headers and padded bodies, plus the end-of-stream
// marker once Finish has run.
func (w *StreamWriter) BytesWritten() int64 { return w.bytesWritten }

// DictionariesWritten returns the number of dictionary messages framed
// so far, replacements included.
func (w *StreamWriter) DictionariesWritten() int64 { return w.dictionaries }

// Detach returns the sink and invalidates the writer: ownership moves
// back to the caller and every later operation fails with a state error.
// Detach does not write the end-of-stream marker; call Finish first for
// a well-terminated stream.
func (w *StreamWriter) Detach() (io.Writer, error) {
	if w.state == streamDetached {
		return nil, errors.Wrap(ErrWriterDetached, errors.ErrorTypeState, "detaching writer")
	}
	if w.state == streamStarted {
		metrics.ActiveStreams.Dec()
	}

	sink := w.sink
	w.sink = nil
	w.state = streamDetached

	w.log.Debug("writer detached", zap.Int64("bytes_written", w.bytesWritten))
	return sink, nil
}

// guard fails unless the writer is in want, naming the violated state.
func (w *StreamWriter) guard(op string, want streamState) error {
	if w.state == want {
		return nil
	}
	switch w.state {
	case streamNotStarted:
		return errors.Wrap(ErrNotStarted, errors.ErrorTypeState, op)
	case streamStarted:
		return errors.Wrap(ErrAlreadyStarted, errors.ErrorTypeState, op)
	case streamFinished:
		return errors.Wrap(ErrStreamFinished, errors.ErrorTypeState, op)
	default:
		return errors.Wrap(ErrWriterDetached, errors.ErrorTypeState, op)
	}
}

func (w *StreamWriter) recordMessage(kind string, metaLen, bodyLen int64) {
	w.bytesWritten += metaLen + bodyLen
	metrics.MessagesWritten.WithLabelValues(kind).Inc()
	metrics.BytesWritten.WithLabelValues("metadata").Add(float64(metaLen))
	if bodyLen > 0 {
		metrics.BytesWritten.WithLabelValues("body").Add(float64(bodyLen))
	}
}
