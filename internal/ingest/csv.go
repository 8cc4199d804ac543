// Package ingest streams row-oriented sources into columnar chunks for
// the stream write path.
package ingest

import (
	"encoding/csv"
	"io"

	"go.uber.org/zap"

	"github.com/colstreamio/colstream/pkg/columnar"
	"github.com/colstreamio/colstream/pkg/errors"
	"github.com/colstreamio/colstream/pkg/logger"
)

// DefaultBatchSize is the number of rows per chunk when none is set.
const DefaultBatchSize = 4096

// Options configures CSV ingestion.
type Options struct {
	// BatchSize is the maximum rows per emitted chunk.
	BatchSize int

	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// Logger receives per-batch debug output. Nil falls back to the
	// process logger.
	Logger *zap.Logger
}

// DefaultOptions returns comma-separated input in batches of
// DefaultBatchSize rows.
func DefaultOptions() *Options {
	return &Options{BatchSize: DefaultBatchSize}
}

// CSVReader parses CSV rows against a schema and emits chunks. The first
// input row must be a header naming every schema field; column order is
// free. Values are coerced per column type, so numeric, bool and
// timestamp fields arrive as their schema types. Not safe for concurrent
// use.
type CSVReader struct {
	schema    *columnar.Schema
	builder   *columnar.ChunkBuilder
	csv       *csv.Reader
	columns   []int // csv position per schema field
	rowBuf    map[string]interface{}
	batchSize int
	log       *zap.Logger
}

// NewCSVReader creates a reader over r. The schema must be flat; struct
// fields have no CSV representation.
func NewCSVReader(r io.Reader, schema *columnar.Schema, opts *Options) (*CSVReader, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if schema == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "csv reader requires a schema")
	}
	for _, field := range schema.Fields {
		if field.Type == columnar.TypeStruct {
			return nil, errors.Newf(errors.ErrorTypeValidation, "field %q: struct fields have no CSV representation", field.Name)
		}
	}

	builder, err := columnar.NewChunkBuilder(schema)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "reading csv header")
	}

	position := make(map[string]int, len(header))
	for i, name := range header {
		position[name] = i
	}
	columns := make([]int, len(schema.Fields))
	for i, field := range schema.Fields {
		pos, ok := position[field.Name]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeData, "csv header is missing field %q", field.Name)
		}
		columns[i] = pos
	}

	log.Debug("csv header mapped",
		zap.Int("columns", len(header)),
		zap.Int("fields", len(schema.Fields)),
	)

	return &CSVReader{
		schema:    schema,
		builder:   builder,
		csv:       cr,
		columns:   columns,
		rowBuf:    make(map[string]interface{}, len(schema.Fields)),
		batchSize: batchSize,
		log:       log,
	}, nil
}

// Next reads up to one batch of rows and returns them as a chunk. It
// returns io.EOF once the input is exhausted.
func (r *CSVReader) Next() (*columnar.Chunk, error) {
	for r.builder.Rows() < r.batchSize {
		record, err := r.csv.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "reading csv row")
		}

		for i, field := range r.schema.Fields {
			r.rowBuf[field.Name] = record[r.columns[i]]
		}
		if err := r.builder.AppendRow(r.rowBuf); err != nil {
			return nil, err
		}
	}

	rows := r.builder.Rows()
	if rows == 0 {
		return nil, io.EOF
	}

	chunk, err := r.builder.Flush()
	if err != nil {
		return nil, err
	}
	r.log.Debug("csv batch parsed", zap.Int("rows", rows))
	return chunk, nil
}
