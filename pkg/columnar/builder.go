package columnar

import (
	"github.com/colstreamio/colstream/pkg/errors"
)

// ChunkBuilder accumulates rows into typed columns and emits immutable
// chunks. It is the bridge from row-oriented sources (CSV, JSON records)
// to the columnar write path. Not safe for concurrent use.
type ChunkBuilder struct {
	schema  *Schema
	columns []Column
	rows    int
}

// NewChunkBuilder creates a builder for the schema. The schema is
// validated once here; every flushed chunk shares it.
func NewChunkBuilder(schema *Schema) (*ChunkBuilder, error) {
	if schema == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "builder requires a schema")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	b := &ChunkBuilder{schema: schema}
	if err := b.reset(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *ChunkBuilder) reset() error {
	columns := make([]Column, len(b.schema.Fields))
	for i, field := range b.schema.Fields {
		col, err := NewColumn(field)
		if err != nil {
			return err
		}
		columns[i] = col
	}
	b.columns = columns
	b.rows = 0
	return nil
}

// AppendRow appends one row. The map must contain a value for every
// top-level field; values are coerced per column type (strings are parsed
// for numeric, bool and timestamp columns).
func (b *ChunkBuilder) AppendRow(row map[string]interface{}) error {
	for i, field := range b.schema.Fields {
		value, exists := row[field.Name]
		if !exists {
			return errors.Newf(errors.ErrorTypeData, "row missing field %q", field.Name)
		}
		if err := b.columns[i].Append(value); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeData, "appending to column %q", field.Name)
		}
	}
	b.rows++
	return nil
}

// Rows returns the number of rows accumulated since the last flush.
func (b *ChunkBuilder) Rows() int { return b.rows }

// Schema returns the builder's schema.
func (b *ChunkBuilder) Schema() *Schema { return b.schema }

// Flush emits the accumulated rows as a chunk and resets the builder with
// fresh columns. Flushing with zero rows is legal and yields an empty
// chunk.
func (b *ChunkBuilder) Flush() (*Chunk, error) {
	chunk, err := NewChunk(b.schema, b.columns)
	if err != nil {
		return nil, err
	}
	if err := b.reset(); err != nil {
		return nil, err
	}
	return chunk, nil
}
