package columnar

import (
	"github.com/colstreamio/colstream/pkg/errors"
)

// Chunk is an immutable batch of rows: one column per top-level schema
// field, all columns the same length. Chunks are what the stream writer
// serializes.
type Chunk struct {
	schema  *Schema
	columns []Column
	rows    int
}

// NewChunk builds a chunk over the given columns and validates them
// against the schema: column count matches field count, every column
// matches its field's type, all columns (including struct children at
// every depth) hold the same number of rows, and dictionary codes stay in
// range. Ragged chunks are rejected.
func NewChunk(schema *Schema, columns []Column) (*Chunk, error) {
	if schema == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "chunk requires a schema")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if len(columns) != len(schema.Fields) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "chunk has %d columns but schema has %d fields", len(columns), len(schema.Fields))
	}

	rows := -1
	for i, col := range columns {
		field := schema.Fields[i]
		if err := validateColumn(field, col); err != nil {
			return nil, err
		}
		if rows == -1 {
			rows = col.Len()
		} else if col.Len() != rows {
			return nil, errors.Newf(errors.ErrorTypeValidation, "column %q has %d rows, want %d", field.Name, col.Len(), rows)
		}
	}
	if rows == -1 {
		rows = 0
	}

	return &Chunk{schema: schema, columns: columns, rows: rows}, nil
}

func validateColumn(field Field, col Column) error {
	if col == nil {
		return errors.Newf(errors.ErrorTypeValidation, "column %q is nil", field.Name)
	}

	if field.Dictionary {
		dc, ok := col.(*DictionaryColumn)
		if !ok {
			return errors.Newf(errors.ErrorTypeValidation, "column %q: field is dictionary-encoded but column is %T", field.Name, col)
		}
		for i, code := range dc.Codes() {
			if int(code) >= len(dc.Values()) {
				return errors.Newf(errors.ErrorTypeValidation, "column %q: dictionary code %d at row %d out of range [0, %d)", field.Name, code, i, len(dc.Values()))
			}
		}
		return nil
	}
	if _, isDict := col.(*DictionaryColumn); isDict {
		return errors.Newf(errors.ErrorTypeValidation, "column %q: dictionary column on a non-dictionary field", field.Name)
	}

	if col.Type() != field.Type {
		return errors.Newf(errors.ErrorTypeValidation, "column %q has type %s, field wants %s", field.Name, col.Type(), field.Type)
	}

	if field.Type == TypeStruct {
		sc, ok := col.(*StructColumn)
		if !ok {
			return errors.Newf(errors.ErrorTypeValidation, "column %q: field is a struct but column is %T", field.Name, col)
		}
		if len(sc.Children()) != len(field.Children) {
			return errors.Newf(errors.ErrorTypeValidation, "column %q has %d children but field has %d", field.Name, len(sc.Children()), len(field.Children))
		}
		for j, child := range sc.Children() {
			if err := validateColumn(field.Children[j], child); err != nil {
				return errors.Wrapf(err, errors.ErrorTypeValidation, "in struct column %q", field.Name)
			}
			if child.Len() != sc.Len() {
				return errors.Newf(errors.ErrorTypeValidation, "column %q: child %q has %d rows, want %d", field.Name, field.Children[j].Name, child.Len(), sc.Len())
			}
		}
	}

	return nil
}

// Schema returns the chunk's schema.
func (c *Chunk) Schema() *Schema { return c.schema }

// Rows returns the number of rows in the chunk.
func (c *Chunk) Rows() int { return c.rows }

// Columns returns the top-level columns in field order. Callers must not
// modify the slice or the columns.
func (c *Chunk) Columns() []Column { return c.columns }

// Column returns the i-th top-level column.
func (c *Chunk) Column(i int) Column { return c.columns[i] }
