// Package arrowconv converts between colstream chunks and Apache Arrow
// records so chunks can feed Arrow-native tooling and Arrow data can enter
// a colstream write path.
//
// Dictionary-encoded columns surface as plain Arrow string arrays: the
// encoding is a wire concern, readers on either side see the same values.
// Struct columns map to Arrow structs, timestamps carry microsecond
// precision.
package arrowconv

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/colstreamio/colstream/pkg/columnar"
	"github.com/colstreamio/colstream/pkg/errors"
)

// ToArrowSchema maps a colstream schema to an Arrow schema.
func ToArrowSchema(schema *columnar.Schema) (*arrow.Schema, error) {
	if schema == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "conversion requires a schema")
	}
	fields, err := toArrowFields(schema.Fields)
	if err != nil {
		return nil, err
	}
	return arrow.NewSchema(fields, nil), nil
}

func toArrowFields(fields []columnar.Field) ([]arrow.Field, error) {
	out := make([]arrow.Field, 0, len(fields))
	for _, field := range fields {
		arrowType, err := toArrowType(field)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeValidation, "field %q", field.Name)
		}
		out = append(out, arrow.Field{Name: field.Name, Type: arrowType})
	}
	return out, nil
}

func toArrowType(field columnar.Field) (arrow.DataType, error) {
	switch field.Type {
	case columnar.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case columnar.TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case columnar.TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case columnar.TypeString:
		return arrow.BinaryTypes.String, nil
	case columnar.TypeBytes:
		return arrow.BinaryTypes.Binary, nil
	case columnar.TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case columnar.TypeStruct:
		children, err := toArrowFields(field.Children)
		if err != nil {
			return nil, err
		}
		return arrow.StructOf(children...), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported column type %q", field.Type)
	}
}

// ToArrowRecord materializes a chunk as an Arrow record. The caller owns
// the record and must Release it. A nil allocator uses the Go allocator.
func ToArrowRecord(chunk *columnar.Chunk, mem memory.Allocator) (arrow.Record, error) {
	if chunk == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "conversion requires a chunk")
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	arrowSchema, err := ToArrowSchema(chunk.Schema())
	if err != nil {
		return nil, err
	}

	builder := array.NewRecordBuilder(mem, arrowSchema)
	defer builder.Release()

	for i, col := range chunk.Columns() {
		if err := appendColumn(builder.Field(i), col); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeInternal, "column %q", chunk.Schema().Fields[i].Name)
		}
	}
	return builder.NewRecord(), nil
}

// appendColumn copies one column into its builder. Builder types line up
// with column types because both derive from the same schema field.
func appendColumn(builder array.Builder, col columnar.Column) error {
	switch c := col.(type) {
	case *columnar.Int64Column:
		builder.(*array.Int64Builder).AppendValues(c.Values(), nil)
	case *columnar.Float64Column:
		builder.(*array.Float64Builder).AppendValues(c.Values(), nil)
	case *columnar.BoolColumn:
		b := builder.(*array.BooleanBuilder)
		for i := 0; i < c.Len(); i++ {
			b.Append(c.Get(i).(bool))
		}
	case *columnar.StringColumn:
		builder.(*array.StringBuilder).AppendValues(c.Values(), nil)
	case *columnar.DictionaryColumn:
		b := builder.(*array.StringBuilder)
		values := c.Values()
		for _, code := range c.Codes() {
			b.Append(values[code])
		}
	case *columnar.BytesColumn:
		b := builder.(*array.BinaryBuilder)
		for _, v := range c.Values() {
			b.Append(v)
		}
	case *columnar.TimestampColumn:
		b := builder.(*array.TimestampBuilder)
		for _, v := range c.Values() {
			b.Append(arrow.Timestamp(v))
		}
	case *columnar.StructColumn:
		b := builder.(*array.StructBuilder)
		for i := 0; i < c.Len(); i++ {
			b.Append(true)
		}
		for j, child := range c.Children() {
			if err := appendColumn(b.FieldBuilder(j), child); err != nil {
				return err
			}
		}
	default:
		return errors.Newf(errors.ErrorTypeInternal, "unsupported column type %T", col)
	}
	return nil
}

// FromArrowSchema maps an Arrow schema to a colstream schema. Only types
// with a colstream representation convert; anything else errors.
func FromArrowSchema(arrowSchema *arrow.Schema) (*columnar.Schema, error) {
	if arrowSchema == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "conversion requires a schema")
	}
	fields, err := fromArrowFields(arrowSchema.Fields())
	if err != nil {
		return nil, err
	}
	return columnar.NewSchema(fields)
}

func fromArrowFields(fields []arrow.Field) ([]columnar.Field, error) {
	out := make([]columnar.Field, 0, len(fields))
	for _, field := range fields {
		converted, err := fromArrowField(field)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func fromArrowField(field arrow.Field) (columnar.Field, error) {
	switch field.Type.ID() {
	case arrow.INT64:
		return columnar.Field{Name: field.Name, Type: columnar.TypeInt64}, nil
	case arrow.FLOAT64:
		return columnar.Field{Name: field.Name, Type: columnar.TypeFloat64}, nil
	case arrow.BOOL:
		return columnar.Field{Name: field.Name, Type: columnar.TypeBool}, nil
	case arrow.STRING:
		return columnar.Field{Name: field.Name, Type: columnar.TypeString}, nil
	case arrow.BINARY:
		return columnar.Field{Name: field.Name, Type: columnar.TypeBytes}, nil
	case arrow.TIMESTAMP:
		return columnar.Field{Name: field.Name, Type: columnar.TypeTimestamp}, nil
	case arrow.STRUCT:
		structType := field.Type.(*arrow.StructType)
		children, err := fromArrowFields(structType.Fields())
		if err != nil {
			return columnar.Field{}, err
		}
		return columnar.Field{Name: field.Name, Type: columnar.TypeStruct, Children: children}, nil
	default:
		return columnar.Field{}, errors.Newf(errors.ErrorTypeValidation, "field %q has unsupported Arrow type %s", field.Name, field.Type)
	}
}

// FromArrowRecord converts an Arrow record into a chunk. Null values have
// no colstream representation and error.
func FromArrowRecord(record arrow.Record) (*columnar.Chunk, error) {
	if record == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "conversion requires a record")
	}
	schema, err := FromArrowSchema(record.Schema())
	if err != nil {
		return nil, err
	}

	cols := make([]columnar.Column, len(schema.Fields))
	for i := range schema.Fields {
		col, err := fromArrowColumn(schema.Fields[i], record.Column(i))
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return columnar.NewChunk(schema, cols)
}

func fromArrowColumn(field columnar.Field, col arrow.Array) (columnar.Column, error) {
	if col.NullN() > 0 {
		return nil, errors.Newf(errors.ErrorTypeData, "column %q holds null values", field.Name)
	}

	switch c := col.(type) {
	case *array.Int64:
		out := columnar.NewInt64Column()
		return out, appendAll(out, c.Len(), func(i int) interface{} { return c.Value(i) })
	case *array.Float64:
		out := columnar.NewFloat64Column()
		return out, appendAll(out, c.Len(), func(i int) interface{} { return c.Value(i) })
	case *array.Boolean:
		out := columnar.NewBoolColumn()
		return out, appendAll(out, c.Len(), func(i int) interface{} { return c.Value(i) })
	case *array.String:
		out := columnar.NewStringColumn()
		return out, appendAll(out, c.Len(), func(i int) interface{} { return c.Value(i) })
	case *array.Binary:
		out := columnar.NewBytesColumn()
		return out, appendAll(out, c.Len(), func(i int) interface{} { return c.Value(i) })
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		out := columnar.NewTimestampColumn()
		return out, appendAll(out, c.Len(), func(i int) interface{} { return timestampMicros(c.Value(i), unit) })
	case *array.Struct:
		children := make([]columnar.Column, len(field.Children))
		for j := range field.Children {
			child, err := fromArrowColumn(field.Children[j], c.Field(j))
			if err != nil {
				return nil, err
			}
			children[j] = child
		}
		return columnar.NewStructColumnFromData(field.Children, children)
	default:
		return nil, errors.Newf(errors.ErrorTypeData, "column %q has unsupported Arrow array %T", field.Name, col)
	}
}

func appendAll(col columnar.Column, n int, value func(int) interface{}) error {
	for i := 0; i < n; i++ {
		if err := col.Append(value(i)); err != nil {
			return err
		}
	}
	return nil
}

func timestampMicros(v arrow.Timestamp, unit arrow.TimeUnit) int64 {
	switch unit {
	case arrow.Second:
		return int64(v) * 1_000_000
	case arrow.Millisecond:
		return int64(v) * 1_000
	case arrow.Microsecond:
		return int64(v)
	default:
		return int64(v) / 1_000
	}
}
