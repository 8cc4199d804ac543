// Package columnar provides the in-memory column model the stream writer
// serializes: typed columns, schemas and row batches (chunks).
package columnar

import (
	"strconv"
	"time"

	"github.com/colstreamio/colstream/pkg/errors"
)

// Type represents the data type of a column. The string values are the
// type names carried in schema files and message headers.
type Type string

const (
	TypeInt64     Type = "int64"
	TypeFloat64   Type = "float64"
	TypeBool      Type = "bool"
	TypeString    Type = "string"
	TypeBytes     Type = "bytes"
	TypeTimestamp Type = "timestamp"
	TypeStruct    Type = "struct"
)

func (t Type) valid() bool {
	switch t {
	case TypeInt64, TypeFloat64, TypeBool, TypeString, TypeBytes, TypeTimestamp, TypeStruct:
		return true
	}
	return false
}

// Column is the base interface for all column types
type Column interface {
	Type() Type
	Len() int
	Get(i int) interface{}
	Append(value interface{}) error
	Clear()
}

// NewColumn creates an empty column matching the field definition.
// Dictionary-flagged string fields get a DictionaryColumn; struct fields
// get a StructColumn with one child per child field.
func NewColumn(field Field) (Column, error) {
	if field.Dictionary {
		if field.Type != TypeString {
			return nil, errors.Newf(errors.ErrorTypeValidation, "field %q: dictionary encoding requires type string, got %s", field.Name, field.Type)
		}
		return NewDictionaryColumn(), nil
	}

	switch field.Type {
	case TypeInt64:
		return NewInt64Column(), nil
	case TypeFloat64:
		return NewFloat64Column(), nil
	case TypeBool:
		return NewBoolColumn(), nil
	case TypeString:
		return NewStringColumn(), nil
	case TypeBytes:
		return NewBytesColumn(), nil
	case TypeTimestamp:
		return NewTimestampColumn(), nil
	case TypeStruct:
		return NewStructColumn(field.Children)
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "field %q: unknown type %q", field.Name, string(field.Type))
	}
}

// Int64Column stores 64-bit signed integers
type Int64Column struct {
	values []int64
}

// NewInt64Column creates a new int64 column
func NewInt64Column() *Int64Column {
	return &Int64Column{values: make([]int64, 0, 1024)}
}

func (c *Int64Column) Type() Type { return TypeInt64 }
func (c *Int64Column) Len() int   { return len(c.values) }

func (c *Int64Column) Get(i int) interface{} { return c.values[i] }

func (c *Int64Column) Append(value interface{}) error {
	var intVal int64
	switch v := value.(type) {
	case int:
		intVal = int64(v)
	case int32:
		intVal = int64(v)
	case int64:
		intVal = v
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, errors.ErrorTypeData, "cannot parse %q as int64", v)
		}
		intVal = parsed
	default:
		return errors.Newf(errors.ErrorTypeData, "expected int64, got %T", value)
	}

	c.values = append(c.values, intVal)
	return nil
}

func (c *Int64Column) Clear() { c.values = c.values[:0] }

// Values returns the backing slice. Callers must not modify it.
func (c *Int64Column) Values() []int64 { return c.values }

// Float64Column stores 64-bit floating point values
type Float64Column struct {
	values []float64
}

// NewFloat64Column creates a new float64 column
func NewFloat64Column() *Float64Column {
	return &Float64Column{values: make([]float64, 0, 1024)}
}

func (c *Float64Column) Type() Type { return TypeFloat64 }
func (c *Float64Column) Len() int   { return len(c.values) }

func (c *Float64Column) Get(i int) interface{} { return c.values[i] }

func (c *Float64Column) Append(value interface{}) error {
	var floatVal float64
	switch v := value.(type) {
	case float64:
		floatVal = v
	case float32:
		floatVal = float64(v)
	case int:
		floatVal = float64(v)
	case int64:
		floatVal = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, errors.ErrorTypeData, "cannot parse %q as float64", v)
		}
		floatVal = parsed
	default:
		return errors.Newf(errors.ErrorTypeData, "expected float64, got %T", value)
	}

	c.values = append(c.values, floatVal)
	return nil
}

func (c *Float64Column) Clear() { c.values = c.values[:0] }

// Values returns the backing slice. Callers must not modify it.
func (c *Float64Column) Values() []float64 { return c.values }

// BoolColumn stores boolean values bit-packed, 64 per word
type BoolColumn struct {
	words []uint64
	count int
}

// NewBoolColumn creates a new boolean column
func NewBoolColumn() *BoolColumn {
	return &BoolColumn{words: make([]uint64, 0, 16)}
}

func (c *BoolColumn) Type() Type { return TypeBool }
func (c *BoolColumn) Len() int   { return c.count }

func (c *BoolColumn) Get(i int) interface{} {
	return (c.words[i/64] & (1 << uint(i%64))) != 0
}

func (c *BoolColumn) Append(value interface{}) error {
	var boolVal bool
	switch v := value.(type) {
	case bool:
		boolVal = v
	case string:
		boolVal = v == "true" || v == "1" || v == "yes"
	default:
		return errors.Newf(errors.ErrorTypeData, "expected bool, got %T", value)
	}

	wordIndex := c.count / 64
	if wordIndex >= len(c.words) {
		c.words = append(c.words, 0)
	}
	if boolVal {
		c.words[wordIndex] |= 1 << uint(c.count%64)
	}

	c.count++
	return nil
}

func (c *BoolColumn) Clear() {
	c.words = c.words[:0]
	c.count = 0
}

// Bitmap returns the values as LSB-first packed bytes, ceil(n/8) long.
// Bits past the last value are zero.
func (c *BoolColumn) Bitmap() []byte {
	out := make([]byte, (c.count+7)/8)
	for i := range out {
		out[i] = byte(c.words[i/8] >> uint((i%8)*8))
	}
	return out
}

// StringColumn stores string values
type StringColumn struct {
	values []string
}

// NewStringColumn creates a new string column
func NewStringColumn() *StringColumn {
	return &StringColumn{values: make([]string, 0, 1024)}
}

func (c *StringColumn) Type() Type { return TypeString }
func (c *StringColumn) Len() int   { return len(c.values) }

func (c *StringColumn) Get(i int) interface{} { return c.values[i] }

func (c *StringColumn) Append(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return errors.Newf(errors.ErrorTypeData, "expected string, got %T", value)
	}
	c.values = append(c.values, str)
	return nil
}

func (c *StringColumn) Clear() { c.values = c.values[:0] }

// Values returns the backing slice. Callers must not modify it.
func (c *StringColumn) Values() []string { return c.values }

// BytesColumn stores variable-length byte values
type BytesColumn struct {
	values [][]byte
}

// NewBytesColumn creates a new bytes column
func NewBytesColumn() *BytesColumn {
	return &BytesColumn{values: make([][]byte, 0, 1024)}
}

func (c *BytesColumn) Type() Type { return TypeBytes }
func (c *BytesColumn) Len() int   { return len(c.values) }

func (c *BytesColumn) Get(i int) interface{} { return c.values[i] }

func (c *BytesColumn) Append(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		c.values = append(c.values, v)
	case string:
		c.values = append(c.values, []byte(v))
	default:
		return errors.Newf(errors.ErrorTypeData, "expected bytes, got %T", value)
	}
	return nil
}

func (c *BytesColumn) Clear() { c.values = c.values[:0] }

// Values returns the backing slice. Callers must not modify it.
func (c *BytesColumn) Values() [][]byte { return c.values }

// TimestampColumn stores timestamps as microseconds since the Unix epoch
type TimestampColumn struct {
	values []int64
}

// NewTimestampColumn creates a new timestamp column
func NewTimestampColumn() *TimestampColumn {
	return &TimestampColumn{values: make([]int64, 0, 1024)}
}

func (c *TimestampColumn) Type() Type { return TypeTimestamp }
func (c *TimestampColumn) Len() int   { return len(c.values) }

func (c *TimestampColumn) Get(i int) interface{} {
	return time.UnixMicro(c.values[i]).UTC()
}

func (c *TimestampColumn) Append(value interface{}) error {
	var micros int64
	switch v := value.(type) {
	case time.Time:
		micros = v.UnixMicro()
	case int64:
		micros = v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return errors.Wrapf(err, errors.ErrorTypeData, "cannot parse %q as timestamp", v)
		}
		micros = t.UnixMicro()
	default:
		return errors.Newf(errors.ErrorTypeData, "expected timestamp, got %T", value)
	}

	c.values = append(c.values, micros)
	return nil
}

func (c *TimestampColumn) Clear() { c.values = c.values[:0] }

// Values returns the backing epoch-microsecond slice. Callers must not
// modify it.
func (c *TimestampColumn) Values() []int64 { return c.values }

// DictionaryColumn stores strings dictionary-encoded: the distinct values
// in first-seen order plus a uint32 code per row.
type DictionaryColumn struct {
	dict   map[string]uint32
	values []string
	codes  []uint32
}

// NewDictionaryColumn creates a new empty dictionary column
func NewDictionaryColumn() *DictionaryColumn {
	return &DictionaryColumn{
		dict:   make(map[string]uint32),
		values: make([]string, 0, 64),
		codes:  make([]uint32, 0, 1024),
	}
}

// NewDictionaryColumnFromData creates a dictionary column from prebuilt
// values and codes. Every code must index into values.
func NewDictionaryColumnFromData(values []string, codes []uint32) (*DictionaryColumn, error) {
	c := &DictionaryColumn{
		dict:   make(map[string]uint32, len(values)),
		values: values,
		codes:  codes,
	}
	for i, v := range values {
		c.dict[v] = uint32(i)
	}
	for i, code := range codes {
		if int(code) >= len(values) {
			return nil, errors.Newf(errors.ErrorTypeValidation, "dictionary code %d at row %d out of range [0, %d)", code, i, len(values))
		}
	}
	return c, nil
}

func (c *DictionaryColumn) Type() Type { return TypeString }
func (c *DictionaryColumn) Len() int   { return len(c.codes) }

func (c *DictionaryColumn) Get(i int) interface{} {
	return c.values[c.codes[i]]
}

func (c *DictionaryColumn) Append(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return errors.Newf(errors.ErrorTypeData, "expected string, got %T", value)
	}

	code, exists := c.dict[str]
	if !exists {
		code = uint32(len(c.values))
		c.dict[str] = code
		c.values = append(c.values, str)
	}
	c.codes = append(c.codes, code)
	return nil
}

func (c *DictionaryColumn) Clear() {
	c.dict = make(map[string]uint32)
	c.values = c.values[:0]
	c.codes = c.codes[:0]
}

// Values returns the distinct values in code order. Callers must not
// modify the slice.
func (c *DictionaryColumn) Values() []string { return c.values }

// Codes returns the per-row codes. Callers must not modify the slice.
func (c *DictionaryColumn) Codes() []uint32 { return c.codes }

// StructColumn stores nested records as one child column per child field
type StructColumn struct {
	fields   []Field
	children []Column
}

// NewStructColumn creates a struct column with one empty child column per
// child field.
func NewStructColumn(fields []Field) (*StructColumn, error) {
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "struct column requires at least one child field")
	}
	children := make([]Column, len(fields))
	for i, f := range fields {
		child, err := NewColumn(f)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}
	return &StructColumn{fields: fields, children: children}, nil
}

// NewStructColumnFromData creates a struct column over prebuilt children.
// Children must match the fields in count and be equal length.
func NewStructColumnFromData(fields []Field, children []Column) (*StructColumn, error) {
	if len(fields) != len(children) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "struct column has %d fields but %d children", len(fields), len(children))
	}
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "struct column requires at least one child field")
	}
	for i := 1; i < len(children); i++ {
		if children[i].Len() != children[0].Len() {
			return nil, errors.Newf(errors.ErrorTypeValidation, "struct child %q has %d rows, want %d", fields[i].Name, children[i].Len(), children[0].Len())
		}
	}
	return &StructColumn{fields: fields, children: children}, nil
}

func (c *StructColumn) Type() Type { return TypeStruct }

func (c *StructColumn) Len() int {
	if len(c.children) == 0 {
		return 0
	}
	return c.children[0].Len()
}

func (c *StructColumn) Get(i int) interface{} {
	row := make(map[string]interface{}, len(c.children))
	for j, child := range c.children {
		row[c.fields[j].Name] = child.Get(i)
	}
	return row
}

func (c *StructColumn) Append(value interface{}) error {
	m, ok := value.(map[string]interface{})
	if !ok {
		return errors.Newf(errors.ErrorTypeData, "expected map for struct column, got %T", value)
	}
	for j, child := range c.children {
		name := c.fields[j].Name
		v, exists := m[name]
		if !exists {
			return errors.Newf(errors.ErrorTypeData, "struct value missing field %q", name)
		}
		if err := child.Append(v); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeData, "appending struct field %q", name)
		}
	}
	return nil
}

func (c *StructColumn) Clear() {
	for _, child := range c.children {
		child.Clear()
	}
}

// Fields returns the child field definitions.
func (c *StructColumn) Fields() []Field { return c.fields }

// Children returns the child columns in field order.
func (c *StructColumn) Children() []Column { return c.children }
