package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T, fields ...Field) *Schema {
	t.Helper()
	schema, err := NewSchema(fields)
	require.NoError(t, err)
	return schema
}

// TestNewChunk tests cross-column validation at chunk construction
func TestNewChunk(t *testing.T) {
	schema := testSchema(t,
		Field{Name: "id", Type: TypeInt64},
		Field{Name: "name", Type: TypeString},
	)

	ids := NewInt64Column()
	names := NewStringColumn()
	for i := 0; i < 3; i++ {
		require.NoError(t, ids.Append(int64(i)))
		require.NoError(t, names.Append("n"))
	}

	chunk, err := NewChunk(schema, []Column{ids, names})
	require.NoError(t, err)
	assert.Equal(t, 3, chunk.Rows())
	assert.Equal(t, schema, chunk.Schema())
	assert.Equal(t, ids, chunk.Column(0))
	assert.Len(t, chunk.Columns(), 2)
}

func TestNewChunkZeroRows(t *testing.T) {
	schema := testSchema(t, Field{Name: "id", Type: TypeInt64})
	chunk, err := NewChunk(schema, []Column{NewInt64Column()})
	require.NoError(t, err)
	assert.Equal(t, 0, chunk.Rows())
}

func TestNewChunkValidation(t *testing.T) {
	schema := testSchema(t,
		Field{Name: "id", Type: TypeInt64},
		Field{Name: "name", Type: TypeString},
	)

	t.Run("nil schema", func(t *testing.T) {
		_, err := NewChunk(nil, nil)
		assert.Error(t, err)
	})

	t.Run("arity mismatch", func(t *testing.T) {
		_, err := NewChunk(schema, []Column{NewInt64Column()})
		assert.Error(t, err)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := NewChunk(schema, []Column{NewInt64Column(), NewFloat64Column()})
		assert.Error(t, err)
	})

	t.Run("nil column", func(t *testing.T) {
		_, err := NewChunk(schema, []Column{NewInt64Column(), nil})
		assert.Error(t, err)
	})

	t.Run("ragged columns", func(t *testing.T) {
		ids := NewInt64Column()
		names := NewStringColumn()
		require.NoError(t, ids.Append(int64(1)))
		require.NoError(t, ids.Append(int64(2)))
		require.NoError(t, names.Append("only one"))

		_, err := NewChunk(schema, []Column{ids, names})
		assert.Error(t, err)
	})
}

func TestNewChunkDictionaryValidation(t *testing.T) {
	schema := testSchema(t, Field{Name: "region", Type: TypeString, Dictionary: true})

	t.Run("plain string column on dictionary field", func(t *testing.T) {
		_, err := NewChunk(schema, []Column{NewStringColumn()})
		assert.Error(t, err)
	})

	t.Run("dictionary column on plain field", func(t *testing.T) {
		plain := testSchema(t, Field{Name: "region", Type: TypeString})
		_, err := NewChunk(plain, []Column{NewDictionaryColumn()})
		assert.Error(t, err)
	})

	t.Run("out of range code", func(t *testing.T) {
		// Bypass the interning appender to build an inconsistent column.
		col := &DictionaryColumn{
			dict:   map[string]uint32{"a": 0},
			values: []string{"a"},
			codes:  []uint32{0, 5},
		}
		_, err := NewChunk(schema, []Column{col})
		assert.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		col := NewDictionaryColumn()
		require.NoError(t, col.Append("a"))
		require.NoError(t, col.Append("b"))
		require.NoError(t, col.Append("a"))

		chunk, err := NewChunk(schema, []Column{col})
		require.NoError(t, err)
		assert.Equal(t, 3, chunk.Rows())
	})
}

func TestNewChunkStructValidation(t *testing.T) {
	schema := testSchema(t, Field{Name: "point", Type: TypeStruct, Children: []Field{
		{Name: "x", Type: TypeInt64},
		{Name: "y", Type: TypeInt64},
	}})

	t.Run("valid nested", func(t *testing.T) {
		col, err := NewStructColumn(schema.Fields[0].Children)
		require.NoError(t, err)
		require.NoError(t, col.Append(map[string]interface{}{"x": 1, "y": 2}))

		chunk, err := NewChunk(schema, []Column{col})
		require.NoError(t, err)
		assert.Equal(t, 1, chunk.Rows())
	})

	t.Run("child arity mismatch", func(t *testing.T) {
		col, err := NewStructColumnFromData(
			[]Field{{Name: "x", Type: TypeInt64}},
			[]Column{NewInt64Column()},
		)
		require.NoError(t, err)

		_, err = NewChunk(schema, []Column{col})
		assert.Error(t, err)
	})

	t.Run("child type mismatch", func(t *testing.T) {
		col, err := NewStructColumnFromData(
			[]Field{{Name: "x", Type: TypeInt64}, {Name: "y", Type: TypeInt64}},
			[]Column{NewInt64Column(), NewStringColumn()},
		)
		require.NoError(t, err)

		_, err = NewChunk(schema, []Column{col})
		assert.Error(t, err)
	})

	t.Run("ragged children rejected by constructor", func(t *testing.T) {
		x := NewInt64Column()
		y := NewInt64Column()
		require.NoError(t, x.Append(int64(1)))

		_, err := NewStructColumnFromData(
			[]Field{{Name: "x", Type: TypeInt64}, {Name: "y", Type: TypeInt64}},
			[]Column{x, y},
		)
		assert.Error(t, err)
	})
}
