package columnar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChunkBuilder tests row append and flush across mixed column types
func TestChunkBuilder(t *testing.T) {
	schema := testSchema(t,
		Field{Name: "id", Type: TypeInt64},
		Field{Name: "score", Type: TypeFloat64},
		Field{Name: "region", Type: TypeString, Dictionary: true},
		Field{Name: "active", Type: TypeBool},
		Field{Name: "seen", Type: TypeTimestamp},
	)

	builder, err := NewChunkBuilder(schema)
	require.NoError(t, err)
	assert.Equal(t, schema, builder.Schema())

	seen := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	rows := []map[string]interface{}{
		{"id": int64(1), "score": 0.5, "region": "us-east", "active": true, "seen": seen},
		{"id": int64(2), "score": 1.5, "region": "eu-west", "active": false, "seen": seen},
		{"id": int64(3), "score": 2.5, "region": "us-east", "active": true, "seen": seen},
	}
	for _, row := range rows {
		require.NoError(t, builder.AppendRow(row))
	}
	assert.Equal(t, 3, builder.Rows())

	chunk, err := builder.Flush()
	require.NoError(t, err)
	require.Equal(t, 3, chunk.Rows())
	assert.Equal(t, 0, builder.Rows(), "flush resets the builder")

	ids := chunk.Column(0).(*Int64Column)
	assert.Equal(t, []int64{1, 2, 3}, ids.Values())

	regions := chunk.Column(2).(*DictionaryColumn)
	assert.Equal(t, []string{"us-east", "eu-west"}, regions.Values())
	assert.Equal(t, []uint32{0, 1, 0}, regions.Codes())

	actives := chunk.Column(3).(*BoolColumn)
	assert.Equal(t, true, actives.Get(0))
	assert.Equal(t, false, actives.Get(1))

	stamps := chunk.Column(4).(*TimestampColumn)
	assert.Equal(t, seen.UnixMicro(), stamps.Values()[0])
}

func TestChunkBuilderSecondBatchIndependent(t *testing.T) {
	schema := testSchema(t, Field{Name: "region", Type: TypeString, Dictionary: true})
	builder, err := NewChunkBuilder(schema)
	require.NoError(t, err)

	require.NoError(t, builder.AppendRow(map[string]interface{}{"region": "a"}))
	first, err := builder.Flush()
	require.NoError(t, err)

	require.NoError(t, builder.AppendRow(map[string]interface{}{"region": "b"}))
	second, err := builder.Flush()
	require.NoError(t, err)

	// Dictionaries restart per batch; the first chunk is untouched.
	assert.Equal(t, []string{"a"}, first.Column(0).(*DictionaryColumn).Values())
	assert.Equal(t, []string{"b"}, second.Column(0).(*DictionaryColumn).Values())
	assert.Equal(t, []uint32{0}, second.Column(0).(*DictionaryColumn).Codes())
}

func TestChunkBuilderStructRows(t *testing.T) {
	schema := testSchema(t, Field{Name: "location", Type: TypeStruct, Children: []Field{
		{Name: "lat", Type: TypeFloat64},
		{Name: "lon", Type: TypeFloat64},
	}})

	builder, err := NewChunkBuilder(schema)
	require.NoError(t, err)

	require.NoError(t, builder.AppendRow(map[string]interface{}{
		"location": map[string]interface{}{"lat": 59.33, "lon": 18.06},
	}))

	chunk, err := builder.Flush()
	require.NoError(t, err)
	require.Equal(t, 1, chunk.Rows())

	loc := chunk.Column(0).(*StructColumn)
	lat := loc.Children()[0].(*Float64Column)
	assert.Equal(t, []float64{59.33}, lat.Values())
}

func TestChunkBuilderErrors(t *testing.T) {
	t.Run("nil schema", func(t *testing.T) {
		_, err := NewChunkBuilder(nil)
		assert.Error(t, err)
	})

	t.Run("invalid schema", func(t *testing.T) {
		_, err := NewChunkBuilder(&Schema{Fields: []Field{{Name: "x", Type: Type("bad")}}})
		assert.Error(t, err)
	})

	t.Run("missing field", func(t *testing.T) {
		builder, err := NewChunkBuilder(testSchema(t,
			Field{Name: "a", Type: TypeInt64},
			Field{Name: "b", Type: TypeInt64},
		))
		require.NoError(t, err)

		err = builder.AppendRow(map[string]interface{}{"a": int64(1)})
		assert.Error(t, err)
	})

	t.Run("bad value type", func(t *testing.T) {
		builder, err := NewChunkBuilder(testSchema(t, Field{Name: "a", Type: TypeInt64}))
		require.NoError(t, err)

		err = builder.AppendRow(map[string]interface{}{"a": []string{"nope"}})
		assert.Error(t, err)
	})
}

func TestChunkBuilderEmptyFlush(t *testing.T) {
	builder, err := NewChunkBuilder(testSchema(t, Field{Name: "a", Type: TypeInt64}))
	require.NoError(t, err)

	chunk, err := builder.Flush()
	require.NoError(t, err)
	assert.Equal(t, 0, chunk.Rows())
}
