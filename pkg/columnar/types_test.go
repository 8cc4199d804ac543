package columnar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestColumnAppendGet tests value coercion and round-trip per column type
func TestColumnAppendGet(t *testing.T) {
	t.Run("int64", func(t *testing.T) {
		c := NewInt64Column()
		require.NoError(t, c.Append(int64(42)))
		require.NoError(t, c.Append(7))
		require.NoError(t, c.Append("19"))
		assert.Error(t, c.Append("not a number"))
		assert.Error(t, c.Append(3.5))

		assert.Equal(t, 3, c.Len())
		assert.Equal(t, int64(42), c.Get(0))
		assert.Equal(t, int64(19), c.Get(2))
		assert.Equal(t, []int64{42, 7, 19}, c.Values())
	})

	t.Run("float64", func(t *testing.T) {
		c := NewFloat64Column()
		require.NoError(t, c.Append(1.5))
		require.NoError(t, c.Append(float32(2)))
		require.NoError(t, c.Append("3.25"))
		require.NoError(t, c.Append(4))
		assert.Error(t, c.Append("nope"))

		assert.Equal(t, []float64{1.5, 2, 3.25, 4}, c.Values())
	})

	t.Run("string", func(t *testing.T) {
		c := NewStringColumn()
		require.NoError(t, c.Append("hello"))
		assert.Error(t, c.Append(42))

		assert.Equal(t, 1, c.Len())
		assert.Equal(t, "hello", c.Get(0))
	})

	t.Run("bytes", func(t *testing.T) {
		c := NewBytesColumn()
		require.NoError(t, c.Append([]byte{1, 2, 3}))
		require.NoError(t, c.Append("abc"))
		assert.Error(t, c.Append(42))

		assert.Equal(t, []byte{1, 2, 3}, c.Get(0))
		assert.Equal(t, []byte("abc"), c.Get(1))
	})

	t.Run("timestamp", func(t *testing.T) {
		c := NewTimestampColumn()
		ts := time.Date(2024, 3, 15, 12, 30, 0, 123456000, time.UTC)
		require.NoError(t, c.Append(ts))
		require.NoError(t, c.Append(int64(1700000000000000)))
		require.NoError(t, c.Append("2024-03-15T12:30:00Z"))
		assert.Error(t, c.Append("15/03/2024"))

		assert.Equal(t, ts.UnixMicro(), c.Values()[0])
		assert.Equal(t, ts, c.Get(0))
		assert.Equal(t, int64(1700000000000000), c.Values()[1])
	})
}

// TestBoolColumnBitPacking tests bit-packed storage and bitmap extraction
func TestBoolColumnBitPacking(t *testing.T) {
	c := NewBoolColumn()
	pattern := []bool{true, false, true, true, false, false, true, false, true, true}
	for _, v := range pattern {
		require.NoError(t, c.Append(v))
	}

	assert.Equal(t, len(pattern), c.Len())
	for i, want := range pattern {
		assert.Equal(t, want, c.Get(i), "bit %d", i)
	}

	// 10 values pack into 2 bytes, LSB first: 01001101, ______11
	bitmap := c.Bitmap()
	require.Len(t, bitmap, 2)
	assert.Equal(t, byte(0b01001101), bitmap[0])
	assert.Equal(t, byte(0b00000011), bitmap[1])
}

func TestBoolColumnStringCoercion(t *testing.T) {
	c := NewBoolColumn()
	require.NoError(t, c.Append("true"))
	require.NoError(t, c.Append("1"))
	require.NoError(t, c.Append("yes"))
	require.NoError(t, c.Append("false"))
	assert.Error(t, c.Append(42))

	assert.Equal(t, true, c.Get(0))
	assert.Equal(t, true, c.Get(1))
	assert.Equal(t, true, c.Get(2))
	assert.Equal(t, false, c.Get(3))
}

func TestBoolColumnCrossesWordBoundary(t *testing.T) {
	c := NewBoolColumn()
	for i := 0; i < 130; i++ {
		require.NoError(t, c.Append(i%3 == 0))
	}

	assert.Equal(t, 130, c.Len())
	for i := 0; i < 130; i++ {
		assert.Equal(t, i%3 == 0, c.Get(i), "bit %d", i)
	}
	assert.Len(t, c.Bitmap(), 17)
}

// TestDictionaryColumn tests value interning and code assignment
func TestDictionaryColumn(t *testing.T) {
	c := NewDictionaryColumn()
	for _, v := range []string{"us-east", "eu-west", "us-east", "ap-south", "eu-west", "us-east"} {
		require.NoError(t, c.Append(v))
	}

	assert.Equal(t, 6, c.Len())
	assert.Equal(t, []string{"us-east", "eu-west", "ap-south"}, c.Values())
	assert.Equal(t, []uint32{0, 1, 0, 2, 1, 0}, c.Codes())
	assert.Equal(t, "ap-south", c.Get(3))

	assert.Error(t, c.Append(42))
}

func TestDictionaryColumnFromData(t *testing.T) {
	c, err := NewDictionaryColumnFromData([]string{"a", "b"}, []uint32{0, 1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, "b", c.Get(2))

	_, err = NewDictionaryColumnFromData([]string{"a"}, []uint32{0, 1})
	assert.Error(t, err)
}

// TestStructColumn tests nested appends and per-field routing
func TestStructColumn(t *testing.T) {
	fields := []Field{
		{Name: "lat", Type: TypeFloat64},
		{Name: "lon", Type: TypeFloat64},
	}
	c, err := NewStructColumn(fields)
	require.NoError(t, err)

	require.NoError(t, c.Append(map[string]interface{}{"lat": 59.33, "lon": 18.06}))
	require.NoError(t, c.Append(map[string]interface{}{"lat": 40.71, "lon": -74.0}))

	assert.Equal(t, 2, c.Len())
	row := c.Get(1).(map[string]interface{})
	assert.Equal(t, 40.71, row["lat"])
	assert.Equal(t, -74.0, row["lon"])

	t.Run("missing field", func(t *testing.T) {
		err := c.Append(map[string]interface{}{"lat": 1.0})
		assert.Error(t, err)
	})

	t.Run("not a map", func(t *testing.T) {
		assert.Error(t, c.Append("scalar"))
	})

	t.Run("no children", func(t *testing.T) {
		_, err := NewStructColumn(nil)
		assert.Error(t, err)
	})
}

func TestColumnClear(t *testing.T) {
	cols := []Column{
		NewInt64Column(),
		NewFloat64Column(),
		NewBoolColumn(),
		NewStringColumn(),
		NewBytesColumn(),
		NewTimestampColumn(),
		NewDictionaryColumn(),
	}
	values := []interface{}{int64(1), 1.0, true, "s", []byte("b"), int64(1000), "d"}

	for i, c := range cols {
		require.NoError(t, c.Append(values[i]))
		require.Equal(t, 1, c.Len())
		c.Clear()
		assert.Equal(t, 0, c.Len())
	}
}

// TestNewColumn tests the field-driven column factory
func TestNewColumn(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  Type
	}{
		{"int64", Field{Name: "a", Type: TypeInt64}, TypeInt64},
		{"timestamp", Field{Name: "b", Type: TypeTimestamp}, TypeTimestamp},
		{"dictionary string", Field{Name: "c", Type: TypeString, Dictionary: true}, TypeString},
		{"struct", Field{Name: "d", Type: TypeStruct, Children: []Field{{Name: "x", Type: TypeInt64}}}, TypeStruct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := NewColumn(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, col.Type())
		})
	}

	t.Run("dictionary column concrete type", func(t *testing.T) {
		col, err := NewColumn(Field{Name: "c", Type: TypeString, Dictionary: true})
		require.NoError(t, err)
		_, ok := col.(*DictionaryColumn)
		assert.True(t, ok)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := NewColumn(Field{Name: "x", Type: Type("uuid")})
		assert.Error(t, err)

		_, err = NewColumn(Field{Name: "x", Type: TypeBytes, Dictionary: true})
		assert.Error(t, err)
	})
}
