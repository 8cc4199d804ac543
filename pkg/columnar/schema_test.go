package columnar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchemaValidate tests schema shape validation
func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{
			name: "flat schema",
			schema: Schema{Fields: []Field{
				{Name: "id", Type: TypeInt64},
				{Name: "name", Type: TypeString},
				{Name: "active", Type: TypeBool},
			}},
		},
		{
			name: "dictionary on string",
			schema: Schema{Fields: []Field{
				{Name: "region", Type: TypeString, Dictionary: true},
			}},
		},
		{
			name: "nested struct",
			schema: Schema{Fields: []Field{
				{Name: "location", Type: TypeStruct, Children: []Field{
					{Name: "lat", Type: TypeFloat64},
					{Name: "lon", Type: TypeFloat64},
				}},
			}},
		},
		{
			name:    "empty schema",
			schema:  Schema{},
			wantErr: true,
		},
		{
			name: "empty field name",
			schema: Schema{Fields: []Field{
				{Name: "", Type: TypeInt64},
			}},
			wantErr: true,
		},
		{
			name: "duplicate field names",
			schema: Schema{Fields: []Field{
				{Name: "x", Type: TypeInt64},
				{Name: "x", Type: TypeString},
			}},
			wantErr: true,
		},
		{
			name: "duplicate names allowed across levels",
			schema: Schema{Fields: []Field{
				{Name: "x", Type: TypeInt64},
				{Name: "nested", Type: TypeStruct, Children: []Field{
					{Name: "x", Type: TypeInt64},
				}},
			}},
		},
		{
			name: "unknown type",
			schema: Schema{Fields: []Field{
				{Name: "x", Type: Type("decimal")},
			}},
			wantErr: true,
		},
		{
			name: "dictionary on int64",
			schema: Schema{Fields: []Field{
				{Name: "x", Type: TypeInt64, Dictionary: true},
			}},
			wantErr: true,
		},
		{
			name: "struct without children",
			schema: Schema{Fields: []Field{
				{Name: "x", Type: TypeStruct},
			}},
			wantErr: true,
		},
		{
			name: "children on scalar",
			schema: Schema{Fields: []Field{
				{Name: "x", Type: TypeInt64, Children: []Field{
					{Name: "y", Type: TypeInt64},
				}},
			}},
			wantErr: true,
		},
		{
			name: "invalid nested child",
			schema: Schema{Fields: []Field{
				{Name: "nested", Type: TypeStruct, Children: []Field{
					{Name: "y", Type: TypeBytes, Dictionary: true},
				}},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestLoadSchema tests parsing schemas from YAML
func TestLoadSchema(t *testing.T) {
	yaml := `
fields:
  - name: id
    type: int64
  - name: region
    type: string
    dictionary: true
  - name: location
    type: struct
    children:
      - name: lat
        type: float64
      - name: lon
        type: float64
`
	schema, err := LoadSchema([]byte(yaml))
	require.NoError(t, err)
	require.Len(t, schema.Fields, 3)

	assert.Equal(t, "id", schema.Fields[0].Name)
	assert.Equal(t, TypeInt64, schema.Fields[0].Type)

	assert.True(t, schema.Fields[1].Dictionary)
	assert.Equal(t, TypeString, schema.Fields[1].Type)

	assert.Equal(t, TypeStruct, schema.Fields[2].Type)
	require.Len(t, schema.Fields[2].Children, 2)
	assert.Equal(t, "lon", schema.Fields[2].Children[1].Name)
}

func TestLoadSchemaInvalid(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadSchema([]byte("fields: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("fails validation", func(t *testing.T) {
		_, err := LoadSchema([]byte("fields:\n  - name: x\n    type: decimal\n"))
		assert.Error(t, err)
	})
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	content := "fields:\n  - name: id\n    type: int64\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	schema, err := LoadSchemaFile(path)
	require.NoError(t, err)
	assert.Len(t, schema.Fields, 1)

	_, err = LoadSchemaFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
