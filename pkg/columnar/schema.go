package columnar

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/colstreamio/colstream/pkg/errors"
)

// Field defines a single field in a schema. Dictionary is legal only on
// string fields; Children only on struct fields.
type Field struct {
	Name       string  `json:"name" yaml:"name"`
	Type       Type    `json:"type" yaml:"type"`
	Dictionary bool    `json:"dictionary,omitempty" yaml:"dictionary,omitempty"`
	Children   []Field `json:"children,omitempty" yaml:"children,omitempty"`
}

// Schema defines the structure of a chunk: an ordered list of fields.
type Schema struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// NewSchema creates a schema and validates it.
func NewSchema(fields []Field) (*Schema, error) {
	s := &Schema{Fields: fields}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the schema shape: at least one field, unique non-empty
// names per nesting level, the dictionary flag only on string fields, and
// children only (and always) on struct fields.
func (s *Schema) Validate() error {
	if len(s.Fields) == 0 {
		return errors.New(errors.ErrorTypeValidation, "schema has no fields")
	}
	return validateFields(s.Fields)
}

func validateFields(fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return errors.New(errors.ErrorTypeValidation, "field name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return errors.Newf(errors.ErrorTypeValidation, "duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		if !f.Type.valid() {
			return errors.Newf(errors.ErrorTypeValidation, "field %q: unknown type %q", f.Name, string(f.Type))
		}
		if f.Dictionary && f.Type != TypeString {
			return errors.Newf(errors.ErrorTypeValidation, "field %q: dictionary encoding requires type string, got %s", f.Name, f.Type)
		}

		if f.Type == TypeStruct {
			if len(f.Children) == 0 {
				return errors.Newf(errors.ErrorTypeValidation, "struct field %q has no children", f.Name)
			}
			if err := validateFields(f.Children); err != nil {
				return errors.Wrapf(err, errors.ErrorTypeValidation, "in struct field %q", f.Name)
			}
		} else if len(f.Children) > 0 {
			return errors.Newf(errors.ErrorTypeValidation, "field %q: children are only legal on struct fields", f.Name)
		}
	}
	return nil
}

// LoadSchema parses a YAML schema definition and validates it.
func LoadSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "parsing schema")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchemaFile reads and parses a YAML schema file.
func LoadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "reading schema file %s", path)
	}
	return LoadSchema(data)
}
