package ipc

import (
	"github.com/colstreamio/colstream/pkg/columnar"
	"github.com/colstreamio/colstream/pkg/errors"
	"github.com/colstreamio/colstream/pkg/json"
)

// FormatVersion is the stream layout version carried in schema headers.
// Readers reject streams with a version they do not know.
const FormatVersion = 1

// Header kinds carried in the "kind" discriminator.
const (
	kindSchema     = "schema"
	kindDictionary = "dictionary"
	kindChunk      = "chunk"
)

// NoDictionary marks a field that is not dictionary-encoded.
const NoDictionary int64 = -1

// DictField assigns a dictionary ID to one schema field. The tree mirrors
// the schema's field tree: entry i describes field i, children describe
// struct children. ID is NoDictionary on fields without dictionary
// encoding.
type DictField struct {
	ID       int64       `json:"id"`
	Children []DictField `json:"children,omitempty"`
}

// DictFieldsForSchema derives the default field-to-dictionary mapping for
// a schema: ascending IDs from zero, assigned in depth-first field order
// to every dictionary-encoded field.
func DictFieldsForSchema(schema *columnar.Schema) []DictField {
	next := int64(0)
	return dictFieldsFor(schema.Fields, &next)
}

func dictFieldsFor(fields []columnar.Field, next *int64) []DictField {
	out := make([]DictField, len(fields))
	for i, f := range fields {
		id := NoDictionary
		if f.Dictionary {
			id = *next
			*next++
		}
		out[i] = DictField{ID: id}
		if len(f.Children) > 0 {
			out[i].Children = dictFieldsFor(f.Children, next)
		}
	}
	return out
}

// validateDictFields checks that a caller-supplied mapping parallels the
// schema: same tree shape, an ID on every dictionary-encoded field and
// nowhere else, and no ID assigned twice.
func validateDictFields(schema *columnar.Schema, fields []DictField) error {
	seen := make(map[int64]struct{})
	return validateDictFieldLevel(schema.Fields, fields, seen)
}

func validateDictFieldLevel(schemaFields []columnar.Field, dictFields []DictField, seen map[int64]struct{}) error {
	if len(dictFields) != len(schemaFields) {
		return errors.Newf(errors.ErrorTypeValidation, "dictionary mapping has %d entries for %d fields", len(dictFields), len(schemaFields))
	}
	for i, sf := range schemaFields {
		df := dictFields[i]
		if sf.Dictionary {
			if df.ID < 0 {
				return errors.Newf(errors.ErrorTypeValidation, "field %q is dictionary-encoded but the mapping assigns no ID", sf.Name)
			}
			if _, dup := seen[df.ID]; dup {
				return errors.Newf(errors.ErrorTypeValidation, "dictionary ID %d assigned to more than one field", df.ID)
			}
			seen[df.ID] = struct{}{}
		} else if df.ID != NoDictionary {
			return errors.Newf(errors.ErrorTypeValidation, "field %q is not dictionary-encoded but the mapping assigns ID %d", sf.Name, df.ID)
		}
		if err := validateDictFieldLevel(sf.Children, df.Children, seen); err != nil {
			return err
		}
	}
	return nil
}

// schemaEnvelope is the header of a schema message. Schema messages have
// no body.
type schemaEnvelope struct {
	Kind         string           `json:"kind"`
	Version      int              `json:"version"`
	Fields       []columnar.Field `json:"fields"`
	Dictionaries []DictField      `json:"dictionaries"`
}

// bufferRef locates one buffer inside a message body. Offsets are
// 8-aligned positions relative to the body start.
type bufferRef struct {
	Offset             int64 `json:"offset"`
	Length             int64 `json:"length"`
	UncompressedLength int64 `json:"uncompressed_length"`
	Compressed         bool  `json:"compressed"`
}

// dictionaryEnvelope is the header of a dictionary message. The body
// holds the dictionary's values in string column layout: a uint32 offsets
// buffer and a data buffer.
type dictionaryEnvelope struct {
	Kind        string      `json:"kind"`
	ID          int64       `json:"id"`
	Replacement bool        `json:"replacement"`
	Rows        int64       `json:"rows"`
	Codec       string      `json:"codec"`
	Buffers     []bufferRef `json:"buffers"`
	BodyLength  int64       `json:"body_length"`
}

// chunkEnvelope is the header of a chunk message. The body concatenates
// every column's buffers in depth-first schema order.
type chunkEnvelope struct {
	Kind       string      `json:"kind"`
	Rows       int64       `json:"rows"`
	Codec      string      `json:"codec"`
	Buffers    []bufferRef `json:"buffers"`
	BodyLength int64       `json:"body_length"`
}

// schemaMessageBytes builds the schema message header for a stream.
func schemaMessageBytes(schema *columnar.Schema, fields []DictField) ([]byte, error) {
	env := schemaEnvelope{
		Kind:         kindSchema,
		Version:      FormatVersion,
		Fields:       schema.Fields,
		Dictionaries: fields,
	}
	meta, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "encoding schema header")
	}
	return meta, nil
}
