package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/colstreamio/colstream/pkg/columnar"
	"github.com/colstreamio/colstream/pkg/errors"
	"github.com/colstreamio/colstream/pkg/logger"
)

// DefaultSampleRows is the number of rows inspected when inferring a
// schema.
const DefaultSampleRows = 1024

// DefaultDictionaryThreshold is the distinct/total ratio at or below
// which a string column is marked dictionary-encoded.
const DefaultDictionaryThreshold = 0.5

// dictionaryMinRows is the smallest sample that can justify a dictionary
// flag; below it the ratio is noise.
const dictionaryMinRows = 8

// InferOptions configures schema inference.
type InferOptions struct {
	// SampleRows caps how many rows are read for inference. Zero or
	// negative means DefaultSampleRows.
	SampleRows int

	// DictionaryThreshold is the distinct/total ratio at or below which
	// a string column becomes dictionary-encoded. Zero means
	// DefaultDictionaryThreshold; negative disables dictionary
	// detection.
	DictionaryThreshold float64

	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// Logger receives the inference summary. Nil falls back to the
	// process logger.
	Logger *zap.Logger
}

// DefaultInferOptions returns comma-separated input sampled at
// DefaultSampleRows rows with the default dictionary threshold.
func DefaultInferOptions() *InferOptions {
	return &InferOptions{
		SampleRows:          DefaultSampleRows,
		DictionaryThreshold: DefaultDictionaryThreshold,
	}
}

// candidate tracks which column types every value seen so far can still
// parse as. String always survives; the narrowest surviving type wins.
type candidate struct {
	boolOK  bool
	intOK   bool
	floatOK bool
	timeOK  bool
}

func newCandidate() candidate {
	return candidate{boolOK: true, intOK: true, floatOK: true, timeOK: true}
}

// observe narrows the candidate by one value. An empty value forces
// string: typed columns reject empty input, so only a string column can
// hold it.
func (c *candidate) observe(value string) {
	if value == "" {
		*c = candidate{}
		return
	}
	if c.boolOK && !isBoolValue(value) {
		c.boolOK = false
	}
	if c.intOK {
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			c.intOK = false
		}
	}
	if c.floatOK {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			c.floatOK = false
		}
	}
	if c.timeOK {
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			c.timeOK = false
		}
	}
}

// colType resolves the narrowest type the whole sample supports.
func (c candidate) colType() columnar.Type {
	switch {
	case c.boolOK:
		return columnar.TypeBool
	case c.intOK:
		return columnar.TypeInt64
	case c.floatOK:
		return columnar.TypeFloat64
	case c.timeOK:
		return columnar.TypeTimestamp
	default:
		return columnar.TypeString
	}
}

func isBoolValue(value string) bool {
	switch strings.ToLower(value) {
	case "true", "false":
		return true
	}
	return false
}

// InferSchema derives a flat schema from a sample of CSV input: the
// header row names the fields, and each column gets the narrowest type
// every sampled value parses as, widening to string on any conflict.
// String columns whose distinct/total ratio stays at or below the
// dictionary threshold are marked dictionary-encoded.
//
// Only the sample is read from r; callers converting the same input must
// reopen or rewind it.
func InferSchema(r io.Reader, opts *InferOptions) (*columnar.Schema, error) {
	if opts == nil {
		opts = DefaultInferOptions()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	sampleRows := opts.SampleRows
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	threshold := opts.DictionaryThreshold
	if threshold == 0 {
		threshold = DefaultDictionaryThreshold
	}

	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "reading csv header")
	}
	for i, name := range header {
		if name == "" {
			return nil, errors.Newf(errors.ErrorTypeData, "csv header column %d has no name", i)
		}
	}

	candidates := make([]candidate, len(header))
	distinct := make([]map[string]struct{}, len(header))
	for i := range candidates {
		candidates[i] = newCandidate()
		distinct[i] = make(map[string]struct{})
	}

	rows := 0
	for rows < sampleRows {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "reading csv row")
		}
		for i, value := range record {
			candidates[i].observe(value)
			distinct[i][value] = struct{}{}
		}
		rows++
	}
	if rows == 0 {
		return nil, errors.New(errors.ErrorTypeData, "csv input has no rows to infer from")
	}

	fields := make([]columnar.Field, len(header))
	for i, name := range header {
		field := columnar.Field{Name: name, Type: candidates[i].colType()}
		if field.Type == columnar.TypeString && threshold > 0 && rows >= dictionaryMinRows {
			ratio := float64(len(distinct[i])) / float64(rows)
			if ratio <= threshold {
				field.Dictionary = true
			}
		}
		fields[i] = field

		log.Debug("column inferred",
			zap.String("field", name),
			zap.String("type", string(field.Type)),
			zap.Bool("dictionary", field.Dictionary),
			zap.Int("distinct", len(distinct[i])),
		)
	}

	schema, err := columnar.NewSchema(fields)
	if err != nil {
		return nil, err
	}
	log.Debug("schema inferred", zap.Int("fields", len(fields)), zap.Int("sampled_rows", rows))
	return schema, nil
}
