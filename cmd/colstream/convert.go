package main

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/colstreamio/colstream/internal/ingest"
	"github.com/colstreamio/colstream/pkg/columnar"
	"github.com/colstreamio/colstream/pkg/compression"
	"github.com/colstreamio/colstream/pkg/ipc"
	"github.com/colstreamio/colstream/pkg/logger"
	"github.com/colstreamio/colstream/pkg/metrics"
	"github.com/colstreamio/colstream/pkg/observability"
)

func newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a CSV file into a colstream file",
		Long: `Convert streams CSV rows into columnar chunks and writes them as one
colstream: a schema message, dictionary and chunk messages, and the
end-of-stream marker. Without --schema the schema is inferred from a sample
of the input, marking low-cardinality string columns dictionary-encoded.

Example:
  colstream convert --input data.csv --schema schema.yaml --output data.colstream --compression zstd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context())
		},
	}

	cmd.Flags().StringP("input", "i", "", "Path to the CSV input file (required)")
	cmd.Flags().StringP("output", "o", "", "Path to the colstream output file (required)")
	cmd.Flags().StringP("schema", "s", "", "Path to a YAML schema file; omitted means infer from the input")
	cmd.Flags().String("compression", "none", "Body compression codec (none, lz4, zstd)")
	cmd.Flags().String("compression-level", "default", "Codec level (fastest, default, best)")
	cmd.Flags().Int("batch-size", ingest.DefaultBatchSize, "Rows per chunk")
	cmd.Flags().String("delimiter", ",", "CSV field delimiter")
	cmd.Flags().Bool("no-dictionary-replacement", false, "Reject changed dictionary content instead of emitting replacements")
	cmd.Flags().Int("sample-rows", ingest.DefaultSampleRows, "Rows sampled when inferring the schema")
	cmd.Flags().Bool("trace", false, "Emit an OpenTelemetry trace of the run to stdout")
	return cmd
}

func runConvert(ctx context.Context) (retErr error) {
	input := viper.GetString("input")
	output := viper.GetString("output")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	if output == "" {
		return fmt.Errorf("--output is required")
	}

	log := logger.Get().With(
		zap.String("component", "colstream-cli"),
		zap.String("input", input),
		zap.String("output", output),
	)

	if viper.GetBool("trace") {
		cfg := observability.DefaultTracingConfig()
		cfg.ServiceVersion = version
		if err := observability.Initialize(cfg); err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() {
			if err := observability.Shutdown(context.Background()); err != nil {
				log.Warn("tracing shutdown failed", zap.Error(err))
			}
		}()
	}

	opts, err := writeOptionsFromFlags(log)
	if err != nil {
		return err
	}
	delimiter, err := delimiterFromFlags()
	if err != nil {
		return err
	}

	schema, err := resolveSchema(input, delimiter, log)
	if err != nil {
		return err
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("closing output: %w", err)
		}
	}()

	timer := metrics.NewTimer("convert")
	writer := ipc.NewStreamWriter(out, opts)

	var res ingest.Result
	err = observability.TraceOperation(ctx, "colstream.convert", func(ctx context.Context) error {
		if err := writer.Start(schema, nil); err != nil {
			return err
		}
		reader, err := ingest.NewCSVReader(in, schema, &ingest.Options{
			BatchSize: viper.GetInt("batch-size"),
			Comma:     delimiter,
			Logger:    log,
		})
		if err != nil {
			return err
		}
		if res, err = ingest.Stream(ctx, writer, reader); err != nil {
			return err
		}
		return writer.Finish()
	})
	if err != nil {
		return err
	}

	log.Info("conversion complete",
		zap.Int64("rows", res.Rows),
		zap.Int64("chunks", res.Chunks),
		zap.Int64("bytes_written", writer.BytesWritten()),
		zap.Int64("dictionary_messages", writer.DictionariesWritten()),
		zap.Duration("duration", timer.Stop()),
	)
	return nil
}

// resolveSchema loads the schema file when one is configured, otherwise
// infers a schema from a sample of the input.
func resolveSchema(input string, delimiter rune, log *zap.Logger) (*columnar.Schema, error) {
	if path := viper.GetString("schema"); path != "" {
		schema, err := columnar.LoadSchemaFile(path)
		if err != nil {
			return nil, err
		}
		log.Debug("schema loaded", zap.String("schema", path), zap.Int("fields", len(schema.Fields)))
		return schema, nil
	}

	sample, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("opening input for schema inference: %w", err)
	}
	defer sample.Close()

	schema, err := ingest.InferSchema(sample, &ingest.InferOptions{
		SampleRows: viper.GetInt("sample-rows"),
		Comma:      delimiter,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	log.Info("schema inferred from input", zap.Int("fields", len(schema.Fields)))
	return schema, nil
}

func writeOptionsFromFlags(log *zap.Logger) (*ipc.WriteOptions, error) {
	alg, err := compression.ParseAlgorithm(viper.GetString("compression"))
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(viper.GetString("compression-level"))
	if err != nil {
		return nil, err
	}

	opts := ipc.DefaultWriteOptions()
	opts.Compression = alg
	opts.CompressionLevel = level
	opts.DisallowReplacement = viper.GetBool("no-dictionary-replacement")
	opts.Logger = log
	return opts, nil
}

func parseLevel(name string) (compression.Level, error) {
	switch name {
	case "fastest":
		return compression.Fastest, nil
	case "", "default":
		return compression.Default, nil
	case "best":
		return compression.Best, nil
	default:
		return 0, fmt.Errorf("unknown compression level %q (fastest, default, best)", name)
	}
}

func delimiterFromFlags() (rune, error) {
	raw := viper.GetString("delimiter")
	if raw == "\\t" {
		raw = "\t"
	}
	r, size := utf8.DecodeRuneInString(raw)
	if size == 0 || size != len(raw) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", raw)
	}
	return r, nil
}
