package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/colstreamio/colstream/internal/ingest"
	"github.com/colstreamio/colstream/pkg/logger"
)

func newInferCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Infer a YAML schema from a CSV file",
		Long: `Infer reads a sample of the input and derives a schema: each column
gets the narrowest type every sampled value parses as, and low-cardinality
string columns are marked dictionary-encoded. The schema prints as YAML
ready for convert --schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer()
		},
	}

	cmd.Flags().StringP("input", "i", "", "Path to the CSV input file (required)")
	cmd.Flags().StringP("output", "o", "", "Path for the schema file; omitted means stdout")
	cmd.Flags().String("delimiter", ",", "CSV field delimiter")
	cmd.Flags().Int("sample-rows", ingest.DefaultSampleRows, "Rows sampled for inference")
	cmd.Flags().Float64("dictionary-threshold", ingest.DefaultDictionaryThreshold,
		"Distinct/total ratio at or below which a string column becomes dictionary-encoded; negative disables")
	return cmd
}

func runInfer() error {
	input := viper.GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}

	log := logger.Get().With(
		zap.String("component", "colstream-cli"),
		zap.String("input", input),
	)

	delimiter, err := delimiterFromFlags()
	if err != nil {
		return err
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	schema, err := ingest.InferSchema(in, &ingest.InferOptions{
		SampleRows:          viper.GetInt("sample-rows"),
		DictionaryThreshold: viper.GetFloat64("dictionary-threshold"),
		Comma:               delimiter,
		Logger:              log,
	})
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}

	if output := viper.GetString("output"); output != "" {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("writing schema file: %w", err)
		}
		log.Info("schema written", zap.String("output", output), zap.Int("fields", len(schema.Fields)))
		return nil
	}

	fmt.Print(string(data))
	return nil
}
