// Command colstream converts row-oriented data into colstream files:
// self-describing, length-framed binary streams of columnar chunks.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/colstreamio/colstream/pkg/logger"
)

var version = "0.1.0"

const envPrefix = "COLSTREAM"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "colstream",
		Short: "colstream - columnar stream interchange",
		Long: `colstream writes columnar data as a self-describing, length-framed
binary stream: one schema message, dictionary and chunk messages as needed,
and an end-of-stream marker. Streams are replayable by any conforming reader
without shared state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind the executing command's flags here, not at build
			// time, so commands sharing a flag name cannot shadow each
			// other in viper.
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if configFile != "" {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config file: %w", err)
				}
			}
			return logger.Init(logger.Config{
				Level:    viper.GetString("log-level"),
				Encoding: viper.GetString("log-format"),
			})
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file; flags override its values")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "Log encoding (console, json)")
	_ = viper.BindPFlags(root.PersistentFlags())

	// Every COLSTREAM_* environment variable maps onto the flag with
	// the same lowercased, dash-for-underscore name.
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(newVersionCommand())
	root.AddCommand(newConvertCommand())
	root.AddCommand(newInferCommand())
	root.AddCommand(newBenchCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("colstream v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
