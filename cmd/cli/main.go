package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "signal-engine",
		Short: "Technical-analysis signal engine operator tool",
		Long:  `A CLI for running the signal generator and tracker loops standalone, inspecting configuration, and replaying synthetic scenarios.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOutputFormat(format)
		},
	}

	// Global flags
	configFile string
	logLevel   string
	format     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (not read; configuration always loads from config/.env and the environment)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format, validated as table or json; output is always a table")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(symbolsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
