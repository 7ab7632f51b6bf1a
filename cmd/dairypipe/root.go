package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dairypipe/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "dairypipe",
	Short: "Farm survey ingestion pipeline for dairy emissions assessments",
	Long: "Dairypipe extracts farm survey spreadsheets into canonical records,\n" +
		"reconciles them against stored data, validates them and submits the\n" +
		"batch to the Cool Farm Tool emissions API.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		// .env seeds CFT credentials during local runs; absent is fine.
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
