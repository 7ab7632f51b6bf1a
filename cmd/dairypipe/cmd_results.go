package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dairypipe/internal/format"
	"dairypipe/internal/store"
)

var resultsFlags struct {
	dbPath   string
	markdown bool
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List stored emissions results",
	RunE:  runResults,
}

func init() {
	f := resultsCmd.Flags()
	f.StringVar(&resultsFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")
	f.BoolVar(&resultsFlags.markdown, "markdown", false, "Render tables as Markdown")
}

func runResults(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(resultsFlags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.Results()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No emissions results stored yet.")
		return nil
	}
	mode := format.ASCII
	if resultsFlags.markdown {
		mode = format.Markdown
	}
	fmt.Fprintln(out, format.ResultsTable(rows, mode))
	return nil
}
