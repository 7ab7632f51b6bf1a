package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dairypipe/internal/format"
	"dairypipe/internal/store"
)

var recordsFlags struct {
	dbPath   string
	surveyID string
	markdown bool
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List stored survey records",
	RunE:  runRecords,
}

func init() {
	f := recordsCmd.Flags()
	f.StringVar(&recordsFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")
	f.StringVar(&recordsFlags.surveyID, "survey", "", "Show every field of one survey")
	f.BoolVar(&recordsFlags.markdown, "markdown", false, "Render tables as Markdown")
}

func runRecords(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(recordsFlags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	mode := format.ASCII
	if recordsFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()

	if recordsFlags.surveyID != "" {
		rec, err := st.GetInput(recordsFlags.surveyID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no stored record for %s", recordsFlags.surveyID)
		}
		fmt.Fprintln(out, format.FieldsTable(rec, mode))
		return nil
	}

	recs, err := st.Inputs()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "Store is empty.")
		return nil
	}
	fmt.Fprintln(out, format.RecordsTable(recs, mode))
	return nil
}
