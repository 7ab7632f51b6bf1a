package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dairypipe/internal/format"
	"dairypipe/internal/logging"
	"dairypipe/internal/schema"
	"dairypipe/internal/survey"
	"dairypipe/internal/validate"
)

var extractFlags struct {
	schemaPath string
	configDir  string
	rulesPath  string
	markdown   bool
}

var extractCmd = &cobra.Command{
	Use:   "extract <survey.xlsx> [more.xlsx ...]",
	Short: "Extract surveys to canonical records without touching the store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractFlags.schemaPath, "schema", "schema/input_schema_mapping.csv", "Cell-to-metric schema CSV")
	f.StringVar(&extractFlags.configDir, "config", "", "Lookup table directory (default: built-in tables)")
	f.StringVar(&extractFlags.rulesPath, "rules", "", "Validation rules YAML (default: built-in rules)")
	f.BoolVar(&extractFlags.markdown, "markdown", false, "Render tables as Markdown")
}

func runExtract(cmd *cobra.Command, args []string) error {
	sch, err := schema.Load(extractFlags.schemaPath)
	if err != nil {
		return err
	}
	tables, err := loadTables(extractFlags.configDir)
	if err != nil {
		return err
	}
	rules, err := loadRules(extractFlags.rulesPath, tables)
	if err != nil {
		return err
	}
	books, err := openWorkbooks(args)
	if err != nil {
		return err
	}

	res := survey.NewExtractor(sch, tables, logging.New("extract")).ExtractBatch(books)

	mode := format.ASCII
	if extractFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Extracted %s, skipped %d\n",
		format.Plural(len(res.Surveys), "survey", "surveys"), len(res.Skipped))
	for _, sk := range res.Skipped {
		fmt.Fprintf(out, "  skipped %s: %s\n", sk.Workbook, sk.Reason)
	}
	if len(res.Surveys) > 0 {
		fmt.Fprintln(out, format.RecordsTable(res.Records(), mode))
	}

	// Dry-run validation so problems show up before a real upload.
	report := validate.Records(res.Records(), rules)
	if len(report) == 0 {
		fmt.Fprintln(out, "All extracted records pass validation.")
		return nil
	}
	fmt.Fprintf(out, "%s failed validation:\n", format.Plural(len(report), "record", "records"))
	for _, entry := range report {
		fmt.Fprintf(out, "%s\n%s\n", entry.SurveyID, format.IssueTable(entry, mode))
	}
	return nil
}
