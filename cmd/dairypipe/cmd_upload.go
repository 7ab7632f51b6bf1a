package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dairypipe/internal/cft"
	"dairypipe/internal/correct"
	"dairypipe/internal/format"
	"dairypipe/internal/logging"
	"dairypipe/internal/lookup"
	"dairypipe/internal/recon"
	"dairypipe/internal/record"
	"dairypipe/internal/schema"
	"dairypipe/internal/store"
	"dairypipe/internal/submit"
	"dairypipe/internal/survey"
	"dairypipe/internal/validate"
)

var uploadFlags struct {
	schemaPath string
	configDir  string
	rulesPath  string
	dbPath     string
	markdown   bool
	assumeYes  bool
}

var uploadCmd = &cobra.Command{
	Use:   "upload <survey.xlsx> [more.xlsx ...]",
	Short: "Extract, reconcile, validate and submit a survey batch",
	Long: "Upload runs the full pipeline: extracts each spreadsheet into a\n" +
		"canonical record, reconciles the batch against stored records,\n" +
		"walks you through conflicts and validation errors, then submits\n" +
		"the batch to the emissions API and persists inputs and results.",
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	f := uploadCmd.Flags()
	f.StringVar(&uploadFlags.schemaPath, "schema", "schema/input_schema_mapping.csv", "Cell-to-metric schema CSV")
	f.StringVar(&uploadFlags.configDir, "config", "", "Lookup table directory (default: built-in tables)")
	f.StringVar(&uploadFlags.rulesPath, "rules", "", "Validation rules YAML (default: built-in rules)")
	f.StringVar(&uploadFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")
	f.BoolVar(&uploadFlags.markdown, "markdown", false, "Render tables as Markdown")
	f.BoolVarP(&uploadFlags.assumeYes, "yes", "y", false, "Submit without the final confirmation prompt")
}

func runUpload(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	mode := format.ASCII
	if uploadFlags.markdown {
		mode = format.Markdown
	}

	sch, err := schema.Load(uploadFlags.schemaPath)
	if err != nil {
		return err
	}

	// The lookup/rule files and the store snapshot are independent
	// inputs; load them concurrently.
	var (
		tables   *lookup.Tables
		rules    validate.RuleSet
		st       *store.SqlStore
		snapshot []record.Record
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		st, err = store.Open(uploadFlags.dbPath)
		if err != nil {
			return err
		}
		snapshot, err = st.Inputs()
		return err
	})
	g.Go(func() error {
		var err error
		tables, err = loadTables(uploadFlags.configDir)
		if err != nil {
			return err
		}
		rules, err = loadRules(uploadFlags.rulesPath, tables)
		return err
	})
	if err := g.Wait(); err != nil {
		if st != nil {
			st.Close()
		}
		return err
	}
	defer st.Close()

	books, err := openWorkbooks(args)
	if err != nil {
		return err
	}
	res := survey.NewExtractor(sch, tables, logging.New("extract")).ExtractBatch(books)
	for _, sk := range res.Skipped {
		fmt.Fprintf(out, "Skipped %s: %s\n", sk.Workbook, sk.Reason)
	}
	if len(res.Surveys) == 0 {
		return fmt.Errorf("no usable surveys in this batch")
	}
	fmt.Fprintf(out, "Extracted %s.\n", format.Plural(len(res.Surveys), "survey", "surveys"))

	ded := recon.Dedupe(res.Records(), snapshot, logging.New("recon"))
	for _, id := range ded.BatchCollapsed {
		fmt.Fprintf(out, "Duplicate upload of %s collapsed (first file wins).\n", id)
	}
	for _, id := range ded.AutoDropped {
		fmt.Fprintf(out, "%s is identical to the stored record, skipped.\n", id)
	}

	p := newPrompter(cmd.InOrStdin(), out)
	resolve := recon.NewResolveSession(ded)
	if err := runResolveWizard(p, resolve, mode, out); err != nil {
		return err
	}
	if len(resolve.Working()) == 0 {
		fmt.Fprintln(out, "Nothing left to submit.")
		return nil
	}

	corrections, err := runValidationLoop(p, resolve.Working(), rules, sch, mode, out)
	if err != nil {
		return err
	}

	final := corrections.Working()
	newCount := len(final) - len(resolve.OverwriteIDs())
	fmt.Fprintf(out, "Ready to submit %s (%d new, %d overwriting stored records).\n",
		format.Plural(len(final), "record", "records"), newCount, len(resolve.OverwriteIDs()))
	if !uploadFlags.assumeYes {
		ok, err := p.confirm("Submit to the emissions API?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Submission cancelled, nothing persisted.")
			return nil
		}
	}

	cfg, err := cft.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("emissions API not configured: %w", err)
	}
	orch := submit.NewOrchestrator(cft.NewClient(cfg), &cft.Builder{Tables: tables}, st, sch)
	outcome, err := orch.Run(cmd.Context(), resolve, corrections)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Submitted %d, persisted %d new and %d overwrites (batch %s).\n",
		outcome.Submitted, outcome.NewRecords, outcome.Overwrites, outcome.BatchID)
	fmt.Fprintln(out, format.ResultsTable(outcome.Results, mode))
	return nil
}

// runResolveWizard walks every conflict until each has a decision.
func runResolveWizard(p *prompter, s *recon.ResolveSession, mode format.Mode, out io.Writer) error {
	if s.Complete() && s.Len() == 0 {
		return nil
	}
	fmt.Fprintf(out, "\n%s with stored records need a decision.\n", format.Plural(s.Len(), "conflict", "conflicts"))

	for {
		cand, ok := s.Current()
		if !ok {
			if s.Complete() {
				return nil
			}
			// Reaching the end with undecided conflicts only happens
			// after backtracking; start the walk over.
			s.Reset()
			continue
		}
		pos, total := s.Progress()
		fmt.Fprintf(out, "\nConflict %d/%d: %s\n%s\n", pos, total, cand.SurveyID, format.DiffTable(cand, mode))

		answer, err := p.ask("[o]verwrite stored / [d]rop upload / [b]ack / [r]eset: ")
		if err != nil {
			return err
		}
		switch answer {
		case "o", "overwrite":
			if err := s.Decide(cand.SurveyID, recon.Overwrite); err != nil {
				return err
			}
			s.Advance()
		case "d", "drop":
			if err := s.Decide(cand.SurveyID, recon.Drop); err != nil {
				return err
			}
			s.Advance()
		case "b", "back":
			s.Previous()
		case "r", "reset":
			s.ResetAll()
			fmt.Fprintln(out, "All decisions cleared.")
		default:
			fmt.Fprintf(out, "Unrecognized answer %q.\n", answer)
		}
	}
}

// runValidationLoop validates, runs the correction wizard, and
// re-validates until the record set is clean. The returned session is
// the final, trivially complete one over the clean set.
func runValidationLoop(p *prompter, recs []record.Record, rules validate.RuleSet, sch *schema.Schema, mode format.Mode, out io.Writer) (*correct.Session, error) {
	for {
		report := validate.Records(recs, rules)
		sess, err := correct.NewSession(report, recs)
		if err != nil {
			return nil, err
		}
		if len(report) == 0 {
			fmt.Fprintln(out, "All records pass validation.")
			return sess, nil
		}

		fmt.Fprintf(out, "\n%s failed validation.\n", format.Plural(len(report), "record", "records"))
		if err := runCorrectionWizard(p, sess, sch, mode, out); err != nil {
			return nil, err
		}
		recs = sess.Working()
	}
}

// runCorrectionWizard asks for a replacement value for every failing
// field of every reported record.
func runCorrectionWizard(p *prompter, s *correct.Session, sch *schema.Schema, mode format.Mode, out io.Writer) error {
	for {
		entry, ok := s.Current()
		if !ok {
			return nil
		}
		pos, total := s.Progress()
		fmt.Fprintf(out, "\nRecord %d/%d: %s\n%s\n", pos, total, entry.SurveyID, format.IssueTable(entry, mode))

		fields := make([]string, 0, len(entry.Fields))
		for f := range entry.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		corrections := make(map[string]any, len(fields))
		for _, field := range fields {
			issue := entry.Fields[field]
			for {
				raw, err := p.ask(fmt.Sprintf("  %s [%s]: ", field, format.FmtValue(issue.Current)))
				if err != nil {
					return err
				}
				value, err := castCorrection(raw, issue.Rule, sch, field)
				if err != nil {
					fmt.Fprintf(out, "  %v\n", err)
					continue
				}
				corrections[field] = value
				break
			}
		}
		if err := s.Apply(corrections); err != nil {
			return err
		}
	}
}
