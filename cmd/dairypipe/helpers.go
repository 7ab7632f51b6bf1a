package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dairypipe/internal/lookup"
	"dairypipe/internal/schema"
	"dairypipe/internal/validate"
	"dairypipe/internal/workbook"
)

// loadTables reads the lookup tables from --config, falling back to
// the built-in survey-template defaults.
func loadTables(dir string) (*lookup.Tables, error) {
	if dir == "" {
		return lookup.Default(), nil
	}
	return lookup.Load(dir)
}

// loadRules reads the validation rules from --rules, falling back to
// the built-in rule set derived from the lookup tables.
func loadRules(path string, tables *lookup.Tables) (validate.RuleSet, error) {
	if path == "" {
		return validate.DefaultRules(tables), nil
	}
	return validate.LoadRules(path)
}

// openWorkbooks opens every uploaded spreadsheet in argument order.
func openWorkbooks(paths []string) ([]workbook.Workbook, error) {
	books := make([]workbook.Workbook, 0, len(paths))
	for _, p := range paths {
		wb, err := workbook.OpenXLSX(p)
		if err != nil {
			return nil, err
		}
		books = append(books, wb)
	}
	return books, nil
}

// prompter reads operator answers line by line.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

// ask prints the prompt and returns the trimmed answer. io errors and
// EOF surface as errors so a closed stdin aborts the wizard instead of
// looping.
func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return "", fmt.Errorf("input closed")
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// confirm asks a yes/no question; only "y"/"yes" count as yes.
func (p *prompter) confirm(prompt string) (bool, error) {
	answer, err := p.ask(prompt + " [y/N]: ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// castCorrection converts an operator-typed replacement value to the
// type the violated rule expects. The schema's declared metric type
// takes over when no rule is known for the field.
func castCorrection(raw string, rule validate.Rule, sch *schema.Schema, field string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	typ := rule.Type
	if typ == "" {
		if entry, ok := sch.Get(field); ok {
			switch entry.Type {
			case schema.Int:
				typ = validate.Integer
			case schema.Float:
				typ = validate.Numeric
			default:
				typ = validate.String
			}
		} else {
			typ = validate.String
		}
	}
	switch typ {
	case validate.Integer:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", raw)
		}
		return n, nil
	case validate.Numeric:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}
