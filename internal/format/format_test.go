package format

import (
	"strings"
	"testing"

	"dairypipe/internal/recon"
	"dairypipe/internal/record"
	"dairypipe/internal/store"
	"dairypipe/internal/validate"
)

func TestFmtValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{3.5, "3.5"},
		{3.0, "3"},
		{42, "42"},
		{"abc", "abc"},
	}
	for _, c := range cases {
		if got := FmtValue(c.in); got != c.want {
			t.Errorf("FmtValue(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("Truncate: %q", got)
	}
	if got := Truncate("short", 8); got != "short" {
		t.Errorf("Truncate short: %q", got)
	}
}

func TestRecordsTable(t *testing.T) {
	recs := []record.Record{
		{"farm_id": "farm-a", "milk_year": 2024, "survey_id": "farm-a_2024", "x": 1, "y": nil},
	}
	out := RecordsTable(recs, ASCII)
	if !strings.Contains(out, "farm-a_2024") {
		t.Fatalf("table missing survey id:\n%s", out)
	}
	// y is null and does not count as a populated field.
	if !strings.Contains(out, "4") {
		t.Fatalf("field count missing:\n%s", out)
	}
}

func TestDiffTable(t *testing.T) {
	c := recon.Candidate{
		SurveyID: "farm-a_2024",
		Diff: map[string]recon.FieldDiff{
			"milk_fat_content_percent": {New: 3.9, Existing: 3.5},
		},
	}
	out := DiffTable(c, ASCII)
	for _, want := range []string{"milk_fat_content_percent", "3.9", "3.5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff table missing %q:\n%s", want, out)
		}
	}
}

func TestIssueTable(t *testing.T) {
	e := validate.Entry{
		SurveyID: "farm-a_2024",
		Fields: map[string]validate.FieldIssue{
			"milk_year": {Current: 1900, Messages: []string{"below minimum 2000", "implausible year"}},
		},
	}
	out := IssueTable(e, ASCII)
	for _, want := range []string{"milk_year", "1900", "below minimum 2000", "implausible year"} {
		if !strings.Contains(out, want) {
			t.Fatalf("issue table missing %q:\n%s", want, out)
		}
	}
}

func TestResultsTable_Markdown(t *testing.T) {
	rows := []store.ResultRow{
		{"survey_id": "farm-a_2024", "emissions_total": 512.3, "emissions_total_unit": "tCO2e", "emissions_per_fpcm": 0.92, "cft_version": "1.2.3"},
	}
	out := ResultsTable(rows, Markdown)
	if !strings.Contains(out, "|") || !strings.Contains(out, "512.3") {
		t.Fatalf("markdown results table:\n%s", out)
	}
}
