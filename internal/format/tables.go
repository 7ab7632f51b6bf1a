package format

import (
	"sort"

	"dairypipe/internal/recon"
	"dairypipe/internal/record"
	"dairypipe/internal/store"
	"dairypipe/internal/validate"
)

// RecordsTable summarizes canonical records, one row per survey.
func RecordsTable(recs []record.Record, m Mode) string {
	t := NewTable(m)
	t.Header("survey_id", "farm_id", "milk_year", "fields")
	for _, r := range recs {
		n := 0
		for _, v := range r {
			if record.IsPresent(v) {
				n++
			}
		}
		t.Row(r.SurveyID(), r[record.FieldFarmID], FmtValue(r[record.FieldMilkYear]), n)
	}
	t.Columns(ColumnConfig{Number: 4, Align: AlignRight})
	return t.String()
}

// FieldsTable dumps every field of one record, sorted by field name.
func FieldsTable(r record.Record, m Mode) string {
	fields := make([]string, 0, len(r))
	for f := range r {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	t := NewTable(m)
	t.Header("field", "value")
	for _, f := range fields {
		t.Row(f, FmtValue(r[f]))
	}
	t.Columns(ColumnConfig{Number: 2, MaxWidth: 60})
	return t.String()
}

// DiffTable renders the per-field differences of one conflict
// candidate for the resolution prompt.
func DiffTable(c recon.Candidate, m Mode) string {
	fields := make([]string, 0, len(c.Diff))
	for f := range c.Diff {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	t := NewTable(m)
	t.Header("field", "new upload", "stored")
	for _, f := range fields {
		d := c.Diff[f]
		t.Row(f, FmtValue(d.New), FmtValue(d.Existing))
	}
	t.Columns(
		ColumnConfig{Number: 2, MaxWidth: 40},
		ColumnConfig{Number: 3, MaxWidth: 40},
	)
	return t.String()
}

// IssueTable renders one record's validation failures for the
// correction prompt.
func IssueTable(e validate.Entry, m Mode) string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	t := NewTable(m)
	t.Header("field", "current", "violations")
	for _, f := range fields {
		issue := e.Fields[f]
		for i, msg := range issue.Messages {
			if i == 0 {
				t.Row(f, FmtValue(issue.Current), msg)
			} else {
				t.Row("", "", msg)
			}
		}
	}
	t.Columns(ColumnConfig{Number: 3, MaxWidth: 60})
	return t.String()
}

// ResultsTable summarizes stored emissions results.
func ResultsTable(rows []store.ResultRow, m Mode) string {
	t := NewTable(m)
	t.Header("survey_id", "total", "unit", "per FPCM", "cft version")
	for _, r := range rows {
		t.Row(
			r.SurveyID(),
			FmtValue(r["emissions_total"]),
			FmtValue(r["emissions_total_unit"]),
			FmtValue(r["emissions_per_fpcm"]),
			FmtValue(r["cft_version"]),
		)
	}
	t.Columns(
		ColumnConfig{Number: 2, Align: AlignRight},
		ColumnConfig{Number: 4, Align: AlignRight},
	)
	return t.String()
}
