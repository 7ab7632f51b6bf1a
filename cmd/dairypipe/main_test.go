package main

import (
	"log/slog"
	"strings"
	"testing"

	"dairypipe/internal/format"
	"dairypipe/internal/lookup"
	"dairypipe/internal/recon"
	"dairypipe/internal/record"
	"dairypipe/internal/schema"
	"dairypipe/internal/validate"
)

const testSchemaCSV = `metric,survey_mapping,types,default_value
farm_id,C4,string,
milk_year,C5,int,
milk_fat_content_percent,C10,float,
`

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(strings.NewReader(testSchemaCSV))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return s
}

func testRec(farm string, year int, extra map[string]any) record.Record {
	r := record.Record{
		"farm_id":            farm,
		"milk_year":          year,
		"survey_id":          record.Key(farm, year),
		"main_breed_variety": "Holstein",
	}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestCastCorrection(t *testing.T) {
	sch := testSchema(t)

	v, err := castCorrection("2024", validate.Rule{Type: validate.Integer}, sch, "milk_year")
	if err != nil || v != 2024 {
		t.Fatalf("integer: %v %v", v, err)
	}
	v, err = castCorrection("3.5", validate.Rule{Type: validate.Numeric}, sch, "milk_fat_content_percent")
	if err != nil || v != 3.5 {
		t.Fatalf("numeric: %v %v", v, err)
	}
	if _, err = castCorrection("abc", validate.Rule{Type: validate.Integer}, sch, "milk_year"); err == nil {
		t.Fatal("non-integer input should be rejected")
	}
	// Empty input clears the field.
	v, err = castCorrection("", validate.Rule{Type: validate.Numeric}, sch, "milk_fat_content_percent")
	if err != nil || v != nil {
		t.Fatalf("empty: %v %v", v, err)
	}
	// No rule: the schema's declared type decides.
	v, err = castCorrection("7", validate.Rule{}, sch, "milk_year")
	if err != nil || v != 7 {
		t.Fatalf("schema-typed: %v %v", v, err)
	}
	v, err = castCorrection("x", validate.Rule{}, sch, "unmapped_field")
	if err != nil || v != "x" {
		t.Fatalf("fallback string: %v %v", v, err)
	}
}

func TestResolveWizard(t *testing.T) {
	fresh := []record.Record{
		testRec("farm-a", 2024, map[string]any{"milk_fat_content_percent": 3.9}),
		testRec("farm-b", 2024, map[string]any{"milk_fat_content_percent": 4.1}),
	}
	stored := []record.Record{
		testRec("farm-a", 2024, map[string]any{"milk_fat_content_percent": 3.5}),
		testRec("farm-b", 2024, map[string]any{"milk_fat_content_percent": 3.5}),
	}
	ded := recon.Dedupe(fresh, stored, slog.Default())
	if len(ded.Candidates) != 2 {
		t.Fatalf("candidates: %d", len(ded.Candidates))
	}

	// Drop the first, step back, change it to overwrite, then drop the
	// second. An unknown answer in between is re-asked.
	in := strings.NewReader("d\nb\no\nwhat\nd\n")
	var out strings.Builder
	s := recon.NewResolveSession(ded)

	if err := runResolveWizard(newPrompter(in, &out), s, format.ASCII, &out); err != nil {
		t.Fatalf("wizard: %v", err)
	}
	if !s.Complete() {
		t.Fatal("wizard returned with undecided conflicts")
	}
	if ids := s.OverwriteIDs(); len(ids) != 1 || ids[0] != "farm-a_2024" {
		t.Fatalf("overwrites: %v", ids)
	}
	work := s.Working()
	if len(work) != 1 || work[0].SurveyID() != "farm-a_2024" {
		t.Fatalf("working set: %d records", len(work))
	}
	if !strings.Contains(out.String(), "Conflict 1/2") {
		t.Fatalf("missing progress header:\n%s", out.String())
	}
}

func TestValidationLoop_RepeatsUntilClean(t *testing.T) {
	recs := []record.Record{testRec("farm-a", 1900, nil)}
	rules := validate.DefaultRules(lookup.Default())

	// First correction is still out of range, the loop re-validates and
	// asks again; the second one passes.
	in := strings.NewReader("1901\n2024\n")
	var out strings.Builder

	sess, err := runValidationLoop(newPrompter(in, &out), recs, rules, testSchema(t), format.ASCII, &out)
	if err != nil {
		t.Fatalf("validation loop: %v", err)
	}
	final := sess.Working()
	if len(final) != 1 {
		t.Fatalf("final records: %d", len(final))
	}
	if !record.ValueEqual(final[0]["milk_year"], 2024) {
		t.Fatalf("corrected milk_year: %v", final[0]["milk_year"])
	}
	if strings.Count(out.String(), "failed validation") != 2 {
		t.Fatalf("expected two correction rounds:\n%s", out.String())
	}
}

func TestValidationLoop_CleanSetAsksNothing(t *testing.T) {
	recs := []record.Record{testRec("farm-a", 2024, nil)}
	rules := validate.DefaultRules(lookup.Default())

	var out strings.Builder
	sess, err := runValidationLoop(newPrompter(strings.NewReader(""), &out), recs, rules, testSchema(t), format.ASCII, &out)
	if err != nil {
		t.Fatalf("validation loop: %v", err)
	}
	if len(sess.Working()) != 1 {
		t.Fatal("clean set should pass through")
	}
}

func TestPrompterEOF(t *testing.T) {
	p := newPrompter(strings.NewReader(""), &strings.Builder{})
	if _, err := p.ask("? "); err == nil {
		t.Fatal("EOF should surface as an error")
	}
}
