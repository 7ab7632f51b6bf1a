package store

import (
	"path/filepath"
	"testing"

	"dairypipe/internal/record"
)

func openTestStore(t *testing.T) *SqlStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(farm string, year int, fat float64) record.Record {
	return record.Record{
		"farm_id":                  farm,
		"milk_year":                year,
		"survey_id":                record.Key(farm, year),
		"milk_fat_content_percent": fat,
		"bedding.type":             nil,
	}
}

func TestSqlStore_InputRoundTrip(t *testing.T) {
	s := openTestStore(t)

	r := sampleRecord("green-valley-farm", 2024, 3.5)
	if err := s.UpsertInputs([]record.Record{r}); err != nil {
		t.Fatalf("UpsertInputs: %v", err)
	}

	got, err := s.GetInput("green-valley-farm_2024")
	if err != nil {
		t.Fatalf("GetInput: %v", err)
	}
	if got == nil || got["farm_id"] != "green-valley-farm" {
		t.Fatalf("GetInput: %+v", got)
	}
	if !record.ValueEqual(got["milk_year"], 2024) {
		t.Fatalf("milk_year after round trip: %v (%T)", got["milk_year"], got["milk_year"])
	}
	// Nulls survive the round trip as nulls.
	if v, ok := got["bedding.type"]; !ok || v != nil {
		t.Fatalf("bedding.type: %v ok=%v", v, ok)
	}

	if missing, err := s.GetInput("nope_2024"); err != nil || missing != nil {
		t.Fatalf("GetInput missing: %v %v", missing, err)
	}
}

func TestSqlStore_UpsertIsIdempotentPerKey(t *testing.T) {
	s := openTestStore(t)

	if err := s.UpsertInputs([]record.Record{sampleRecord("f", 2024, 3.5)}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertInputs([]record.Record{sampleRecord("f", 2024, 3.8)}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	all, err := s.Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Inputs: got %d rows", len(all))
	}
	if !record.ValueEqual(all[0]["milk_fat_content_percent"], 3.8) {
		t.Fatalf("upsert did not replace: %v", all[0])
	}
}

func TestSqlStore_DeleteInput(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertInputs([]record.Record{sampleRecord("f", 2024, 3.5)}); err != nil {
		t.Fatalf("UpsertInputs: %v", err)
	}
	if err := s.DeleteInput("f_2024"); err != nil {
		t.Fatalf("DeleteInput: %v", err)
	}
	if got, _ := s.GetInput("f_2024"); got != nil {
		t.Fatalf("record survived delete: %v", got)
	}
}

func TestSqlStore_Results(t *testing.T) {
	s := openTestStore(t)

	row := ResultRow{
		"survey_id":       "f_2024",
		"farm_id":         "f",
		"milk_year":       2024,
		"emissions_total": 1234.5,
		"Feed_total_CO2e": 99.0,
	}
	if err := s.UpsertResults([]ResultRow{row}); err != nil {
		t.Fatalf("UpsertResults: %v", err)
	}

	rows, err := s.Results()
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(rows) != 1 || rows[0].SurveyID() != "f_2024" {
		t.Fatalf("Results: %+v", rows)
	}
	if !record.ValueEqual(rows[0]["Feed_total_CO2e"], 99.0) {
		t.Fatalf("dynamic category column lost: %+v", rows[0])
	}
}

func TestSqlStore_RejectsMissingKey(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertInputs([]record.Record{{"farm_id": "x"}}); err == nil {
		t.Fatal("record without survey_id should be rejected")
	}
}

func TestSqlStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.UpsertInputs([]record.Record{sampleRecord("f", 2024, 3.5)}); err != nil {
		t.Fatalf("UpsertInputs: %v", err)
	}
	_ = s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	all, err := s2.Inputs()
	if err != nil || len(all) != 1 {
		t.Fatalf("Inputs after reopen: %v %v", all, err)
	}
}
