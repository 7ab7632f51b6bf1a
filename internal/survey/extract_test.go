package survey

import (
	"log/slog"
	"strings"
	"testing"

	"dairypipe/internal/lookup"
	"dairypipe/internal/schema"
	"dairypipe/internal/workbook"
)

const testSchemaCSV = `metric,survey_mapping,types,default_value
farm_id,C4,string,
milk_year,C5,int,
main_breed_variety,C6,string,
bedding.type,C7,string,
cow_milk.grazing_quality,C8,string,
milk_fat_content_percent,C9,float,
cow_milk.herd_count,C10,int,
feed.hay.cow_milk.kgDMI_head_day,C11,float,
`

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	s, err := schema.Parse(strings.NewReader(testSchemaCSV))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return NewExtractor(s, lookup.Default(), slog.Default())
}

// baseCells returns a workbook selecting DMI, per-animal, single-day.
func baseCells() map[string]any {
	return map[string]any{
		"D61": "x", // DMI
		"C64": "x", // per animal
		"C67": "x", // single day
		"C4":  "Green Valley Farm",
		"C5":  "2024",
		"C6":  "HF",
		"C7":  "Słoma",
		"C8":  "Wysoka",
		"C9":  "3.5",
		"C10": "40",
		"C11": "12.5",
	}
}

func wb(name string, cells map[string]any) *workbook.MapWorkbook {
	return &workbook.MapWorkbook{FileName: name, Cells: cells}
}

func TestExtract_HappyPath(t *testing.T) {
	e := testExtractor(t)
	ex, err := e.Extract(wb("gv2024.xlsx", baseCells()))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(ex.FieldErrors) != 0 {
		t.Fatalf("FieldErrors: %v", ex.FieldErrors)
	}

	rec := ex.Record
	if got := rec["farm_id"]; got != "green-valley-farm" {
		t.Errorf("farm_id = %v, want slug", got)
	}
	if got := rec["survey_id"]; got != "green-valley-farm_2024" {
		t.Errorf("survey_id = %v", got)
	}
	if got := rec["main_breed_variety"]; got != "Holstein" {
		t.Errorf("breed shorthand: got %v", got)
	}
	if got := rec["bedding.type"]; got != "straw" {
		t.Errorf("bedding translation: got %v", got)
	}
	if got := rec["cow_milk.grazing_quality"]; got != "HIGH" {
		t.Errorf("grazing translation: got %v", got)
	}
	if got := rec["milk_year"]; got != 2024 {
		t.Errorf("milk_year = %v (%T)", got, got)
	}
	if got := rec["feed.hay.cow_milk.kgDMI_head_day"]; got != 12.5 {
		t.Errorf("feed value (DMI, per animal, single day) = %v, want 12.5", got)
	}
}

func TestExtract_FWIHerdMultiday(t *testing.T) {
	e := testExtractor(t)
	cells := baseCells()
	delete(cells, "D61")
	delete(cells, "C64")
	delete(cells, "C67")
	cells["C61"] = "x" // FWI
	cells["D64"] = "x" // per herd
	cells["D67"] = "7" // 7-day recording
	cells["C11"] = "350"

	ex, err := e.Extract(wb("gv.xlsx", cells))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// 350 * 0.86 / 40 / 7 = 1.075
	if got := ex.Record["feed.hay.cow_milk.kgDMI_head_day"]; got != 1.075 {
		t.Errorf("normalized feed = %v, want 1.075", got)
	}
}

func TestExtract_SelectorFatal(t *testing.T) {
	e := testExtractor(t)

	cases := []struct {
		name  string
		patch func(map[string]any)
	}{
		{"both DMI and FWI", func(c map[string]any) { c["C61"] = "x" }},
		{"no feed unit", func(c map[string]any) { delete(c, "D61") }},
		{"both animal and herd", func(c map[string]any) { c["D64"] = "x" }},
		{"no period", func(c map[string]any) { delete(c, "C67") }},
		{"both periods", func(c map[string]any) { c["D67"] = "7" }},
		{"non-integer custom period", func(c map[string]any) { delete(c, "C67"); c["D67"] = "weekly" }},
		{"zero custom period", func(c map[string]any) { delete(c, "C67"); c["D67"] = "0" }},
	}
	for _, c := range cases {
		cells := baseCells()
		c.patch(cells)
		if _, err := e.Extract(wb("bad.xlsx", cells)); err == nil {
			t.Errorf("%s: expected survey-fatal error", c.name)
		}
	}
}

func TestExtractBatch_SkipsAndContinues(t *testing.T) {
	e := testExtractor(t)

	missingYear := baseCells()
	delete(missingYear, "C5")

	res := e.ExtractBatch([]workbook.Workbook{
		wb("no-year.xlsx", missingYear),
		wb("ok.xlsx", baseCells()),
	})

	if len(res.Skipped) != 1 || res.Skipped[0].Workbook != "no-year.xlsx" {
		t.Fatalf("Skipped: %+v", res.Skipped)
	}
	if !strings.Contains(res.Skipped[0].Reason, "milk year") {
		t.Errorf("skip reason: %q", res.Skipped[0].Reason)
	}
	if len(res.Surveys) != 1 || res.Surveys[0].Record["survey_id"] != "green-valley-farm_2024" {
		t.Fatalf("Surveys: %+v", res.Surveys)
	}
	// A skipped survey contributes zero records and zero field errors.
	if len(res.Surveys[0].FieldErrors) != 0 {
		t.Fatalf("FieldErrors leaked from skipped survey: %+v", res.Surveys[0].FieldErrors)
	}
}

func TestExtract_FieldErrorIsolated(t *testing.T) {
	e := testExtractor(t)
	cells := baseCells()
	cells["C9"] = "three point five"

	ex, err := e.Extract(wb("gv.xlsx", cells))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(ex.FieldErrors) != 1 || ex.FieldErrors[0].Metric != "milk_fat_content_percent" {
		t.Fatalf("FieldErrors: %+v", ex.FieldErrors)
	}
	if ex.Record["milk_fat_content_percent"] != nil {
		t.Errorf("bad field should be nil, got %v", ex.Record["milk_fat_content_percent"])
	}
	// Other fields keep extracting.
	if ex.Record["farm_id"] != "green-valley-farm" {
		t.Errorf("farm_id lost after field error: %v", ex.Record["farm_id"])
	}
}

func TestExtract_UnknownFeedIsFatal(t *testing.T) {
	s, err := schema.Parse(strings.NewReader(testSchemaCSV +
		"feed.caviar.cow_milk.kgDMI_head_day,C12,float,\n"))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	e := NewExtractor(s, lookup.Default(), slog.Default())

	cells := baseCells()
	cells["C12"] = "1.0"
	if _, err := e.Extract(wb("gv.xlsx", cells)); err == nil {
		t.Fatal("unknown feed type should be survey-fatal")
	}
}
