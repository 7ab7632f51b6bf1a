package cft

import (
	"encoding/json"
	"testing"
)

func decodeSample(t *testing.T) *Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal([]byte(sampleResponse), &resp); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return &resp
}

func TestFlatten_WideRow(t *testing.T) {
	rows, err := Flatten([]*Response{decodeSample(t)})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: %d", len(rows))
	}
	row := rows[0]

	if row["survey_id"] != "green-valley_2024" || row["farm_id"] != "green-valley" {
		t.Fatalf("identity columns: %+v", row)
	}
	if row["milk_year"] != 2024 {
		t.Fatalf("milk_year: %v (%T)", row["milk_year"], row["milk_year"])
	}
	if row["emissions_total"] != 512.3 || row["emissions_total_unit"] != "tCO2e" {
		t.Fatalf("summary columns: %+v", row)
	}
	if row["CH4_tonnes"] != 11.0 || row["CO2e_from_CH4_tonnes"] != 305.8 {
		t.Fatalf("disaggregation columns: %+v", row)
	}
	if row["cft_version"] != "1.2.3" {
		t.Fatalf("cft_version: %v", row["cft_version"])
	}

	// Category columns are keyed by the category name.
	if row["Feed_total_CO2e"] != 128.0 {
		t.Fatalf("Feed_total_CO2e: %v", row["Feed_total_CO2e"])
	}
	if row["Enteric fermentation_CH4"] != 9.5 {
		t.Fatalf("category CH4: %v", row["Enteric fermentation_CH4"])
	}
}

func TestFlatten_IdentifierWithoutYear(t *testing.T) {
	resp := decodeSample(t)
	resp.Farm.FarmIdentifier = "solo-farm"

	rows, err := Flatten([]*Response{resp})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if rows[0]["farm_id"] != "solo-farm" || rows[0]["milk_year"] != nil {
		t.Fatalf("identifier without year: %+v", rows[0])
	}
}

func TestFlatten_NonNumericYearSuffix(t *testing.T) {
	resp := decodeSample(t)
	resp.Farm.FarmIdentifier = "farm_draft"

	rows, err := Flatten([]*Response{resp})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if rows[0]["farm_id"] != "farm" || rows[0]["milk_year"] != nil {
		t.Fatalf("non-numeric suffix: %+v", rows[0])
	}
}

func TestFlatten_MissingDisaggregationFails(t *testing.T) {
	resp := decodeSample(t)
	resp.Summary.DisaggregationTotals = nil

	if _, err := Flatten([]*Response{resp}); err == nil {
		t.Fatal("response without disaggregation totals should fail")
	}
}
