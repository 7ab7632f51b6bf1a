package cft

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"dairypipe/internal/logging"
	"dairypipe/internal/store"
)

// Flatten turns assessment responses into wide result rows, one per
// survey, with per-category emissions expanded into columns. A farm
// identifier without the year suffix still produces a row (milk_year
// null) so no completed assessment is dropped.
func Flatten(responses []*Response) ([]store.ResultRow, error) {
	log := logging.New("cft")

	rows := make([]store.ResultRow, 0, len(responses))
	for _, resp := range responses {
		row, err := flattenOne(resp, log)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func flattenOne(resp *Response, log *slog.Logger) (store.ResultRow, error) {
	id := resp.Farm.FarmIdentifier
	if id == "" {
		return nil, fmt.Errorf("flatten response: missing farm_identifier")
	}

	farmID, milkYear := splitIdentifier(id)
	if milkYear == nil {
		log.Warn("farm identifier missing year suffix", "farm_identifier", id)
	}

	if len(resp.Summary.DisaggregationTotals) == 0 {
		return nil, fmt.Errorf("flatten %s: response has no disaggregation totals", id)
	}
	disagg := resp.Summary.DisaggregationTotals[0]

	row := store.ResultRow{
		"survey_id": id,
		"farm_id":   farmID,
		"milk_year": milkYear,

		"emissions_total":         float64(resp.Summary.EmissionsTotal.Value),
		"emissions_total_unit":    resp.Summary.EmissionsTotal.Unit,
		"emissions_per_fpcm":      float64(resp.Summary.EmissionsPerFPCM.Value),
		"emissions_per_fpcm_unit": resp.Summary.EmissionsPerFPCM.Unit,

		"CO2_tonnes":           gasValue(disagg.CO2, "metric_tonnes_CO2"),
		"CO2e_from_CO2_tonnes": gasValue(disagg.CO2, "metric_tonnes_CO2e"),
		"N2O_tonnes":           gasValue(disagg.N2O, "metric_tonnes_N2O"),
		"CO2e_from_N2O_tonnes": gasValue(disagg.N2O, "metric_tonnes_CO2e"),
		"CH4_tonnes":           gasValue(disagg.CH4, "metric_tonnes_CH4"),
		"CO2e_from_CH4_tonnes": gasValue(disagg.CH4, "metric_tonnes_CO2e"),

		"cft_version": resp.Information.CFTVersion,
	}

	for _, cat := range resp.TotalEmissions {
		row[cat.Name+"_CO2"] = float64(cat.CO2)
		row[cat.Name+"_N2O"] = float64(cat.N2O)
		row[cat.Name+"_CH4"] = float64(cat.CH4)
		row[cat.Name+"_total_CO2e"] = float64(cat.TotalCO2e)
		row[cat.Name+"_total_CO2e_per_fpcm"] = float64(cat.TotalCO2ePerFPCM)
	}

	return row, nil
}

// splitIdentifier splits "farm_2024" on the last underscore. A
// non-numeric or missing suffix yields a nil year.
func splitIdentifier(id string) (string, any) {
	i := strings.LastIndex(id, "_")
	if i < 0 {
		return id, nil
	}
	year, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return id[:i], nil
	}
	return id[:i], year
}

func gasValue(b GasBreakdown, key string) float64 {
	return float64(b[key].Value)
}
