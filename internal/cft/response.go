package cft

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number is a float that tolerates being encoded as a JSON string.
// The API is inconsistent about quoting numeric fields.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*n = Number(f)
	return nil
}

// ValueUnit decodes the API's two-element [value, unit] arrays.
type ValueUnit struct {
	Value Number
	Unit  string
}

func (v *ValueUnit) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode value/unit pair: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("decode value/unit pair: empty array")
	}
	if err := v.Value.UnmarshalJSON(raw[0]); err != nil {
		return err
	}
	if len(raw) > 1 {
		if err := json.Unmarshal(raw[1], &v.Unit); err != nil {
			return fmt.Errorf("decode unit: %w", err)
		}
	}
	return nil
}

// GasBreakdown holds per-gas totals keyed by metric name, e.g.
// metric_tonnes_CH4 and metric_tonnes_CO2e.
type GasBreakdown map[string]ValueUnit

type Disaggregation struct {
	CO2 GasBreakdown `json:"CO2"`
	N2O GasBreakdown `json:"N2O"`
	CH4 GasBreakdown `json:"CH4"`
}

type Summary struct {
	EmissionsTotal       ValueUnit        `json:"emissions_total"`
	EmissionsPerFPCM     ValueUnit        `json:"emissions_per_fpcm"`
	DisaggregationTotals []Disaggregation `json:"disaggregation_totals"`
}

// CategoryEmission is one per-category line of the assessment, e.g.
// "Feed" or "Enteric fermentation".
type CategoryEmission struct {
	Name             string `json:"name"`
	CO2              Number `json:"CO2"`
	N2O              Number `json:"N2O"`
	CH4              Number `json:"CH4"`
	TotalCO2e        Number `json:"total_CO2e"`
	TotalCO2ePerFPCM Number `json:"total_CO2e_per_fpcm"`
}

type ResponseFarm struct {
	FarmIdentifier string `json:"farm_identifier"`
}

type Information struct {
	CFTVersion string `json:"cft_version"`
}

// Response is one assessment result as returned by the API.
type Response struct {
	Farm           ResponseFarm       `json:"farm"`
	Summary        Summary            `json:"summary"`
	TotalEmissions []CategoryEmission `json:"total_emissions"`
	Information    Information        `json:"information"`
}
