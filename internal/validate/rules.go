// Package validate applies declarative field rules to the resolved
// record set and produces the error report consumed by the correction
// session.
package validate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dairypipe/internal/lookup"
)

// RuleType is the value category a rule checks.
type RuleType string

const (
	Numeric     RuleType = "numeric"
	Integer     RuleType = "integer"
	String      RuleType = "string"
	Categorical RuleType = "categorical"
)

// Rule is the declarative validation for one field. Bounds are
// pointers so an absent bound is distinguishable from zero.
type Rule struct {
	Type     RuleType `yaml:"type"`
	Required bool     `yaml:"required"`

	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	MinLength *int `yaml:"min_length,omitempty"`
	MaxLength *int `yaml:"max_length,omitempty"`

	AllowedValues []string `yaml:"allowed_values,omitempty"`
}

// RuleSet maps field name to its rule.
type RuleSet map[string]Rule

// LoadRules reads a rule set from a YAML file.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses rule-set YAML.
func ParseRules(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	for field, r := range rs {
		switch r.Type {
		case Numeric, Integer, String, Categorical:
		default:
			return nil, fmt.Errorf("rule for %q: unknown type %q", field, r.Type)
		}
		if r.Type == Categorical && len(r.AllowedValues) == 0 {
			return nil, fmt.Errorf("rule for %q: categorical rule needs allowed_values", field)
		}
	}
	return rs, nil
}

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

// DefaultRules returns the built-in rule set. The breed list comes
// from the herd variety lookup so the survey template and validation
// cannot drift apart.
func DefaultRules(tables *lookup.Tables) RuleSet {
	return RuleSet{
		"farm_id": {
			Type:      String,
			Required:  true,
			MinLength: iptr(4),
			MaxLength: iptr(100),
		},
		"milk_year": {
			Type:     Integer,
			Required: true,
			Min:      fptr(2000),
			Max:      fptr(2100),
		},
		"main_breed_variety": {
			Type:          Categorical,
			Required:      true,
			AllowedValues: tables.VarietyNames(),
		},
		"bedding.type": {
			Type:          Categorical,
			AllowedValues: []string{"straw", "sand", "newspaper", "sawdust"},
		},
		"milk_fat_content_percent": {
			Type: Numeric,
			Min:  fptr(0),
			Max:  fptr(15),
		},
		"milk_protein_content_percent": {
			Type: Numeric,
			Min:  fptr(0),
			Max:  fptr(10),
		},
		"total_milk_production_litres": {
			Type: Numeric,
			Min:  fptr(0),
		},
	}
}
