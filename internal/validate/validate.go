package validate

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"dairypipe/internal/record"
)

// FieldIssue captures the violations on one field at detection time.
type FieldIssue struct {
	Current  any
	Messages []string
	Rule     Rule
}

// Entry is the error report for one record. The snapshot freezes the
// record as it looked when validated; corrections apply to the working
// set, keyed by SurveyID, not to this copy.
type Entry struct {
	SurveyID string
	Snapshot record.Record
	Fields   map[string]FieldIssue
}

// Report lists the invalid records in input order. Clean records are
// omitted entirely.
type Report []Entry

// Records validates every record against the rule set.
func Records(recs []record.Record, rules RuleSet) Report {
	var report Report
	for _, r := range recs {
		fields := make(map[string]FieldIssue)
		for field, rule := range rules {
			value, ok := r[field]
			if !ok {
				continue
			}
			msgs := Value(value, rule)
			if len(msgs) > 0 {
				fields[field] = FieldIssue{Current: value, Messages: msgs, Rule: rule}
			}
		}
		if len(fields) > 0 {
			report = append(report, Entry{
				SurveyID: r.SurveyID(),
				Snapshot: r.Clone(),
				Fields:   fields,
			})
		}
	}
	return report
}

// Value checks one value against one rule. A required empty value
// short-circuits to a single "required" violation; an optional empty
// value is always clean. Otherwise violations accumulate.
func Value(value any, rule Rule) []string {
	if !record.IsPresent(value) {
		if rule.Required {
			return []string{"required field is empty"}
		}
		return nil
	}

	var errs []string
	switch rule.Type {
	case Numeric:
		num, ok := record.AsFloat(value)
		if !ok {
			return []string{fmt.Sprintf("must be a number, got %q", fmt.Sprintf("%v", value))}
		}
		errs = append(errs, checkBounds(num, rule)...)

	case Integer:
		num, ok := record.AsFloat(value)
		if !ok {
			return []string{fmt.Sprintf("must be an integer, got %q", fmt.Sprintf("%v", value))}
		}
		if num != math.Trunc(num) {
			errs = append(errs, fmt.Sprintf("must be a whole number, got %v", value))
		}
		errs = append(errs, checkBounds(num, rule)...)

	case String:
		s := fmt.Sprintf("%v", value)
		if rule.MinLength != nil && len(s) < *rule.MinLength {
			errs = append(errs, fmt.Sprintf("text too short (min %d chars)", *rule.MinLength))
		}
		if rule.MaxLength != nil && len(s) > *rule.MaxLength {
			errs = append(errs, fmt.Sprintf("text too long (max %d chars)", *rule.MaxLength))
		}

	case Categorical:
		s := fmt.Sprintf("%v", value)
		if !slices.Contains(rule.AllowedValues, s) {
			errs = append(errs, "must be one of: "+strings.Join(rule.AllowedValues, ", "))
		}
	}
	return errs
}

func checkBounds(num float64, rule Rule) []string {
	var errs []string
	if rule.Min != nil && num < *rule.Min {
		errs = append(errs, fmt.Sprintf("value %v is below minimum %v", num, *rule.Min))
	}
	if rule.Max != nil && num > *rule.Max {
		errs = append(errs, fmt.Sprintf("value %v exceeds maximum %v", num, *rule.Max))
	}
	return errs
}
