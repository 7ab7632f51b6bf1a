// Package record defines the canonical survey record: a flat mapping
// from metric name to a typed value. Records are produced by the
// extractor, reconciled against the store by survey_id, corrected
// field-by-field during review, and frozen once submission begins.
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Well-known metric names every record must carry after extraction.
const (
	FieldFarmID   = "farm_id"
	FieldMilkYear = "milk_year"
	FieldSurveyID = "survey_id"
)

// Record is one canonical survey: metric name -> typed value or nil.
type Record map[string]any

// Key builds the business key for a farm and milk year.
func Key(farmID string, milkYear int) string {
	return fmt.Sprintf("%s_%d", strings.TrimSpace(farmID), milkYear)
}

// SurveyID returns the record's business key, deriving it from
// farm_id and milk_year when the survey_id field is absent.
func (r Record) SurveyID() string {
	if id, ok := r[FieldSurveyID].(string); ok && id != "" {
		return id
	}
	farm, _ := r[FieldFarmID].(string)
	year, ok := AsInt(r[FieldMilkYear])
	if farm == "" || !ok {
		return ""
	}
	return Key(farm, year)
}

// Clone returns a shallow copy. Values are scalars, so a shallow copy
// is a safe working copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CloneAll copies a slice of records.
func CloneAll(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}

// IsPresent reports whether a raw value carries information.
// Nil, empty or all-whitespace strings, and NaN floats do not.
// This is the single presence predicate used across the pipeline.
func IsPresent(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case float64:
		return !math.IsNaN(t)
	case float32:
		return !math.IsNaN(float64(t))
	default:
		return true
	}
}

// AsFloat coerces a scalar to float64. Strings are trimmed and parsed.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsInt coerces a scalar to int. Floats must have no fractional part.
func AsInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

// ValueEqual compares two field values, treating two absent values as
// equal and numeric values by magnitude regardless of Go type (a record
// read back from the store may carry float64 where the extractor
// produced int).
func ValueEqual(a, b any) bool {
	aPresent, bPresent := IsPresent(a), IsPresent(b)
	if !aPresent && !bPresent {
		return true
	}
	if aPresent != bPresent {
		return false
	}
	af, aNum := AsFloat(a)
	bf, bNum := AsFloat(b)
	if aNum && bNum {
		_, aStr := a.(string)
		_, bStr := b.(string)
		// "3.5" and 3.5 are different values; only compare numerically
		// when both sides are numbers.
		if !aStr && !bStr {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
