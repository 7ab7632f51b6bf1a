// Package schema loads the survey mapping schema: which workbook cell
// feeds which canonical metric, the declared type, and an optional
// default. The mapping lives in a CSV file maintained alongside the
// survey template and is loaded once per batch.
package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// FieldType is the declared type of a metric.
type FieldType string

const (
	Int    FieldType = "int"
	Float  FieldType = "float"
	String FieldType = "string"
)

// Entry maps one canonical metric to its source cell.
type Entry struct {
	Metric  string
	Cell    string
	Type    FieldType
	Default string // raw default, empty means none
}

// Schema is the ordered list of entries plus a by-metric index.
type Schema struct {
	Entries []Entry

	byMetric map[string]Entry
}

// Load reads the mapping CSV from path. Expected header:
// metric,survey_mapping,types,default_value (default column optional).
func Load(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads mapping CSV from r.
func Parse(r io.Reader) (*Schema, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read schema header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"metric", "survey_mapping", "types"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("schema header missing column %q", required)
		}
	}

	s := &Schema{byMetric: make(map[string]Entry)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read schema line %d: %w", line, err)
		}
		e := Entry{
			Metric: strings.TrimSpace(rec[col["metric"]]),
			Cell:   strings.TrimSpace(rec[col["survey_mapping"]]),
			Type:   FieldType(strings.TrimSpace(rec[col["types"]])),
		}
		if i, ok := col["default_value"]; ok && i < len(rec) {
			e.Default = strings.TrimSpace(rec[i])
		}
		if e.Metric == "" {
			continue
		}
		switch e.Type {
		case Int, Float, String:
		default:
			return nil, fmt.Errorf("schema line %d: unknown type %q for metric %s", line, e.Type, e.Metric)
		}
		if e.Cell == "" {
			return nil, fmt.Errorf("schema line %d: metric %s has no source cell", line, e.Metric)
		}
		if _, dup := s.byMetric[e.Metric]; dup {
			return nil, fmt.Errorf("schema line %d: duplicate metric %s", line, e.Metric)
		}
		s.Entries = append(s.Entries, e)
		s.byMetric[e.Metric] = e
	}
	return s, nil
}

// Get returns the entry for a metric.
func (s *Schema) Get(metric string) (Entry, bool) {
	e, ok := s.byMetric[metric]
	return e, ok
}

// NumericMetrics returns the metrics declared int or float, used for
// the pre-submission null-to-zero fill.
func (s *Schema) NumericMetrics() []string {
	var out []string
	for _, e := range s.Entries {
		if e.Type == Int || e.Type == Float {
			out = append(out, e.Metric)
		}
	}
	return out
}
