package survey

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dairypipe/internal/lookup"
	"dairypipe/internal/record"
	"dairypipe/internal/schema"
	"dairypipe/internal/workbook"
)

// SelectorCells are the fixed configuration cells of the survey
// template that declare how feed amounts were recorded.
type SelectorCells struct {
	FWISelect  string
	DMISelect  string
	PerAnimal  string
	PerHerd    string
	SingleDay  string
	CustomDays string
}

// DefaultSelectorCells matches the current survey template layout.
func DefaultSelectorCells() SelectorCells {
	return SelectorCells{
		FWISelect:  "C61",
		DMISelect:  "D61",
		PerAnimal:  "C64",
		PerHerd:    "D64",
		SingleDay:  "C67",
		CustomDays: "D67",
	}
}

// FieldError is an isolated per-field extraction failure. The field is
// nulled, the survey continues, and the problem resurfaces during
// validation.
type FieldError struct {
	Metric string
	Reason string
}

// Extraction is one successfully extracted survey.
type Extraction struct {
	Workbook    string
	Record      record.Record
	FieldErrors []FieldError
}

// Skipped describes a survey-fatal workbook that was dropped from the
// batch.
type Skipped struct {
	Workbook string
	Reason   string
}

// BatchResult is the outcome of extracting one upload batch.
type BatchResult struct {
	Surveys []Extraction
	Skipped []Skipped
}

// Records returns the extracted canonical records in upload order.
func (b *BatchResult) Records() []record.Record {
	out := make([]record.Record, len(b.Surveys))
	for i, s := range b.Surveys {
		out[i] = s.Record
	}
	return out
}

// Extractor turns workbooks into canonical records.
type Extractor struct {
	Schema *schema.Schema
	Tables *lookup.Tables
	Cells  SelectorCells
	Log    *slog.Logger
}

// NewExtractor builds an Extractor with the default selector cells.
func NewExtractor(s *schema.Schema, t *lookup.Tables, log *slog.Logger) *Extractor {
	return &Extractor{Schema: s, Tables: t, Cells: DefaultSelectorCells(), Log: log}
}

// ExtractBatch processes workbooks in upload order. A survey-fatal
// workbook is recorded under Skipped and the batch continues.
func (e *Extractor) ExtractBatch(books []workbook.Workbook) *BatchResult {
	res := &BatchResult{}
	for _, wb := range books {
		ex, err := e.Extract(wb)
		if err != nil {
			e.Log.Warn("survey skipped", "workbook", wb.Name(), "reason", err.Error())
			res.Skipped = append(res.Skipped, Skipped{Workbook: wb.Name(), Reason: err.Error()})
			continue
		}
		for _, fe := range ex.FieldErrors {
			e.Log.Warn("field extraction failed", "workbook", wb.Name(), "metric", fe.Metric, "reason", fe.Reason)
		}
		res.Surveys = append(res.Surveys, *ex)
	}
	return res
}

// Extract produces one canonical record from a workbook. A non-nil
// error means the survey is structurally unusable and must be skipped;
// per-field problems are returned inside the Extraction instead.
func (e *Extractor) Extract(wb workbook.Workbook) (*Extraction, error) {
	cfg, err := e.resolveFeedConfig(wb)
	if err != nil {
		return nil, err
	}

	// Hard checkpoints: without farm identity there is nothing to key
	// the record on.
	if err := e.requireCell(wb, record.FieldFarmID, "farm name"); err != nil {
		return nil, err
	}
	if err := e.requireCell(wb, record.FieldMilkYear, "milk year"); err != nil {
		return nil, err
	}

	ex := &Extraction{Workbook: wb.Name(), Record: make(record.Record, len(e.Schema.Entries))}

	for _, entry := range e.Schema.Entries {
		value, ferr, fatal := e.extractField(wb, entry, cfg, ex.Record)
		if fatal != nil {
			return nil, fatal
		}
		if ferr != nil {
			ex.FieldErrors = append(ex.FieldErrors, *ferr)
			value = nil
		}
		ex.Record[entry.Metric] = value
	}

	farmID, _ := ex.Record[record.FieldFarmID].(string)
	milkYear, yearOK := record.AsInt(ex.Record[record.FieldMilkYear])
	if farmID == "" || !yearOK {
		return nil, fmt.Errorf("%w: cannot derive survey_id (farm_id=%q, milk_year=%v)",
			ErrSurveyFatal, farmID, ex.Record[record.FieldMilkYear])
	}
	ex.Record[record.FieldSurveyID] = record.Key(farmID, milkYear)

	return ex, nil
}

// extractField reads, casts and translates one metric. It returns the
// final value, a field-level error, or a survey-fatal error.
func (e *Extractor) extractField(wb workbook.Workbook, entry schema.Entry, cfg FeedConfig, rec record.Record) (any, *FieldError, error) {
	raw, err := wb.Cell(entry.Cell)
	if err != nil {
		return nil, &FieldError{Metric: entry.Metric, Reason: err.Error()}, nil
	}

	value, err := Cast(raw, entry.Type, entry.Default)
	if err != nil {
		return nil, &FieldError{Metric: entry.Metric, Reason: err.Error()}, nil
	}

	switch {
	case strings.HasSuffix(entry.Metric, "main_breed_variety"):
		if s, ok := value.(string); ok && strings.EqualFold(s, "hf") {
			value = "Holstein"
		}
	case strings.HasSuffix(entry.Metric, "grazing_quality"):
		if s, ok := value.(string); ok && record.IsPresent(s) {
			if mapped, ok := grazingQuality[Slugify(s)]; ok {
				value = mapped
			}
		}
	case strings.HasPrefix(entry.Metric, "feed."):
		value, err = NormalizeFeedValue(value, entry.Metric, e.Tables, rec, cfg)
		if err != nil {
			if isFatal(err) {
				return nil, nil, err
			}
			return nil, &FieldError{Metric: entry.Metric, Reason: err.Error()}, nil
		}
	case entry.Metric == record.FieldFarmID:
		if s, ok := value.(string); ok && record.IsPresent(s) {
			value = Slugify(s)
		}
	case entry.Metric == "bedding.type":
		if s, ok := value.(string); ok && record.IsPresent(s) {
			if mapped, ok := beddingTypes[Slugify(s)]; ok {
				value = mapped
			}
		}
	}

	return value, nil, nil
}

// resolveFeedConfig reads the three selector groups. Each group is
// survey-fatal when both options are ticked or neither is.
func (e *Extractor) resolveFeedConfig(wb workbook.Workbook) (FeedConfig, error) {
	var cfg FeedConfig

	fwi, err := e.hasValue(wb, e.Cells.FWISelect)
	if err != nil {
		return cfg, err
	}
	dmi, err := e.hasValue(wb, e.Cells.DMISelect)
	if err != nil {
		return cfg, err
	}
	switch {
	case fwi && dmi:
		return cfg, fmt.Errorf("%w: both DMI and FWI selected", ErrSurveyFatal)
	case !fwi && !dmi:
		return cfg, fmt.Errorf("%w: no feed unit selected (DMI/FWI)", ErrSurveyFatal)
	}
	cfg.ConvertFWI = fwi

	animal, err := e.hasValue(wb, e.Cells.PerAnimal)
	if err != nil {
		return cfg, err
	}
	herd, err := e.hasValue(wb, e.Cells.PerHerd)
	if err != nil {
		return cfg, err
	}
	switch {
	case animal && herd:
		return cfg, fmt.Errorf("%w: both per-animal and per-herd feed selected", ErrSurveyFatal)
	case !animal && !herd:
		return cfg, fmt.Errorf("%w: missing animal/herd feed selection", ErrSurveyFatal)
	}
	cfg.PerHerd = herd

	single, err := e.hasValue(wb, e.Cells.SingleDay)
	if err != nil {
		return cfg, err
	}
	custom, err := e.hasValue(wb, e.Cells.CustomDays)
	if err != nil {
		return cfg, err
	}
	switch {
	case single && custom:
		return cfg, fmt.Errorf("%w: both single-day and multi-day feeding selected", ErrSurveyFatal)
	case !single && !custom:
		return cfg, fmt.Errorf("%w: missing feeding period selection", ErrSurveyFatal)
	case single:
		cfg.MultidayDivisor = 1
	default:
		raw, err := wb.Cell(e.Cells.CustomDays)
		if err != nil {
			return cfg, fmt.Errorf("%w: read feeding period: %v", ErrSurveyFatal, err)
		}
		days, ok := record.AsInt(raw)
		if !ok || days < 1 {
			return cfg, fmt.Errorf("%w: feeding period must be a positive whole number of days, got %v", ErrSurveyFatal, raw)
		}
		cfg.MultidayDivisor = days
	}

	return cfg, nil
}

// requireCell enforces a hard identity checkpoint.
func (e *Extractor) requireCell(wb workbook.Workbook, metric, label string) error {
	entry, ok := e.Schema.Get(metric)
	if !ok {
		return fmt.Errorf("%w: schema does not map %s", ErrSurveyFatal, metric)
	}
	present, err := e.hasValue(wb, entry.Cell)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: missing %s (%s)", ErrSurveyFatal, label, entry.Cell)
	}
	return nil
}

func (e *Extractor) hasValue(wb workbook.Workbook, ref string) (bool, error) {
	v, err := wb.Cell(ref)
	if err != nil {
		return false, fmt.Errorf("%w: read cell %s: %v", ErrSurveyFatal, ref, err)
	}
	return record.IsPresent(v), nil
}

func isFatal(err error) bool {
	return errors.Is(err, ErrSurveyFatal)
}

// grazingQuality translates free-text survey entries (matched by slug)
// to the canonical quality levels.
var grazingQuality = map[string]string{
	"wysoka": "HIGH",
	"niska":  "LOW",
	"high":   "HIGH",
	"low":    "LOW",
}

// beddingTypes translates free-text bedding entries (matched by slug)
// to canonical keys. Unmatched slugs pass through unchanged.
var beddingTypes = map[string]string{
	"sloma":       "straw",
	"soma":        "straw",
	"piasek":      "sand",
	"gazeta":      "newspaper",
	"trockenmist": "sawdust",
	"trociny":     "sawdust",
	"inne":        "newspaper",
}
