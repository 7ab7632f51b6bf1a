// Package recon reconciles freshly extracted records against the
// stored dataset: exact duplicates are dropped automatically, records
// that share a business key but differ in at least one field become
// conflicts awaiting a human decision.
package recon

import (
	"log/slog"

	"dairypipe/internal/record"
)

// FieldDiff is one differing field between a new and a stored record.
type FieldDiff struct {
	New      any `json:"new"`
	Existing any `json:"existing"`
}

// Candidate is a conflicting record: same survey_id as a stored
// record, at least one differing field.
type Candidate struct {
	SurveyID string
	New      record.Record
	Existing record.Record
	Diff     map[string]FieldDiff
}

// Result is the outcome of deduplicating a batch.
type Result struct {
	// Cleaned is the new-record set with within-batch duplicates and
	// exact store duplicates removed, in upload order.
	Cleaned []record.Record
	// Candidates are conflicts requiring a decision.
	Candidates []Candidate
	// AutoDropped lists survey_ids dropped as exact duplicates.
	AutoDropped []string
	// BatchCollapsed lists survey_ids that appeared more than once in
	// the upload; the first occurrence survives.
	BatchCollapsed []string
}

// Dedupe matches new records against the store snapshot by survey_id
// (farm_id + milk_year; a farm's other years are distinct records,
// never conflicts). Within-batch duplicate keys collapse
// first-seen-wins before the store comparison.
func Dedupe(newRecs, existing []record.Record, log *slog.Logger) *Result {
	stored := make(map[string]record.Record, len(existing))
	for _, r := range existing {
		if id := r.SurveyID(); id != "" {
			stored[id] = r
		}
	}

	res := &Result{}
	seen := make(map[string]bool, len(newRecs))

	for _, r := range newRecs {
		id := r.SurveyID()
		if seen[id] {
			res.BatchCollapsed = append(res.BatchCollapsed, id)
			log.Info("within-batch duplicate collapsed, first upload wins", "survey_id", id)
			continue
		}
		seen[id] = true

		prev, ok := stored[id]
		if !ok {
			res.Cleaned = append(res.Cleaned, r)
			continue
		}

		diff := diffRecords(r, prev)
		if len(diff) == 0 {
			res.AutoDropped = append(res.AutoDropped, id)
			log.Info("exact duplicate of stored record, skipped", "survey_id", id)
			continue
		}

		res.Cleaned = append(res.Cleaned, r)
		res.Candidates = append(res.Candidates, Candidate{
			SurveyID: id,
			New:      r,
			Existing: prev,
			Diff:     diff,
		})
	}

	return res
}

// diffRecords compares the fields the two records share. Null equals
// null; fields carried by only one side (e.g. store bookkeeping
// columns) are ignored.
func diffRecords(new, existing record.Record) map[string]FieldDiff {
	diff := make(map[string]FieldDiff)
	for field, nv := range new {
		ev, ok := existing[field]
		if !ok {
			continue
		}
		if !record.ValueEqual(nv, ev) {
			diff[field] = FieldDiff{New: nv, Existing: ev}
		}
	}
	return diff
}
