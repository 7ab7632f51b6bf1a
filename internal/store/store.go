// Package store persists survey inputs and flattened emissions
// results. The pipeline and CLI use only the Store interface; the
// implementation is SQLite or in-memory.
package store

import "dairypipe/internal/record"

// DefaultDBPath is the default relative path for the SQLite DB.
// Open() creates the parent dir (.dairypipe) if it does not exist.
const DefaultDBPath = ".dairypipe/dairypipe.db"

// ResultRow is one flattened emissions result, keyed by survey_id.
// Category columns vary per response, so rows stay schemaless maps.
type ResultRow map[string]any

// SurveyID returns the row's business key.
func (r ResultRow) SurveyID() string {
	id, _ := r["survey_id"].(string)
	return id
}

// Store is the persistence facade for inputs and results. Upserts are
// idempotent per survey_id; inputs and results are written in separate
// calls with no cross-table transaction.
type Store interface {
	// Inputs returns all stored survey records.
	Inputs() ([]record.Record, error)
	// GetInput returns the record for a survey_id, nil when absent.
	GetInput(surveyID string) (record.Record, error)
	// UpsertInputs inserts or replaces records by survey_id.
	UpsertInputs(recs []record.Record) error
	// DeleteInput removes a record by survey_id.
	DeleteInput(surveyID string) error

	// Results returns all stored flattened emissions rows.
	Results() ([]ResultRow, error)
	// UpsertResults inserts or replaces result rows by survey_id.
	UpsertResults(rows []ResultRow) error

	Close() error
}
