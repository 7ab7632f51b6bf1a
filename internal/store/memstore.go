package store

import (
	"errors"
	"sort"

	"dairypipe/internal/record"
)

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	inputs  map[string]record.Record
	results map[string]ResultRow
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		inputs:  make(map[string]record.Record),
		results: make(map[string]ResultRow),
	}
}

func (m *MemStore) Inputs() ([]record.Record, error) {
	ids := make([]string, 0, len(m.inputs))
	for id := range m.inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.inputs[id].Clone())
	}
	return out, nil
}

func (m *MemStore) GetInput(surveyID string) (record.Record, error) {
	r, ok := m.inputs[surveyID]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (m *MemStore) UpsertInputs(recs []record.Record) error {
	for _, r := range recs {
		id := r.SurveyID()
		if id == "" {
			return errors.New("upsert inputs: record without survey_id")
		}
		m.inputs[id] = r.Clone()
	}
	return nil
}

func (m *MemStore) DeleteInput(surveyID string) error {
	delete(m.inputs, surveyID)
	return nil
}

func (m *MemStore) Results() ([]ResultRow, error) {
	ids := make([]string, 0, len(m.results))
	for id := range m.results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]ResultRow, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.results[id])
	}
	return out, nil
}

func (m *MemStore) UpsertResults(rows []ResultRow) error {
	for _, row := range rows {
		id := row.SurveyID()
		if id == "" {
			return errors.New("upsert results: row without survey_id")
		}
		m.results[id] = row
	}
	return nil
}

func (m *MemStore) Close() error { return nil }
