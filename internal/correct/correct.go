// Package correct implements the human-in-the-loop repair of
// validation errors. The session walks the error report one record at
// a time and applies typed replacement values to a working copy of the
// record set, keyed by survey_id — never by row position, which is
// unstable under corrections.
package correct

import (
	"fmt"

	"dairypipe/internal/record"
	"dairypipe/internal/session"
	"dairypipe/internal/validate"
)

// Session pages through a validation report and mutates a working
// record set. Completion means every entry was reviewed; whether the
// corrected values are re-validated is the caller's policy (the upload
// flow re-runs validation until the report is empty).
type Session struct {
	*session.Pager[validate.Entry]

	report   validate.Report
	original []record.Record
	working  []record.Record
	byID     map[string]int // survey_id -> index into working
}

// NewSession starts a correction session over the report and record set.
func NewSession(report validate.Report, recs []record.Record) (*Session, error) {
	s := &Session{
		Pager:    session.NewPager(report),
		report:   report,
		original: record.CloneAll(recs),
		working:  record.CloneAll(recs),
	}
	if err := s.reindex(); err != nil {
		return nil, err
	}
	for _, e := range report {
		if _, ok := s.byID[e.SurveyID]; !ok {
			return nil, fmt.Errorf("error report references unknown record %s", e.SurveyID)
		}
	}
	return s, nil
}

func (s *Session) reindex() error {
	s.byID = make(map[string]int, len(s.working))
	for i, r := range s.working {
		id := r.SurveyID()
		if id == "" {
			return fmt.Errorf("record %d has no survey_id", i)
		}
		if _, dup := s.byID[id]; dup {
			return fmt.Errorf("duplicate survey_id %s in working set", id)
		}
		s.byID[id] = i
	}
	return nil
}

// Apply commits the corrections for the current entry into the working
// set and advances to the next entry. Every corrected field must be
// one of the entry's failing fields; a correction replaces the value,
// it never clears the error by omission.
func (s *Session) Apply(corrections map[string]any) error {
	entry, ok := s.Current()
	if !ok {
		return fmt.Errorf("no entry under review")
	}
	idx, ok := s.byID[entry.SurveyID]
	if !ok {
		return fmt.Errorf("record %s not in working set", entry.SurveyID)
	}
	for field := range corrections {
		if _, ok := entry.Fields[field]; !ok {
			return fmt.Errorf("field %s is not part of the report for %s", field, entry.SurveyID)
		}
	}
	for field, value := range corrections {
		s.working[idx][field] = value
	}
	s.Advance()
	return nil
}

// ResetAll discards every correction and restarts review at the first
// entry against the pristine record set.
func (s *Session) ResetAll() {
	s.working = record.CloneAll(s.original)
	_ = s.reindex()
	s.Reset()
}

// Working returns the record set with all committed corrections.
func (s *Session) Working() []record.Record {
	return record.CloneAll(s.working)
}
