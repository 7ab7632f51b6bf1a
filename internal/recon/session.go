package recon

import (
	"fmt"
	"sort"

	"dairypipe/internal/record"
	"dairypipe/internal/session"
)

// Decision is the reviewer's choice for one conflicting record.
type Decision string

const (
	// Overwrite replaces the stored record with the new upload.
	Overwrite Decision = "overwrite"
	// Drop keeps the stored record and discards the new upload.
	Drop Decision = "drop"
)

// ResolveSession walks conflict candidates one at a time and records a
// per-key decision. The session owns a working copy of the cleaned
// record set; nothing leaks into ambient state. Validation may only
// start once Complete reports true.
type ResolveSession struct {
	*session.Pager[Candidate]

	original   []record.Record
	working    []record.Record
	decisions  map[string]Decision
	candidates map[string]Candidate
}

// NewResolveSession starts a session over the dedup result.
func NewResolveSession(res *Result) *ResolveSession {
	byID := make(map[string]Candidate, len(res.Candidates))
	for _, c := range res.Candidates {
		byID[c.SurveyID] = c
	}
	return &ResolveSession{
		Pager:      session.NewPager(res.Candidates),
		original:   record.CloneAll(res.Cleaned),
		working:    record.CloneAll(res.Cleaned),
		decisions:  make(map[string]Decision, len(res.Candidates)),
		candidates: byID,
	}
}

// Decide records the decision for a candidate key. A drop removes the
// record from the working set immediately; changing an earlier drop to
// an overwrite restores it.
func (s *ResolveSession) Decide(surveyID string, d Decision) error {
	if _, ok := s.candidates[surveyID]; !ok {
		return fmt.Errorf("no conflict recorded for %s", surveyID)
	}
	if d != Overwrite && d != Drop {
		return fmt.Errorf("unknown decision %q", d)
	}
	prev, had := s.decisions[surveyID]
	s.decisions[surveyID] = d
	if d == Drop {
		s.working = removeByID(s.working, surveyID)
	} else if had && prev == Drop {
		s.rebuildWorking()
	}
	return nil
}

// Undo revokes the decision for a key. If the decision was a drop, the
// working set is rebuilt so the record reappears without resurrecting
// any record that should stay dropped.
func (s *ResolveSession) Undo(surveyID string) error {
	d, ok := s.decisions[surveyID]
	if !ok {
		return fmt.Errorf("no decision recorded for %s", surveyID)
	}
	delete(s.decisions, surveyID)
	if d == Drop {
		s.rebuildWorking()
	}
	return nil
}

// rebuildWorking restores the original cleaned set and reapplies every
// surviving drop.
func (s *ResolveSession) rebuildWorking() {
	s.working = record.CloneAll(s.original)
	for id, d := range s.decisions {
		if d == Drop {
			s.working = removeByID(s.working, id)
		}
	}
}

// Decision returns the recorded decision for a key, if any.
func (s *ResolveSession) Decision(surveyID string) (Decision, bool) {
	d, ok := s.decisions[surveyID]
	return d, ok
}

// Complete reports whether every candidate has a decision.
func (s *ResolveSession) Complete() bool {
	return len(s.decisions) == len(s.candidates)
}

// Working returns the current working record set in upload order.
func (s *ResolveSession) Working() []record.Record {
	return record.CloneAll(s.working)
}

// OverwriteIDs returns the keys decided as overwrite, sorted for
// stable output.
func (s *ResolveSession) OverwriteIDs() []string {
	var out []string
	for id, d := range s.decisions {
		if d == Overwrite {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Counts returns how many decisions were overwrite and drop.
func (s *ResolveSession) Counts() (overwrites, drops int) {
	for _, d := range s.decisions {
		if d == Overwrite {
			overwrites++
		} else {
			drops++
		}
	}
	return
}

// ResetAll clears every decision and restores the working set.
func (s *ResolveSession) ResetAll() {
	s.decisions = make(map[string]Decision, len(s.candidates))
	s.working = record.CloneAll(s.original)
	s.Pager.Reset()
}

func removeByID(recs []record.Record, surveyID string) []record.Record {
	out := recs[:0]
	for _, r := range recs {
		if r.SurveyID() != surveyID {
			out = append(out, r)
		}
	}
	return out
}
