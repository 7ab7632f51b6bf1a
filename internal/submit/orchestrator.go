// Package submit drives the final pipeline stage: null-fill, payload
// submission to the emissions API, response flattening, and
// persistence of inputs and results.
package submit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"dairypipe/internal/cft"
	"dairypipe/internal/correct"
	"dairypipe/internal/logging"
	"dairypipe/internal/recon"
	"dairypipe/internal/record"
	"dairypipe/internal/schema"
	"dairypipe/internal/store"
)

// Outcome summarizes one submitted batch.
type Outcome struct {
	BatchID    string
	Submitted  int
	NewRecords int
	Overwrites int
	Results    []store.ResultRow
}

// Orchestrator submits a fully resolved, fully corrected record set.
// Submission is all-or-nothing on the API side: the first failed call
// aborts the batch before anything is persisted. Persistence runs only
// after every call succeeded; a persistence failure does not roll the
// remote computations back, it is surfaced to the operator.
type Orchestrator struct {
	Client  *cft.Client
	Builder *cft.Builder
	Store   store.Store
	Schema  *schema.Schema

	log *slog.Logger
}

// NewOrchestrator wires the submission stage.
func NewOrchestrator(client *cft.Client, builder *cft.Builder, st store.Store, sch *schema.Schema) *Orchestrator {
	return &Orchestrator{
		Client:  client,
		Builder: builder,
		Store:   st,
		Schema:  sch,
		log:     logging.New("submit"),
	}
}

// Run submits the corrected record set. Both review sessions must be
// complete; the conflict session decides which records count as
// overwrites of stored data.
func (o *Orchestrator) Run(ctx context.Context, resolve *recon.ResolveSession, corrections *correct.Session) (*Outcome, error) {
	if !resolve.Complete() {
		return nil, fmt.Errorf("conflict review incomplete")
	}
	if !corrections.Complete() {
		return nil, fmt.Errorf("error correction incomplete")
	}
	return o.Submit(ctx, corrections.Working(), resolve.OverwriteIDs())
}

// Submit null-fills, submits every record, flattens the responses and
// persists inputs then results.
func (o *Orchestrator) Submit(ctx context.Context, recs []record.Record, overwriteIDs []string) (*Outcome, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("nothing to submit")
	}

	batch := uuid.NewString()
	log := o.log.With("batch", batch)

	recs = record.CloneAll(recs)
	o.fillNumericNulls(recs)

	responses := make([]*cft.Response, 0, len(recs))
	for _, r := range recs {
		payload, err := o.Builder.Build(r)
		if err != nil {
			return nil, err
		}
		resp, err := o.Client.Submit(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("batch aborted: %w", err)
		}
		responses = append(responses, resp)
	}
	log.Info("batch submitted", "records", len(recs))

	rows, err := cft.Flatten(responses)
	if err != nil {
		return nil, err
	}

	overwrite := make(map[string]bool, len(overwriteIDs))
	for _, id := range overwriteIDs {
		overwrite[id] = true
	}
	out := &Outcome{
		BatchID:   batch,
		Submitted: len(recs),
		Results:   rows,
	}
	for _, r := range recs {
		if overwrite[r.SurveyID()] {
			out.Overwrites++
		} else {
			out.NewRecords++
		}
	}

	// Inputs first, then results. The remote computation already
	// happened; a failure here leaves it unrecorded and is reported,
	// not retried.
	if err := o.Store.UpsertInputs(recs); err != nil {
		return out, fmt.Errorf("assessments computed but inputs not persisted: %w", err)
	}
	if err := o.Store.UpsertResults(rows); err != nil {
		return out, fmt.Errorf("assessments computed but results not persisted: %w", err)
	}
	log.Info("batch persisted", "new", out.NewRecords, "overwrites", out.Overwrites)
	return out, nil
}

// fillNumericNulls replaces absent or null numeric metrics with zero.
// The API treats null quantities as errors; a survey leaving a cell
// empty means none of that input.
func (o *Orchestrator) fillNumericNulls(recs []record.Record) {
	for _, r := range recs {
		for _, metric := range o.Schema.NumericMetrics() {
			if record.IsPresent(r[metric]) {
				continue
			}
			entry, _ := o.Schema.Get(metric)
			if entry.Type == schema.Int {
				r[metric] = 0
			} else {
				r[metric] = 0.0
			}
		}
	}
}
