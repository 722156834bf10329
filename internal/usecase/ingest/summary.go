package ingest

import (
	"time"

	"itnews-radar/internal/domain/entity"
)

// Outcome is what happened to one record of a batch.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeRejected  Outcome = "rejected"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult reports the handling of one record.
type ItemResult struct {
	ID        string
	Outcome   Outcome
	Breakdown entity.ScoreBreakdown
	// Replaced is set when an accepted record superseded a lower stored version.
	Replaced bool
	// Err is set for invalid and failed records.
	Err error
}

// Admitted reports whether the record passed the relevance gate.
func (r ItemResult) Admitted() bool {
	return r.Outcome == OutcomeAccepted || r.Outcome == OutcomeDuplicate
}

// BatchSummary counts the outcomes of one batch. Every received record lands
// in exactly one of Accepted, Rejected, Invalid, Duplicates or Failed.
type BatchSummary struct {
	Source        string
	Threshold     float64
	TotalReceived int
	Accepted      int
	Rejected      int
	Invalid       int
	// Duplicates are admitted records whose stored version was equal or newer.
	Duplicates int
	// Replaced is the subset of Accepted that overwrote a lower version.
	Replaced      int
	Failed        int
	ScoringErrors int
	Errors        []string
	Items         []ItemResult
	Duration      time.Duration
}

func (b *BatchSummary) add(r ItemResult) {
	b.Items = append(b.Items, r)
	switch r.Outcome {
	case OutcomeAccepted:
		b.Accepted++
		if r.Replaced {
			b.Replaced++
		}
	case OutcomeRejected:
		b.Rejected++
	case OutcomeInvalid:
		b.Invalid++
	case OutcomeDuplicate:
		b.Duplicates++
	case OutcomeFailed:
		b.Failed++
	}
	if r.Err != nil {
		id := r.ID
		if id == "" {
			id = "<missing id>"
		}
		b.Errors = append(b.Errors, id+": "+r.Err.Error())
	}
}
