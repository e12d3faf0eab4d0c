// Package audit verifies exported auction data offline: it recomputes the
// fingerprints of ledger rows and winner decisions and checks the structural
// invariants the engine guarantees, so an auditor can validate a lot's
// history without trusting the server that served it.
package audit

import (
	"fmt"

	"github.com/openlot-io/openlot/core"
	"github.com/openlot-io/openlot/engineapi"
)

// Input is the exported material under audit: a lot's bid history as served
// by the API, optionally with the finalize outcome and its fingerprint.
type Input struct {
	History            []engineapi.BidHistoryEntry `json:"history"`
	Outcome            *core.Outcome               `json:"outcome,omitempty"`
	OutcomeFingerprint string                      `json:"outcome_fingerprint,omitempty"`
}

// Report is the verification result. Details carries one line per failed
// check, suitable for direct display.
type Report struct {
	SequenceValid     bool `json:"sequence_valid"`
	FingerprintsValid bool `json:"fingerprints_valid"`
	PlacedValid       bool `json:"placed_valid"`
	LineageValid      bool `json:"lineage_valid"`
	OutcomeValid      bool `json:"outcome_valid"`

	Details []string `json:"details"`
}

func (r *Report) IsValid() bool {
	return r.SequenceValid && r.FingerprintsValid && r.PlacedValid &&
		r.LineageValid && r.OutcomeValid
}

func (r *Report) fail(field *bool, format string, args ...any) {
	*field = false
	r.Details = append(r.Details, fmt.Sprintf(format, args...))
}

// Verify runs every check against the input and returns the full report; it
// does not stop at the first failure.
func Verify(in Input) *Report {
	r := &Report{
		SequenceValid:     true,
		FingerprintsValid: true,
		PlacedValid:       true,
		LineageValid:      true,
		OutcomeValid:      true,
		Details:           []string{},
	}

	verifyRows(r, in.History)
	verifyOutcome(r, in)
	return r
}

func verifyRows(r *Report, history []engineapi.BidHistoryEntry) {
	byID := make(map[string]*engineapi.BidHistoryEntry, len(history))
	placed := 0
	var lastSeq int64

	for i := range history {
		e := &history[i]
		byID[e.ID.String()] = e

		if e.SequenceNumber <= lastSeq {
			r.fail(&r.SequenceValid, "row %s: sequence %d does not increase past %d",
				e.ID, e.SequenceNumber, lastSeq)
		}
		lastSeq = e.SequenceNumber

		row := core.Bid{ID: e.ID, Amount: e.Amount, SequenceNumber: e.SequenceNumber}
		if got := core.ComputeBidFingerprint(&row); got != e.Fingerprint {
			r.fail(&r.FingerprintsValid, "row %s: fingerprint mismatch", e.ID)
		}

		if e.Status == core.BidStatusPlaced {
			placed++
		}
	}

	if placed > 1 {
		r.fail(&r.PlacedValid, "%d rows marked placed, expected at most one", placed)
	}

	// Every auto-generated counter must trace back to a proxy row that
	// precedes it.
	for i := range history {
		e := &history[i]
		if e.Kind != core.BidKindAutoGenerated {
			continue
		}
		if e.ParentBidID == nil {
			r.fail(&r.LineageValid, "row %s: auto-generated without parent", e.ID)
			continue
		}
		parent, ok := byID[e.ParentBidID.String()]
		switch {
		case !ok:
			r.fail(&r.LineageValid, "row %s: parent %s not in history", e.ID, e.ParentBidID)
		case parent.Kind != core.BidKindProxy:
			r.fail(&r.LineageValid, "row %s: parent %s is %s, not a proxy", e.ID, parent.ID, parent.Kind)
		case parent.SequenceNumber >= e.SequenceNumber:
			r.fail(&r.LineageValid, "row %s: parent %s does not precede it", e.ID, parent.ID)
		}
	}
}

func verifyOutcome(r *Report, in Input) {
	if in.Outcome == nil {
		return
	}
	if in.OutcomeFingerprint == "" {
		r.fail(&r.OutcomeValid, "outcome present but no fingerprint to verify")
		return
	}
	if got := core.ComputeOutcomeFingerprint(in.Outcome); got != in.OutcomeFingerprint {
		r.fail(&r.OutcomeValid, "outcome fingerprint mismatch for lot %s", in.Outcome.LotID)
	}
	if in.Outcome.Sold && in.Outcome.WinningBid == nil {
		r.fail(&r.OutcomeValid, "outcome sold without a winning bid")
	}
}
