package core

import (
	"crypto/sha256"
	"fmt"
)

// ComputeBidFingerprint computes the audit fingerprint for a ledger row.
// History consumers verify it to detect tampering with persisted bid records.
//
// Formula: SHA256(bid_id + "|" + amount + "|" + sequence_number)
//
// The amount is rendered through decimal's canonical string form so the hash
// is stable regardless of in-memory representation.
func ComputeBidFingerprint(b *Bid) string {
	data := fmt.Sprintf("%s|%s|%d", b.ID, b.Amount.StringFixed(monetaryPrecision), b.SequenceNumber)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeOutcomeFingerprint computes the audit fingerprint for a winner
// decision, committed alongside the finalize event.
//
// Formula: SHA256(lot_id + "|" + amount + "|" + sold + "|" + winning_bid_id)
func ComputeOutcomeFingerprint(o *Outcome) string {
	winningID := "none"
	if o.WinningBid != nil {
		winningID = o.WinningBid.ID.String()
	}
	data := fmt.Sprintf("%s|%s|%t|%s", o.LotID, o.Amount.StringFixed(monetaryPrecision), o.Sold, winningID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
