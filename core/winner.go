package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DetermineWinner produces the one-shot winner decision for a finalizing lot.
//
// The winner is the currently placed bid; the lot sells when the settled
// price meets the reserve (or no reserve is set). Otherwise the lot is
// unsold with the reserve reason, and the ranked bid list remains available
// for a second-chance offer to the next-highest bidder.
func DetermineWinner(lotID uuid.UUID, bids []Bid, currentPrice, reservePrice decimal.Decimal) Outcome {
	placed := PlacedBid(bids)
	if placed == nil {
		return Outcome{
			LotID:        lotID,
			Sold:         false,
			Amount:       currentPrice,
			UnsoldReason: UnsoldReasonNoBids,
		}
	}

	reserveMet := MeetsReserve(currentPrice, reservePrice)
	if !reserveMet {
		return Outcome{
			LotID:        lotID,
			Sold:         false,
			WinningBid:   placed,
			Amount:       currentPrice,
			ReserveMet:   false,
			UnsoldReason: UnsoldReasonReserveNotMet,
		}
	}

	return Outcome{
		LotID:      lotID,
		Sold:       true,
		WinningBid: placed,
		Amount:     currentPrice,
		ReserveMet: true,
	}
}

// CancelledOutcome is the forced decision for a lot interrupted by an
// auction-level cancel.
func CancelledOutcome(lotID uuid.UUID, currentPrice decimal.Decimal) Outcome {
	return Outcome{
		LotID:        lotID,
		Sold:         false,
		Amount:       currentPrice,
		UnsoldReason: UnsoldReasonAuctionCancelled,
	}
}
