package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestAdmitBid_LiveBid(t *testing.T) {
	base := AdmissionInput{
		Condition:    LotLiveAuction,
		CurrentPrice: d(5000),
		MinIncrement: d(100),
		Kind:         BidKindLive,
	}

	tests := []struct {
		name   string
		mutate func(*AdmissionInput)
		want   Decision
	}{
		{
			name:   "meets increment",
			mutate: func(in *AdmissionInput) { in.Amount = d(5100) },
			want:   Decision{Accepted: true},
		},
		{
			name:   "exceeds increment",
			mutate: func(in *AdmissionInput) { in.Amount = d(6000) },
			want:   Decision{Accepted: true},
		},
		{
			name:   "below increment",
			mutate: func(in *AdmissionInput) { in.Amount = d(5050) },
			want:   Decision{Reason: RejectBelowIncrement},
		},
		{
			name:   "equal to current price",
			mutate: func(in *AdmissionInput) { in.Amount = d(5000) },
			want:   Decision{Reason: RejectBelowIncrement},
		},
		{
			name:   "zero amount",
			mutate: func(in *AdmissionInput) { in.Amount = decimal.Zero },
			want:   Decision{Reason: RejectInvalidAmount},
		},
		{
			name: "lot not live",
			mutate: func(in *AdmissionInput) {
				in.Amount = d(5100)
				in.Condition = LotReadyForAuction
			},
			want: Decision{Reason: RejectLotNotBiddable},
		},
		{
			name: "lot already sold",
			mutate: func(in *AdmissionInput) {
				in.Amount = d(5100)
				in.Condition = LotSold
			},
			want: Decision{Reason: RejectLotNotBiddable},
		},
		{
			name: "pre-bid gate without pre-bid",
			mutate: func(in *AdmissionInput) {
				in.Amount = d(5100)
				in.RequirePreBid = true
			},
			want: Decision{Reason: RejectPreBidRequired},
		},
		{
			name: "pre-bid gate satisfied",
			mutate: func(in *AdmissionInput) {
				in.Amount = d(5100)
				in.RequirePreBid = true
				in.BidderHasPreBid = true
			},
			want: Decision{Accepted: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			check.Equal(t, tt.want, AdmitBid(in))
		})
	}
}

func TestAdmitBid_ProxyBid(t *testing.T) {
	in := AdmissionInput{
		Condition:    LotLiveAuction,
		CurrentPrice: d(5000),
		MinIncrement: d(100),
		Kind:         BidKindProxy,
		Amount:       d(5100),
		ProxyMax:     d(8000),
	}
	check.True(t, AdmitBid(in).Accepted)

	// Ceiling below the declared amount is a contradiction.
	in.ProxyMax = d(5050)
	check.Equal(t, RejectProxyMaxTooLow, AdmitBid(in).Reason)

	// Ceiling equal to the amount is allowed (degenerates to a live bid).
	in.ProxyMax = d(5100)
	check.True(t, AdmitBid(in).Accepted)
}

func TestAdmitBid_PreBid(t *testing.T) {
	in := AdmissionInput{
		Condition:    LotReadyForAuction,
		MinIncrement: d(100),
		MinPreBid:    d(4000),
		Kind:         BidKindPreBid,
		Amount:       d(4000),
	}
	check.True(t, AdmitBid(in).Accepted)

	in.Amount = d(3999)
	check.Equal(t, RejectBelowMinPreBid, AdmitBid(in).Reason)

	// Once a pre-bid leads, later pre-bids must top it by an increment.
	in.Amount = d(4500)
	in.CurrentPrice = d(4450)
	check.Equal(t, RejectBelowIncrement, AdmitBid(in).Reason)

	in.Amount = d(4550)
	check.True(t, AdmitBid(in).Accepted)

	// Pre-bids close once the lot goes live.
	in.Condition = LotLiveAuction
	check.Equal(t, RejectLotNotBiddable, AdmitBid(in).Reason)
}

func TestAdmitBid_AutoGeneratedNeverAdmitted(t *testing.T) {
	in := AdmissionInput{
		Condition:    LotLiveAuction,
		CurrentPrice: d(5000),
		MinIncrement: d(100),
		Kind:         BidKindAutoGenerated,
		Amount:       d(5100),
	}
	check.Equal(t, RejectInvalidKind, AdmitBid(in).Reason)
}

func TestMeetsReserve(t *testing.T) {
	check.True(t, MeetsReserve(d(10000), d(10000)))
	check.True(t, MeetsReserve(d(10500), d(10000)))
	check.False(t, MeetsReserve(d(9500), d(10000)))
	// Unset reserve always passes.
	check.True(t, MeetsReserve(d(1), decimal.Zero))
}

func TestNextAsk(t *testing.T) {
	check.True(t, NextAsk(d(5000), d(100)).Equal(d(5100)))
}
