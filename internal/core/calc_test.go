package core

import (
	"errors"
	"testing"
	"time"
)

func variableChit() Chit {
	return Chit{
		ChitValue:           100000,
		Size:                10,
		DurationMonths:      10,
		StartDate:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:                Variable,
		BaseContribution:    10000,
		PremiumContribution: 12000,
		PremiumPercent:      5,
		CommissionPercent:   2,
	}
}

func TestFixedContributionConstant(t *testing.T) {
	c := Chit{
		ChitValue:        100000,
		Size:             10,
		DurationMonths:   10,
		Type:             Fixed,
		BaseContribution: 10000,
	}
	for m := int64(1); m <= c.DurationMonths; m++ {
		contribution, payout := MonthAmounts(c, m)
		if contribution != 10000 {
			t.Fatalf("month %d: contribution = %d, want 10000", m, contribution)
		}
		if payout != 0 {
			t.Fatalf("month %d: fixed payout should not be derived, got %d", m, payout)
		}
	}
}

func TestVariableTotals(t *testing.T) {
	c := variableChit()

	tests := []struct {
		month          int64
		wantCollection int64
		wantPayout     int64
	}{
		// month 1: no winners yet, 10 members pay base 10000
		{month: 1, wantCollection: 100000, wantPayout: 98000},
		// month 3: 2 winners pay 15000 (base + 5% of value), 8 pay base
		{month: 3, wantCollection: 110000, wantPayout: 108000},
		// month 10: 9 winners, 1 waiter
		{month: 10, wantCollection: 145000, wantPayout: 143000},
	}
	for _, tt := range tests {
		collection, payout := VariableTotals(c, tt.month)
		if collection != tt.wantCollection {
			t.Errorf("month %d: collection = %d, want %d", tt.month, collection, tt.wantCollection)
		}
		if payout != tt.wantPayout {
			t.Errorf("month %d: payout = %d, want %d", tt.month, payout, tt.wantPayout)
		}
	}
}

func TestVariableWinnersWaiters(t *testing.T) {
	c := variableChit()
	for m := int64(1); m <= 12; m++ {
		winners := Winners(c, m)
		want := m - 1
		if want > c.Size {
			want = c.Size
		}
		if winners != want {
			t.Fatalf("month %d: winners = %d, want %d", m, winners, want)
		}
		if waiters := c.Size - winners; waiters+winners != c.Size {
			t.Fatalf("month %d: waiters+winners = %d, want %d", m, waiters+winners, c.Size)
		}
	}
}

func TestZeroSizeDoesNotPanic(t *testing.T) {
	c := variableChit()
	c.Size = 0

	if got := BaseShare(c); got != 0 {
		t.Fatalf("BaseShare = %d, want 0", got)
	}
	collection, payout := VariableTotals(c, 1)
	if collection != 0 || payout != 0 {
		t.Fatalf("zero-size totals = (%d, %d), want (0, 0)", collection, payout)
	}
}

func TestAuctionOutcome(t *testing.T) {
	c := Chit{
		ChitValue:         100000,
		Size:              10,
		DurationMonths:    10,
		Type:              Auction,
		CommissionPercent: 2,
	}

	got, err := AuctionOutcome(c, 12000)
	if err != nil {
		t.Fatalf("AuctionOutcome: %v", err)
	}
	want := AuctionBreakdown{
		DividendPerMember:        1000,
		NetPayablePerMember:      9000,
		TotalMonthlyCollection:   90000,
		PayoutToWinner:           88000,
		CommissionAmount:         2000,
		TotalDividendDistributed: 10000,
	}
	if got != want {
		t.Fatalf("breakdown = %+v, want %+v", got, want)
	}

	// The winner's discount and payout always reconstruct the pool value.
	if got.PayoutToWinner+12000 != c.ChitValue {
		t.Fatalf("payout + bid = %d, want %d", got.PayoutToWinner+12000, c.ChitValue)
	}
}

func TestAuctionFloorNeverOverDistributes(t *testing.T) {
	c := Chit{ChitValue: 100000, Size: 7, Type: Auction, CommissionPercent: 3}
	for _, bid := range []int64{0, 1, 999, 5000, 12345, 99999, 100000} {
		bd, err := AuctionOutcome(c, bid)
		if err != nil {
			t.Fatalf("bid %d: %v", bid, err)
		}
		distributable := bid - CommissionAmount(c)
		if distributable < 0 {
			distributable = 0
		}
		if bd.DividendPerMember*c.Size > distributable {
			t.Fatalf("bid %d: distributed %d exceeds distributable %d",
				bid, bd.DividendPerMember*c.Size, distributable)
		}
	}
}

func TestAuctionOutcomeRejections(t *testing.T) {
	tests := []struct {
		name string
		chit Chit
		bid  int64
		want error
	}{
		{"not auction", Chit{ChitValue: 100000, Size: 10, Type: Fixed}, 5000, ErrNotAuction},
		{"empty pool", Chit{ChitValue: 100000, Size: 0, Type: Auction}, 5000, ErrEmptyPool},
		{"bid above pool value", Chit{ChitValue: 100000, Size: 10, Type: Auction}, 100001, ErrBidTooHigh},
		{"negative bid", Chit{ChitValue: 100000, Size: 10, Type: Auction}, -1, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AuctionOutcome(tt.chit, tt.bid); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMemberExpectedVariable(t *testing.T) {
	c := variableChit() // starts January 2025
	slotApril := Slot{Month: 4}

	payoutInMarch := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	payoutInApril := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		payoutDate *time.Time
		want       int64
	}{
		{"no payout yet", nil, 10000},
		{"payout in an earlier month", &payoutInMarch, 12000},
		// Strictly after: the payout month itself still charges base.
		{"payout in the same month", &payoutInApril, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MemberExpected(c, slotApril, tt.payoutDate); got != tt.want {
				t.Fatalf("MemberExpected = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMemberExpectedAuction(t *testing.T) {
	c := Chit{ChitValue: 100000, Size: 10, Type: Auction, CommissionPercent: 2,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	net := int64(9000)
	withBid := Slot{Month: 2, ExpectedContribution: &net}
	if got := MemberExpected(c, withBid, nil); got != 9000 {
		t.Fatalf("post-auction expected = %d, want 9000", got)
	}

	noBid := Slot{Month: 3}
	if got := MemberExpected(c, noBid, nil); got != 10000 {
		t.Fatalf("pre-auction estimate = %d, want 10000", got)
	}
}

func TestScheduledPayout(t *testing.T) {
	v := variableChit()
	if got := ScheduledPayout(v, 1); got == nil || *got != 98000 {
		t.Fatalf("variable month 1 payout = %v, want 98000", got)
	}
	if got := ScheduledPayout(Chit{Type: Fixed}, 1); got != nil {
		t.Fatalf("fixed schedule should have no derived payout, got %d", *got)
	}
	if got := ScheduledPayout(Chit{Type: Auction}, 1); got != nil {
		t.Fatalf("auction schedule should have no derived payout, got %d", *got)
	}
}
