// Package core holds the chit fund domain model and the pure contribution and
// payout calculator.
//
// All money is kept in whole currency units (int64). Every division floors,
// never rounds, so rounding error always favours the pool.
package core

import "time"

// AuctionBreakdown is the dividend split returned when a winning bid is
// recorded, for confirmation and display.
type AuctionBreakdown struct {
	DividendPerMember        int64 `json:"dividend_per_member"`
	NetPayablePerMember      int64 `json:"net_payable_per_member"`
	TotalMonthlyCollection   int64 `json:"total_monthly_collection"`
	PayoutToWinner           int64 `json:"payout_to_winner"`
	CommissionAmount         int64 `json:"commission_amount"`
	TotalDividendDistributed int64 `json:"total_dividend_distributed"`
}

// BaseShare is one member's equal share of the pool. Zero-size chits yield 0
// rather than dividing by zero.
func BaseShare(c Chit) int64 {
	if c.Size == 0 {
		return 0
	}
	return c.ChitValue / c.Size
}

// CommissionAmount is the operator's fee: floor(chit_value * commission% / 100).
func CommissionAmount(c Chit) int64 {
	return c.ChitValue * c.CommissionPercent / 100
}

// PremiumAmount is the variable-chit winner surcharge: floor(chit_value * premium% / 100).
func PremiumAmount(c Chit) int64 {
	return c.ChitValue * c.PremiumPercent / 100
}

// Winners is the number of members who have already received a payout before
// the given month of a variable chit.
func Winners(c Chit, month int64) int64 {
	w := month - 1
	if w > c.Size {
		w = c.Size
	}
	if w < 0 {
		w = 0
	}
	return w
}

// VariableTotals computes a variable chit's total collection and payout for a
// month. Past winners pay base plus the premium surcharge; everyone else pays
// base. The payout is the collection net of commission, floored at zero.
func VariableTotals(c Chit, month int64) (totalCollection, payout int64) {
	if c.Size == 0 {
		return 0, 0
	}
	winners := Winners(c, month)
	waiters := c.Size - winners
	base := BaseShare(c)
	winnerPayment := base + PremiumAmount(c)

	totalCollection = waiters*base + winners*winnerPayment
	payout = totalCollection - CommissionAmount(c)
	if payout < 0 {
		payout = 0
	}
	return totalCollection, payout
}

// MonthAmounts returns the generic per-member expected contribution and the
// month's expected payout for a chit, before any member-specific adjustment.
//
// Fixed chits have a flat contribution and no derived payout (payouts are
// negotiated and entered per slot). Auction chits have no payout until a bid
// is recorded; the pre-auction contribution estimate is the base share.
func MonthAmounts(c Chit, month int64) (contribution, payout int64) {
	switch c.Type {
	case Fixed:
		return c.BaseContribution, 0
	case Variable:
		_, payout = VariableTotals(c, month)
		return BaseShare(c), payout
	case Auction:
		return BaseShare(c), 0
	}
	return 0, 0
}

// ScheduledPayout is the payout amount pre-populated on a slot at schedule
// creation time. Only variable chits have a formulaic schedule; fixed and
// auction slots stay empty until entered manually or decided by auction.
func ScheduledPayout(c Chit, month int64) *int64 {
	if c.Type != Variable {
		return nil
	}
	_, payout := VariableTotals(c, month)
	return &payout
}

// AuctionOutcome computes the dividend breakdown for a winning bid. The
// winner forfeits the bid amount; the bid, net of commission, is returned to
// the members as an equal dividend reducing that month's contribution.
func AuctionOutcome(c Chit, bid int64) (AuctionBreakdown, error) {
	if c.Type != Auction {
		return AuctionBreakdown{}, ErrNotAuction
	}
	if c.Size == 0 {
		return AuctionBreakdown{}, ErrEmptyPool
	}
	if bid < 0 {
		return AuctionBreakdown{}, ErrInvalidAmount
	}
	if bid > c.ChitValue {
		return AuctionBreakdown{}, ErrBidTooHigh
	}

	commission := CommissionAmount(c)
	distributable := bid - commission
	if distributable < 0 {
		distributable = 0
	}
	dividend := distributable / c.Size
	base := BaseShare(c)
	netPayable := base - dividend

	return AuctionBreakdown{
		DividendPerMember:        dividend,
		NetPayablePerMember:      netPayable,
		TotalMonthlyCollection:   netPayable * c.Size,
		PayoutToWinner:           c.ChitValue - bid,
		CommissionAmount:         commission,
		TotalDividendDistributed: dividend * c.Size,
	}, nil
}

// MemberExpected is the member-specific expected contribution for the month
// the slot represents.
//
// payoutDate is the date the member received their own payout in this chit,
// nil if they have not. Variable chits charge the premium installment only
// from the month strictly after the payout month.
func MemberExpected(c Chit, s Slot, payoutDate *time.Time) int64 {
	switch c.Type {
	case Fixed:
		return c.BaseContribution
	case Variable:
		if payoutDate != nil && AfterMonth(MonthDate(c.StartDate, s.Month), *payoutDate) {
			return c.PremiumContribution
		}
		return c.BaseContribution
	case Auction:
		if s.ExpectedContribution != nil {
			return *s.ExpectedContribution
		}
		return BaseShare(c)
	}
	return 0
}
