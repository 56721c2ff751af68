package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chitfund/internal/core"
	"chitfund/internal/storage"
)

// AuctionService records winning bids on auction chit slots and derives the
// month's dividend split.
type AuctionService struct {
	storage *storage.SQLiteRepository
}

func NewAuctionService(storage *storage.SQLiteRepository) *AuctionService {
	return &AuctionService{storage: storage}
}

// PreviewAuction computes the dividend breakdown for a bid without writing
// anything, for display before the auction closes.
func (s *AuctionService) PreviewAuction(ctx context.Context, chitID, bid int64) (core.AuctionBreakdown, error) {
	chit, err := s.storage.GetChit(ctx, chitID)
	if err != nil {
		return core.AuctionBreakdown{}, err
	}
	return core.AuctionOutcome(chit, bid)
}

// RecordAuction stores the month's winning bid and winner on its slot and
// stamps the derived amounts: the winner's payout and every member's net
// contribution. Re-recording a bid for the same winner overwrites the
// previous outcome; a slot already held by a different member is a conflict.
func (s *AuctionService) RecordAuction(ctx context.Context, chitID, month, bid, memberID int64) (core.Slot, core.AuctionBreakdown, error) {
	var slot core.Slot
	var breakdown core.AuctionBreakdown
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		chit, err := q.GetChit(ctx, chitID)
		if err != nil {
			return err
		}
		breakdown, err = core.AuctionOutcome(chit, bid)
		if err != nil {
			return err
		}
		if _, err := q.GetMember(ctx, memberID); err != nil {
			return err
		}

		slot, err = q.GetSlotByMonth(ctx, chitID, month)
		if err != nil {
			return err
		}
		if slot.MemberID == nil {
			if _, err := q.FindMemberSlot(ctx, chitID, memberID); err == nil {
				return fmt.Errorf("%w: member already holds a slot in this chit", core.ErrConflict)
			} else if !errors.Is(err, core.ErrNotFound) {
				return err
			}
			slot.MemberID = &memberID
		} else if *slot.MemberID != memberID {
			return core.ErrSlotAssigned
		}

		slot.BidAmount = &bid
		slot.ExpectedContribution = &breakdown.NetPayablePerMember
		slot.PayoutAmount = &breakdown.PayoutToWinner
		if err := q.UpdateSlot(ctx, slot); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return core.Slot{}, core.AuctionBreakdown{}, err
	}

	slog.InfoContext(ctx, "Auction recorded",
		"chit_id", chitID,
		"month", month,
		"member_id", memberID,
		"bid_amount", bid,
		"payout_to_winner", breakdown.PayoutToWinner,
		"dividend_per_member", breakdown.DividendPerMember)
	return slot, breakdown, nil
}
