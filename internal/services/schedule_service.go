package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chitfund/internal/core"
	"chitfund/internal/storage"
)

// buildSchedule creates one slot per month for the chit's full duration.
// Variable chits get their formulaic payout pre-populated.
func buildSchedule(ctx context.Context, q *storage.Queries, chit core.Chit) ([]core.Slot, error) {
	slots := make([]core.Slot, 0, chit.DurationMonths)
	for month := int64(1); month <= chit.DurationMonths; month++ {
		slot, err := q.CreateSlot(ctx, core.Slot{
			ChitID:       chit.ID,
			Month:        month,
			PayoutAmount: core.ScheduledPayout(chit, month),
			Status:       core.SlotScheduled,
		})
		if err != nil {
			return nil, fmt.Errorf("create slot for month %d: %w", month, err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// syncSchedule realigns the slot schedule after the chit's terms changed:
// extends for a longer duration, shrinks for a shorter one (refused if any
// dropped month is assigned, settled, or has payments), and recomputes
// derived amounts on the surviving slots.
func syncSchedule(ctx context.Context, q *storage.Queries, chit core.Chit) error {
	slots, err := q.ListSlots(ctx, chit.ID)
	if err != nil {
		return err
	}

	var maxMonth int64
	for _, s := range slots {
		if s.Month > maxMonth {
			maxMonth = s.Month
		}
	}

	if chit.DurationMonths < maxMonth {
		blocked, err := q.CountBlockedSlotsBeyond(ctx, chit.ID, chit.DurationMonths)
		if err != nil {
			return err
		}
		if blocked > 0 {
			return core.ErrScheduleShrink
		}
		if err := q.DeleteSlotsBeyond(ctx, chit.ID, chit.DurationMonths); err != nil {
			return err
		}
	}

	for month := maxMonth + 1; month <= chit.DurationMonths; month++ {
		if _, err := q.CreateSlot(ctx, core.Slot{
			ChitID:       chit.ID,
			Month:        month,
			PayoutAmount: core.ScheduledPayout(chit, month),
			Status:       core.SlotScheduled,
		}); err != nil {
			return fmt.Errorf("extend schedule to month %d: %w", month, err)
		}
	}

	return recomputeAmounts(ctx, q, chit)
}

// recomputeAmounts refreshes each slot's derived amounts from the chit's
// current terms. Variable slots that already have payments or a settled
// status are left untouched; auction slots are re-derived from their stored
// winning bid; fixed slots carry only manually entered amounts.
func recomputeAmounts(ctx context.Context, q *storage.Queries, chit core.Chit) error {
	slots, err := q.ListSlots(ctx, chit.ID)
	if err != nil {
		return err
	}

	for _, s := range slots {
		switch chit.Type {
		case core.Variable:
			if s.Status != core.SlotScheduled {
				continue
			}
			n, err := q.CountSlotPayments(ctx, s.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			s.PayoutAmount = core.ScheduledPayout(chit, s.Month)
		case core.Auction:
			if s.BidAmount == nil {
				continue
			}
			breakdown, err := core.AuctionOutcome(chit, *s.BidAmount)
			if err != nil {
				return fmt.Errorf("recompute auction month %d: %w", s.Month, err)
			}
			s.ExpectedContribution = &breakdown.NetPayablePerMember
			s.PayoutAmount = &breakdown.PayoutToWinner
		default:
			continue
		}
		if err := q.UpdateSlot(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleService manages slot assignment and schedule queries.
type ScheduleService struct {
	storage *storage.SQLiteRepository
}

func NewScheduleService(storage *storage.SQLiteRepository) *ScheduleService {
	return &ScheduleService{storage: storage}
}

func (s *ScheduleService) ListSlots(ctx context.Context, chitID int64) ([]core.Slot, error) {
	if _, err := s.storage.GetChit(ctx, chitID); err != nil {
		return nil, err
	}
	return s.storage.ListSlots(ctx, chitID)
}

func (s *ScheduleService) GetMonthSlot(ctx context.Context, chitID, month int64) (core.Slot, error) {
	if _, err := s.storage.GetChit(ctx, chitID); err != nil {
		return core.Slot{}, err
	}
	return s.storage.GetSlotByMonth(ctx, chitID, month)
}

// AssignMember gives the member the payout opportunity of the given month.
// Each slot takes one member and each member holds at most one slot per chit.
func (s *ScheduleService) AssignMember(ctx context.Context, chitID, month, memberID int64) (core.Slot, error) {
	var assigned core.Slot
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		slot, err := assignMember(ctx, q, chitID, month, memberID)
		if err != nil {
			return err
		}
		assigned = slot
		return nil
	})
	if err != nil {
		return core.Slot{}, err
	}

	slog.InfoContext(ctx, "Member assigned to slot",
		"chit_id", chitID, "month", month, "member_id", memberID)
	return assigned, nil
}

func assignMember(ctx context.Context, q *storage.Queries, chitID, month, memberID int64) (core.Slot, error) {
	if _, err := q.GetChit(ctx, chitID); err != nil {
		return core.Slot{}, err
	}
	slot, err := q.GetSlotByMonth(ctx, chitID, month)
	if err != nil {
		return core.Slot{}, err
	}
	if slot.MemberID != nil {
		return core.Slot{}, core.ErrSlotAssigned
	}
	if _, err := q.GetMember(ctx, memberID); err != nil {
		return core.Slot{}, err
	}

	if _, err := q.FindMemberSlot(ctx, chitID, memberID); err == nil {
		return core.Slot{}, fmt.Errorf("%w: member already holds a slot in this chit", core.ErrConflict)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Slot{}, err
	}

	slot.MemberID = &memberID
	if err := q.UpdateSlot(ctx, slot); err != nil {
		return core.Slot{}, err
	}
	return slot, nil
}

// UnassignMember clears the month's payout recipient. Slots with recorded
// payments stay assigned.
func (s *ScheduleService) UnassignMember(ctx context.Context, chitID, month int64) (core.Slot, error) {
	var cleared core.Slot
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		if _, err := q.GetChit(ctx, chitID); err != nil {
			return err
		}
		slot, err := q.GetSlotByMonth(ctx, chitID, month)
		if err != nil {
			return err
		}
		if slot.MemberID == nil {
			return core.ErrSlotUnassigned
		}
		n, err := q.CountSlotPayments(ctx, slot.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return core.ErrSlotHasPayments
		}

		slot.MemberID = nil
		if err := q.UpdateSlot(ctx, slot); err != nil {
			return err
		}
		cleared = slot
		return nil
	})
	if err != nil {
		return core.Slot{}, err
	}

	slog.InfoContext(ctx, "Member unassigned from slot", "chit_id", chitID, "month", month)
	return cleared, nil
}

// MonthAssignment pairs a schedule month with the member taking its slot.
type MonthAssignment struct {
	Month    int64 `json:"month"`
	MemberID int64 `json:"member_id"`
}

// BulkAssign applies a batch of assignments atomically; one failure rolls
// back the whole batch.
func (s *ScheduleService) BulkAssign(ctx context.Context, chitID int64, assignments []MonthAssignment) ([]core.Slot, error) {
	var slots []core.Slot
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		for _, a := range assignments {
			slot, err := assignMember(ctx, q, chitID, a.Month, a.MemberID)
			if err != nil {
				return fmt.Errorf("month %d: %w", a.Month, err)
			}
			slots = append(slots, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Bulk assignment applied",
		"chit_id", chitID, "count", len(assignments))
	return slots, nil
}

// RecomputeAmounts refreshes the schedule's derived amounts from the chit's
// current terms. Repeating it with unchanged terms is a no-op.
func (s *ScheduleService) RecomputeAmounts(ctx context.Context, chitID int64) error {
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		chit, err := q.GetChit(ctx, chitID)
		if err != nil {
			return err
		}
		return recomputeAmounts(ctx, q, chit)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Schedule amounts recomputed", "chit_id", chitID)
	return nil
}

// UnassignedMonths lists the schedule months still without a payout recipient.
func (s *ScheduleService) UnassignedMonths(ctx context.Context, chitID int64) ([]int64, error) {
	slots, err := s.ListSlots(ctx, chitID)
	if err != nil {
		return nil, err
	}
	months := []int64{}
	for _, slot := range slots {
		if slot.MemberID == nil {
			months = append(months, slot.Month)
		}
	}
	return months, nil
}
