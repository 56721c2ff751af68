package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"chitfund/internal/core"
	"chitfund/internal/storage"
)

// ReportService builds the read-side views: monthly collection breakdowns,
// payout history, and per-member slot listings.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// MemberMonthly is one member's standing for a month of a chit.
type MemberMonthly struct {
	MemberID       int64          `json:"member_id"`
	MemberName     string         `json:"member_name"`
	PhoneNumber    string         `json:"phone_number"`
	ExpectedAmount int64          `json:"expected_amount"`
	AmountPaid     int64          `json:"amount_paid"`
	Status         string         `json:"status"`
	Payments       []core.Payment `json:"payments"`
}

// MonthBreakdown is the full collection picture of one month of a chit.
type MonthBreakdown struct {
	Month                int64           `json:"month"`
	MonthDate            string          `json:"month_date"`
	ChitID               int64           `json:"chit_id"`
	ChitName             string          `json:"chit_name"`
	Size                 int64           `json:"size"`
	TotalExpected        int64           `json:"total_expected"`
	TotalCollected       int64           `json:"total_collected"`
	CollectionPercentage float64         `json:"collection_percentage"`
	Members              []MemberMonthly `json:"members"`
}

var statusOrder = map[string]int{"Unpaid": 0, "Partial": 1, "Paid": 2}

// MonthlyReport reports every slot-holding member's expected contribution,
// paid total, and settle status for one month, slowest payers first.
func (s *ReportService) MonthlyReport(ctx context.Context, chitID, month int64) (MonthBreakdown, error) {
	chit, err := s.storage.GetChit(ctx, chitID)
	if err != nil {
		return MonthBreakdown{}, err
	}
	monthSlot, err := s.storage.GetSlotByMonth(ctx, chitID, month)
	if err != nil {
		return MonthBreakdown{}, err
	}
	slots, err := s.storage.ListSlots(ctx, chitID)
	if err != nil {
		return MonthBreakdown{}, err
	}
	payments, err := s.storage.ListPaymentsByMonth(ctx, chitID, month)
	if err != nil {
		return MonthBreakdown{}, err
	}

	collectionsByMember := map[int64][]core.Payment{}
	for _, p := range payments {
		if p.Type != core.Collection {
			continue
		}
		collectionsByMember[p.MemberID] = append(collectionsByMember[p.MemberID], p)
	}

	breakdown := MonthBreakdown{
		Month:     month,
		MonthDate: core.MonthDate(chit.StartDate, month).Format("01/2006"),
		ChitID:    chit.ID,
		ChitName:  chit.Name,
		Size:      chit.Size,
	}

	for _, slot := range slots {
		if slot.MemberID == nil {
			continue
		}
		member, err := s.storage.GetMember(ctx, *slot.MemberID)
		if err != nil {
			return MonthBreakdown{}, err
		}
		payoutDate, err := s.storage.MemberPayoutDate(ctx, chitID, member.ID)
		if err != nil {
			return MonthBreakdown{}, err
		}

		expected := core.MemberExpected(chit, monthSlot, payoutDate)
		memberPayments := collectionsByMember[member.ID]
		var paid int64
		for _, p := range memberPayments {
			paid += p.Amount
		}
		if memberPayments == nil {
			memberPayments = []core.Payment{}
		}

		breakdown.Members = append(breakdown.Members, MemberMonthly{
			MemberID:       member.ID,
			MemberName:     member.FullName,
			PhoneNumber:    member.PhoneNumber,
			ExpectedAmount: expected,
			AmountPaid:     paid,
			Status:         core.SettleStatus(paid, expected),
			Payments:       memberPayments,
		})
		breakdown.TotalExpected += expected
		breakdown.TotalCollected += paid
	}

	sort.SliceStable(breakdown.Members, func(i, j int) bool {
		a, b := breakdown.Members[i], breakdown.Members[j]
		if statusOrder[a.Status] != statusOrder[b.Status] {
			return statusOrder[a.Status] < statusOrder[b.Status]
		}
		return a.MemberName < b.MemberName
	})

	if breakdown.TotalExpected > 0 {
		breakdown.CollectionPercentage =
			float64(breakdown.TotalCollected) / float64(breakdown.TotalExpected) * 100
	}
	if breakdown.Members == nil {
		breakdown.Members = []MemberMonthly{}
	}
	return breakdown, nil
}

// PayoutRecord is one settled or in-progress payout.
type PayoutRecord struct {
	Month      int64     `json:"month"`
	SlotID     int64     `json:"slot_id"`
	MemberID   int64     `json:"member_id"`
	MemberName string    `json:"member_name"`
	Amount     int64     `json:"amount"`
	Date       time.Time `json:"date"`
	Method     string    `json:"method"`
}

// PayoutHistory lists every payout payment of a chit in schedule order.
func (s *ReportService) PayoutHistory(ctx context.Context, chitID int64) ([]PayoutRecord, error) {
	if _, err := s.storage.GetChit(ctx, chitID); err != nil {
		return nil, err
	}
	payouts, err := s.storage.ListPayoutPayments(ctx, chitID)
	if err != nil {
		return nil, err
	}

	names := map[int64]string{}
	records := make([]PayoutRecord, 0, len(payouts))
	for _, p := range payouts {
		name, ok := names[p.MemberID]
		if !ok {
			member, err := s.storage.GetMember(ctx, p.MemberID)
			if err != nil {
				return nil, fmt.Errorf("payout member %d: %w", p.MemberID, err)
			}
			name = member.FullName
			names[p.MemberID] = name
		}
		record := PayoutRecord{
			Month:      p.Month,
			MemberID:   p.MemberID,
			MemberName: name,
			Amount:     p.Amount,
			Date:       p.Date,
			Method:     string(p.Method),
		}
		if p.SlotID != nil {
			record.SlotID = *p.SlotID
		}
		records = append(records, record)
	}
	return records, nil
}

// MemberSlot is one of a member's slot holdings with its chit context.
type MemberSlot struct {
	ChitID   int64           `json:"chit_id"`
	ChitName string          `json:"chit_name"`
	ChitType core.ChitType   `json:"chit_type"`
	Month    int64           `json:"month"`
	Status   core.SlotStatus `json:"status"`
	Payout   *int64          `json:"payout_amount"`
}

// MemberSlots lists every slot the member holds across all chits.
func (s *ReportService) MemberSlots(ctx context.Context, memberID int64) ([]MemberSlot, error) {
	if _, err := s.storage.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	slots, err := s.storage.ListMemberSlots(ctx, memberID)
	if err != nil {
		return nil, err
	}

	chits := map[int64]core.Chit{}
	holdings := make([]MemberSlot, 0, len(slots))
	for _, slot := range slots {
		chit, ok := chits[slot.ChitID]
		if !ok {
			chit, err = s.storage.GetChit(ctx, slot.ChitID)
			if err != nil {
				return nil, err
			}
			chits[slot.ChitID] = chit
		}
		holdings = append(holdings, MemberSlot{
			ChitID:   chit.ID,
			ChitName: chit.Name,
			ChitType: chit.Type,
			Month:    slot.Month,
			Status:   slot.Status,
			Payout:   slot.PayoutAmount,
		})
	}
	return holdings, nil
}
