package http

import (
	"fmt"
	"time"

	"chitfund/internal/core"
	"chitfund/internal/services"
)

const dateLayout = "2006-01-02"

type chitRequest struct {
	Name                *string `json:"name"`
	ChitValue           *int64  `json:"chit_value"`
	Size                *int64  `json:"size"`
	DurationMonths      *int64  `json:"duration_months"`
	StartDate           *string `json:"start_date"`
	CollectionDay       *int64  `json:"collection_day"`
	PayoutDay           *int64  `json:"payout_day"`
	Type                *string `json:"chit_type"`
	BaseContribution    *int64  `json:"base_contribution"`
	PremiumContribution *int64  `json:"premium_contribution"`
	PremiumPercent      *int64  `json:"premium_percent"`
	CommissionPercent   *int64  `json:"commission_percent"`
	Notes               *string `json:"notes"`
}

func (req chitRequest) toChit() (core.Chit, error) {
	var c core.Chit
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.ChitValue != nil {
		c.ChitValue = *req.ChitValue
	}
	if req.Size != nil {
		c.Size = *req.Size
	}
	if req.DurationMonths != nil {
		c.DurationMonths = *req.DurationMonths
	}
	if req.StartDate != nil {
		start, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return core.Chit{}, fmt.Errorf("invalid start_date: %w", err)
		}
		c.StartDate = start
	}
	if req.CollectionDay != nil {
		c.CollectionDay = *req.CollectionDay
	}
	if req.PayoutDay != nil {
		c.PayoutDay = *req.PayoutDay
	}
	if req.Type != nil {
		c.Type = core.ChitType(*req.Type)
	}
	if req.BaseContribution != nil {
		c.BaseContribution = *req.BaseContribution
	}
	if req.PremiumContribution != nil {
		c.PremiumContribution = *req.PremiumContribution
	}
	if req.PremiumPercent != nil {
		c.PremiumPercent = *req.PremiumPercent
	}
	if req.CommissionPercent != nil {
		c.CommissionPercent = *req.CommissionPercent
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}
	return c, nil
}

func (req chitRequest) toPatch() (services.ChitPatch, error) {
	patch := services.ChitPatch{
		Name:                req.Name,
		ChitValue:           req.ChitValue,
		Size:                req.Size,
		DurationMonths:      req.DurationMonths,
		CollectionDay:       req.CollectionDay,
		PayoutDay:           req.PayoutDay,
		BaseContribution:    req.BaseContribution,
		PremiumContribution: req.PremiumContribution,
		PremiumPercent:      req.PremiumPercent,
		CommissionPercent:   req.CommissionPercent,
		Notes:               req.Notes,
	}
	if req.StartDate != nil {
		start, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return services.ChitPatch{}, fmt.Errorf("invalid start_date: %w", err)
		}
		patch.StartDate = &start
	}
	return patch, nil
}

type chitResponse struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	ChitValue           int64  `json:"chit_value"`
	Size                int64  `json:"size"`
	DurationMonths      int64  `json:"duration_months"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	CollectionDay       int64  `json:"collection_day"`
	PayoutDay           int64  `json:"payout_day"`
	Type                string `json:"chit_type"`
	BaseContribution    int64  `json:"base_contribution"`
	PremiumContribution int64  `json:"premium_contribution"`
	PremiumPercent      int64  `json:"premium_percent"`
	CommissionPercent   int64  `json:"commission_percent"`
	Notes               string `json:"notes"`
	Status              string `json:"status,omitempty"`
	CurrentMonth        int64  `json:"current_month,omitempty"`
}

func toChitResponse(c core.Chit) chitResponse {
	return chitResponse{
		ID:                  c.ID,
		Name:                c.Name,
		ChitValue:           c.ChitValue,
		Size:                c.Size,
		DurationMonths:      c.DurationMonths,
		StartDate:           c.StartDate.Format(dateLayout),
		EndDate:             c.EndDate.Format(dateLayout),
		CollectionDay:       c.CollectionDay,
		PayoutDay:           c.PayoutDay,
		Type:                string(c.Type),
		BaseContribution:    c.BaseContribution,
		PremiumContribution: c.PremiumContribution,
		PremiumPercent:      c.PremiumPercent,
		CommissionPercent:   c.CommissionPercent,
		Notes:               c.Notes,
	}
}

func toChitSummaryResponse(s services.ChitSummary) chitResponse {
	resp := toChitResponse(s.Chit)
	resp.Status = s.Status
	resp.CurrentMonth = s.CurrentMonth
	return resp
}

type slotResponse struct {
	ID                   int64  `json:"id"`
	ChitID               int64  `json:"chit_id"`
	Month                int64  `json:"month"`
	PayoutAmount         *int64 `json:"payout_amount"`
	BidAmount            *int64 `json:"bid_amount"`
	ExpectedContribution *int64 `json:"expected_contribution"`
	MemberID             *int64 `json:"member_id"`
	Status               string `json:"status"`
}

func toSlotResponse(s core.Slot) slotResponse {
	return slotResponse{
		ID:                   s.ID,
		ChitID:               s.ChitID,
		Month:                s.Month,
		PayoutAmount:         s.PayoutAmount,
		BidAmount:            s.BidAmount,
		ExpectedContribution: s.ExpectedContribution,
		MemberID:             s.MemberID,
		Status:               string(s.Status),
	}
}

func toSlotResponses(slots []core.Slot) []slotResponse {
	out := make([]slotResponse, len(slots))
	for i, s := range slots {
		out[i] = toSlotResponse(s)
	}
	return out
}

type memberRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Notes       *string `json:"notes"`
}

type memberResponse struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Notes       string `json:"notes"`
}

func toMemberResponse(m core.Member) memberResponse {
	return memberResponse{
		ID:          m.ID,
		FullName:    m.FullName,
		PhoneNumber: m.PhoneNumber,
		Notes:       m.Notes,
	}
}

type paymentRequest struct {
	ChitID   *int64  `json:"chit_id"`
	MemberID *int64  `json:"member_id"`
	SlotID   *int64  `json:"slot_id"`
	Month    *int64  `json:"month"`
	Amount   *int64  `json:"amount"`
	Date     *string `json:"date"`
	Method   *string `json:"method"`
	Type     *string `json:"payment_type"`
	Notes    *string `json:"notes"`
}

func (req paymentRequest) toPayment() (core.Payment, error) {
	var p core.Payment
	if req.ChitID != nil {
		p.ChitID = *req.ChitID
	}
	if req.MemberID != nil {
		p.MemberID = *req.MemberID
	}
	p.SlotID = req.SlotID
	if req.Month != nil {
		p.Month = *req.Month
	}
	if req.Amount != nil {
		p.Amount = *req.Amount
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return core.Payment{}, fmt.Errorf("invalid date: %w", err)
		}
		p.Date = date
	}
	if req.Method != nil {
		p.Method = core.PaymentMethod(*req.Method)
	}
	if req.Type != nil {
		p.Type = core.PaymentType(*req.Type)
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	return p, nil
}

func (req paymentRequest) toPatch() (services.PaymentPatch, error) {
	patch := services.PaymentPatch{
		Amount: req.Amount,
		Notes:  req.Notes,
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return services.PaymentPatch{}, fmt.Errorf("invalid date: %w", err)
		}
		patch.Date = &date
	}
	if req.Method != nil {
		method := core.PaymentMethod(*req.Method)
		patch.Method = &method
	}
	return patch, nil
}

type paymentResponse struct {
	ID       int64  `json:"id"`
	ChitID   int64  `json:"chit_id"`
	MemberID int64  `json:"member_id"`
	SlotID   *int64 `json:"slot_id"`
	Month    int64  `json:"month"`
	Amount   int64  `json:"amount"`
	Date     string `json:"date"`
	Method   string `json:"method"`
	Type     string `json:"payment_type"`
	Notes    string `json:"notes"`
}

func toPaymentResponse(p core.Payment) paymentResponse {
	return paymentResponse{
		ID:       p.ID,
		ChitID:   p.ChitID,
		MemberID: p.MemberID,
		SlotID:   p.SlotID,
		Month:    p.Month,
		Amount:   p.Amount,
		Date:     p.Date.Format(dateLayout),
		Method:   string(p.Method),
		Type:     string(p.Type),
		Notes:    p.Notes,
	}
}

func toPaymentResponses(payments []core.Payment) []paymentResponse {
	out := make([]paymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	return out
}

type auctionRequest struct {
	Month     int64 `json:"month"`
	BidAmount int64 `json:"bid_amount"`
	MemberID  int64 `json:"member_id"`
}

type auctionResponse struct {
	Slot      slotResponse          `json:"slot"`
	Breakdown core.AuctionBreakdown `json:"breakdown"`
}

type assignRequest struct {
	MemberID int64 `json:"member_id"`
}

type bulkAssignRequest struct {
	Assignments []services.MonthAssignment `json:"assignments"`
}
