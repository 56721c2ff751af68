package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Fixed    ChitType = "fixed"
	Variable ChitType = "variable"
	Auction  ChitType = "auction"
)

const (
	SlotScheduled SlotStatus = "scheduled"
	SlotPartial   SlotStatus = "partial"
	SlotPaid      SlotStatus = "paid"
	// SlotOverdue is a valid stored value but the engine never transitions a
	// slot into it; an external scheduler may set it.
	SlotOverdue SlotStatus = "overdue"
)

const (
	Collection PaymentType = "collection"
	Payout     PaymentType = "payout"
)

const (
	MethodCash         PaymentMethod = "cash"
	MethodUPI          PaymentMethod = "upi"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodOther        PaymentMethod = "other"
)

type (
	ChitType      string
	SlotStatus    string
	PaymentType   string
	PaymentMethod string

	// Chit is one rotating-savings pool: a fixed set of members contributing
	// monthly for DurationMonths, with one payout opportunity per month.
	Chit struct {
		ID             int64
		Name           string
		ChitValue      int64 // total pool value, whole currency units
		Size           int64 // member count; equals DurationMonths for variable chits
		DurationMonths int64
		StartDate      time.Time
		EndDate        time.Time // derived: last day of the month DurationMonths-1 after StartDate
		CollectionDay  int64     // day of month dues are collected
		PayoutDay      int64     // day of month the winner is paid; strictly after CollectionDay

		Type                ChitType
		BaseContribution    int64
		PremiumContribution int64 // variable: installment after a member's payout
		PremiumPercent      int64 // variable: winner surcharge, percent of chit value
		CommissionPercent   int64 // variable/auction: operator fee, percent of chit value

		Notes     string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Slot is the per-month record of a chit: that month's payout opportunity,
	// auction outcome, and settlement status. Unique per (chit, month).
	Slot struct {
		ID           int64
		ChitID       int64
		Month        int64 // 1..DurationMonths
		PayoutAmount *int64
		BidAmount    *int64 // auction chits only
		// ExpectedContribution is the per-member due for this month. Only
		// auction chits store it (it varies with the winning bid); fixed and
		// variable chits derive it from the chit terms.
		ExpectedContribution *int64
		MemberID             *int64 // payout recipient; nil until assigned
		Status               SlotStatus
		CreatedAt            time.Time
		UpdatedAt            time.Time
	}

	// Payment is a single money movement: a member's monthly contribution into
	// the pool (collection) or the pool paying a slot's winner (payout).
	Payment struct {
		ID        int64
		ChitID    int64
		MemberID  int64
		SlotID    *int64 // set for payout payments, nil for collections
		Month     int64  // contribution month; redundant copy of the slot month for collections
		Amount    int64
		Date      time.Time
		Method    PaymentMethod
		Type      PaymentType
		Notes     string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Member struct {
		ID          int64
		FullName    string
		PhoneNumber string
		Notes       string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

// Error taxonomy. NotFound and Conflict surface directly; validation errors
// are rejected before any write. All are scoped to a single operation.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	ErrEmptyName        = errors.New("empty name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidDays      = errors.New("collection day must be before payout day")
	ErrDurationMismatch = errors.New("variable chit duration must equal size")
	ErrBidTooHigh       = errors.New("bid amount cannot exceed chit value")
	ErrNotAuction       = errors.New("chit is not an auction chit")
	ErrEmptyPool        = errors.New("chit has no members")
	ErrOverpayment      = errors.New("payment exceeds due amount")
	ErrSlotAssigned     = errors.New("slot is already assigned to a member")
	ErrSlotUnassigned   = errors.New("slot has no assigned member")
	ErrSlotHasPayments  = errors.New("slot has recorded payments")
	ErrMemberNotInChit  = errors.New("member has no slot in this chit")
	ErrScheduleShrink   = errors.New("cannot shrink schedule through assigned or paid months")
)

func (t ChitType) Valid() bool {
	switch t {
	case Fixed, Variable, Auction:
		return true
	}
	return false
}

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotScheduled, SlotPartial, SlotPaid, SlotOverdue:
		return true
	}
	return false
}

func (t PaymentType) Valid() bool {
	return t == Collection || t == Payout
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodBankTransfer, MethodCheque, MethodOther:
		return true
	}
	return false
}

func (c Chit) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 50 {
		return errors.New("name too long (max 50 characters)")
	}
	if !c.Type.Valid() {
		return errors.New("invalid chit type")
	}
	if c.ChitValue < 0 || c.Size < 0 || c.DurationMonths < 1 {
		return ErrInvalidAmount
	}
	if c.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if c.CollectionDay < 1 || c.CollectionDay > 31 || c.PayoutDay < 1 || c.PayoutDay > 31 {
		return errors.New("invalid day of month")
	}
	if c.CollectionDay >= c.PayoutDay {
		return ErrInvalidDays
	}
	if c.Type == Variable && c.DurationMonths != c.Size {
		return ErrDurationMismatch
	}
	return nil
}

func (p Payment) Validate() error {
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.Month < 1 {
		return ErrInvalidMonth
	}
	if p.Date.IsZero() {
		return errors.New("payment date cannot be zero")
	}
	if !p.Method.Valid() {
		return errors.New("invalid payment method")
	}
	if !p.Type.Valid() {
		return errors.New("invalid payment type")
	}
	if p.Type == Payout && p.SlotID == nil {
		return errors.New("payout payments must reference a slot")
	}
	if p.Type == Collection && p.SlotID != nil {
		return errors.New("collection payments must not reference a slot")
	}
	return nil
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.FullName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(m.PhoneNumber) == "" {
		return errors.New("empty phone number")
	}
	if len(m.PhoneNumber) > 15 {
		return errors.New("phone number too long (max 15 characters)")
	}
	return nil
}

// EndDate returns the last calendar day of the month DurationMonths-1 months
// after start.
func EndDate(start time.Time, durationMonths int64) time.Time {
	firstOfStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfStart.AddDate(0, int(durationMonths), -1)
}

// MonthDate maps a 1-based chit month number to the first day of its calendar
// month relative to the chit's start date.
func MonthDate(start time.Time, month int64) time.Time {
	return time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, int(month-1), 0)
}

// AfterMonth reports whether a falls in a strictly later calendar (year, month)
// than b. Variable chits switch a member to the premium installment from the
// month after their payout, never the payout month itself.
func AfterMonth(a, b time.Time) bool {
	if a.Year() != b.Year() {
		return a.Year() > b.Year()
	}
	return a.Month() > b.Month()
}
