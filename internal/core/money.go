package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-supplied amount string to whole currency units.
//
// Amounts are integral (no fractional paise); a decimal tail is accepted for
// convenience and truncated, biasing toward the pool. Negative and zero
// amounts are rejected.
//
// Examples:
//
//	ParseAmount("10000")    -> 10000, nil
//	ParseAmount("10000.75") -> 10000, nil (truncated)
//	ParseAmount("-5")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	if intPart == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	if len(parts) == 2 {
		for _, r := range parts[1] {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidAmount
			}
		}
	}
	v, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// DeriveSlotStatus derives a slot's stored settlement status from its
// cumulative payout payments. The engine never derives Overdue. A slot whose
// payout amount is still unpriced (nil or zero) can reach Partial but never
// Paid: full settlement is only meaningful against a known payout.
func DeriveSlotStatus(paid, expected int64) SlotStatus {
	switch {
	case expected > 0 && paid >= expected:
		return SlotPaid
	case paid > 0:
		return SlotPartial
	default:
		return SlotScheduled
	}
}

// SettleStatus classifies a paid-versus-expected pair for reporting.
func SettleStatus(paid, expected int64) string {
	switch {
	case paid >= expected && paid > 0:
		return "Paid"
	case paid > 0:
		return "Partial"
	default:
		return "Unpaid"
	}
}
