package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chitfund/internal/amqp"
	"chitfund/internal/core"
	"chitfund/internal/storage"
)

// PaymentService records and adjusts payments. Every mutation re-derives the
// affected slot's settlement status in the same transaction, then queues the
// payment for statement sync.
type PaymentService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewPaymentService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *PaymentService {
	return &PaymentService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// RecordPayment validates and stores a payment.
//
// Collections require the member to hold a slot in the chit and the payment
// month to exist in the schedule; the amount may never push the member's
// monthly total past their expected contribution. Payouts go to the slot's
// assigned member and may never exceed the slot's payout amount.
func (s *PaymentService) RecordPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}

	var created core.Payment
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		chit, err := q.GetChit(ctx, p.ChitID)
		if err != nil {
			return err
		}
		if _, err := q.GetMember(ctx, p.MemberID); err != nil {
			return err
		}

		switch p.Type {
		case core.Collection:
			if err := checkCollection(ctx, q, chit, p, 0); err != nil {
				return err
			}
			created, err = q.CreatePayment(ctx, p)
			return err
		case core.Payout:
			slot, err := checkPayout(ctx, q, chit, p, 0)
			if err != nil {
				return err
			}
			p.Month = slot.Month
			created, err = q.CreatePayment(ctx, p)
			if err != nil {
				return err
			}
			return settleSlot(ctx, q, slot)
		}
		return core.ErrValidation
	})
	if err != nil {
		return core.Payment{}, err
	}

	slog.InfoContext(ctx, "Payment recorded",
		"payment_id", created.ID,
		"chit_id", created.ChitID,
		"member_id", created.MemberID,
		"type", created.Type,
		"amount", created.Amount)

	s.publishSync(ctx, created.ID, 1)
	return created, nil
}

// PaymentPatch carries the mutable payment fields; nil keeps the current
// value. Type, member, and slot are fixed at creation.
type PaymentPatch struct {
	Amount *int64
	Date   *time.Time
	Method *core.PaymentMethod
	Notes  *string
}

func (patch PaymentPatch) apply(p core.Payment) core.Payment {
	if patch.Amount != nil {
		p.Amount = *patch.Amount
	}
	if patch.Date != nil {
		p.Date = *patch.Date
	}
	if patch.Method != nil {
		p.Method = *patch.Method
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	return p
}

// UpdatePayment applies a partial update, re-running the overpayment guard
// against the other payments only so an amount change re-validates cleanly.
func (s *PaymentService) UpdatePayment(ctx context.Context, id int64, patch PaymentPatch) (core.Payment, error) {
	var updated core.Payment
	var version int64
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		existing, err := q.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		p := patch.apply(existing)
		if err := p.Validate(); err != nil {
			return err
		}
		chit, err := q.GetChit(ctx, p.ChitID)
		if err != nil {
			return err
		}

		switch p.Type {
		case core.Collection:
			if err := checkCollection(ctx, q, chit, p, p.ID); err != nil {
				return err
			}
			if err := q.UpdatePayment(ctx, p); err != nil {
				return err
			}
		case core.Payout:
			slot, err := checkPayout(ctx, q, chit, p, p.ID)
			if err != nil {
				return err
			}
			if err := q.UpdatePayment(ctx, p); err != nil {
				return err
			}
			if err := settleSlot(ctx, q, slot); err != nil {
				return err
			}
		}

		version, err = q.GetPaymentVersion(ctx, p.ID)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}

	slog.InfoContext(ctx, "Payment updated", "payment_id", id, "amount", updated.Amount)
	s.publishSync(ctx, id, version)
	return updated, nil
}

// DeletePayment removes a payment and re-derives the slot status it backed.
func (s *PaymentService) DeletePayment(ctx context.Context, id int64) error {
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		p, err := q.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if err := q.DeletePayment(ctx, id); err != nil {
			return err
		}
		if p.Type == core.Payout && p.SlotID != nil {
			slot, err := q.GetSlot(ctx, *p.SlotID)
			if err != nil {
				return err
			}
			return settleSlot(ctx, q, slot)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Payment deleted", "payment_id", id)
	return nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	return s.storage.GetPayment(ctx, id)
}

func (s *PaymentService) ListPayments(ctx context.Context, chitID int64) ([]core.Payment, error) {
	if _, err := s.storage.GetChit(ctx, chitID); err != nil {
		return nil, err
	}
	return s.storage.ListPayments(ctx, chitID)
}

// checkCollection enforces the collection guards. excludeID removes one
// payment from the overpayment sum so updates validate against the others.
func checkCollection(ctx context.Context, q *storage.Queries, chit core.Chit, p core.Payment, excludeID int64) error {
	if _, err := q.FindMemberSlot(ctx, chit.ID, p.MemberID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrMemberNotInChit
		}
		return err
	}
	monthSlot, err := q.GetSlotByMonth(ctx, chit.ID, p.Month)
	if err != nil {
		return err
	}

	payoutDate, err := q.MemberPayoutDate(ctx, chit.ID, p.MemberID)
	if err != nil {
		return err
	}
	expected := core.MemberExpected(chit, monthSlot, payoutDate)

	existing, err := q.SumCollections(ctx, chit.ID, p.MemberID, p.Month, excludeID)
	if err != nil {
		return err
	}
	if existing+p.Amount > expected {
		return fmt.Errorf("%w: %d paid + %d new exceeds %d expected",
			core.ErrOverpayment, existing, p.Amount, expected)
	}
	return nil
}

// checkPayout enforces the payout guards and returns the target slot.
func checkPayout(ctx context.Context, q *storage.Queries, chit core.Chit, p core.Payment, excludeID int64) (core.Slot, error) {
	slot, err := q.GetSlot(ctx, *p.SlotID)
	if err != nil {
		return core.Slot{}, err
	}
	if slot.ChitID != chit.ID {
		return core.Slot{}, fmt.Errorf("%w: slot belongs to another chit", core.ErrValidation)
	}
	if slot.MemberID == nil {
		return core.Slot{}, core.ErrSlotUnassigned
	}
	if *slot.MemberID != p.MemberID {
		return core.Slot{}, fmt.Errorf("%w: payment member does not match slot recipient", core.ErrValidation)
	}
	if slot.PayoutAmount != nil {
		existing, err := q.SumSlotPayouts(ctx, slot.ID, excludeID)
		if err != nil {
			return core.Slot{}, err
		}
		if existing+p.Amount > *slot.PayoutAmount {
			return core.Slot{}, fmt.Errorf("%w: %d paid + %d new exceeds %d payout",
				core.ErrOverpayment, existing, p.Amount, *slot.PayoutAmount)
		}
	}
	return slot, nil
}

// settleSlot re-derives the slot status from its payout payments.
func settleSlot(ctx context.Context, q *storage.Queries, slot core.Slot) error {
	paid, err := q.SumSlotPayouts(ctx, slot.ID, 0)
	if err != nil {
		return err
	}
	var expected int64
	if slot.PayoutAmount != nil {
		expected = *slot.PayoutAmount
	}
	status := core.DeriveSlotStatus(paid, expected)
	if status == slot.Status {
		return nil
	}
	slot.Status = status
	return q.UpdateSlot(ctx, slot)
}

func (s *PaymentService) publishSync(ctx context.Context, id, version int64) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "payment_id", id)
		return
	}
	if err := s.amqpClient.PublishPaymentSync(ctx, id, version); err != nil {
		// The payment is committed; the worker's startup scan picks it up later
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"payment_id", id, "error", err)
	}
}
