package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chitfund/internal/core"
)

const slotColumns = `id, chit_id, month, payout_amount, bid_amount,
	expected_contribution, member_id, status, created_at, updated_at`

func scanSlot(row rowScanner) (core.Slot, error) {
	var s core.Slot
	var payout, bid, expected, member sql.NullInt64
	var status, createdAt, updatedAt string
	err := row.Scan(&s.ID, &s.ChitID, &s.Month, &payout, &bid, &expected,
		&member, &status, &createdAt, &updatedAt)
	if err != nil {
		return core.Slot{}, wrapErr(err)
	}
	s.PayoutAmount = intPtr(payout)
	s.BidAmount = intPtr(bid)
	s.ExpectedContribution = intPtr(expected)
	s.MemberID = intPtr(member)
	s.Status = core.SlotStatus(status)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

func (q *Queries) CreateSlot(ctx context.Context, s core.Slot) (core.Slot, error) {
	now := time.Now().UTC()
	if s.Status == "" {
		s.Status = core.SlotScheduled
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO slots (chit_id, month, payout_amount, bid_amount,
			expected_contribution, member_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ChitID, s.Month, nullInt(s.PayoutAmount), nullInt(s.BidAmount),
		nullInt(s.ExpectedContribution), nullInt(s.MemberID), string(s.Status),
		formatTime(now), formatTime(now))
	if err != nil {
		return core.Slot{}, fmt.Errorf("create slot: %w", wrapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Slot{}, fmt.Errorf("create slot: %w", err)
	}
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return s, nil
}

func (q *Queries) GetSlot(ctx context.Context, id int64) (core.Slot, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = ?`, id)
	return scanSlot(row)
}

func (q *Queries) GetSlotByMonth(ctx context.Context, chitID, month int64) (core.Slot, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE chit_id = ? AND month = ?`, chitID, month)
	return scanSlot(row)
}

func (q *Queries) ListSlots(ctx context.Context, chitID int64) ([]core.Slot, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE chit_id = ? ORDER BY month`, chitID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []core.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (q *Queries) UpdateSlot(ctx context.Context, s core.Slot) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE slots SET payout_amount = ?, bid_amount = ?, expected_contribution = ?,
			member_id = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		nullInt(s.PayoutAmount), nullInt(s.BidAmount), nullInt(s.ExpectedContribution),
		nullInt(s.MemberID), string(s.Status), formatTime(time.Now()), s.ID)
	if err != nil {
		return fmt.Errorf("update slot: %w", wrapErr(err))
	}
	return requireRow(res)
}

// DeleteSlotsBeyond removes schedule months past the new duration.
func (q *Queries) DeleteSlotsBeyond(ctx context.Context, chitID, month int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM slots WHERE chit_id = ? AND month > ?`, chitID, month)
	if err != nil {
		return fmt.Errorf("delete slots beyond month %d: %w", month, wrapErr(err))
	}
	return nil
}

func (q *Queries) CountAssignedSlots(ctx context.Context, chitID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM slots WHERE chit_id = ? AND member_id IS NOT NULL`,
		chitID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count assigned slots: %w", err)
	}
	return n, nil
}

// CountBlockedSlotsBeyond counts slots past the given month that cannot be
// silently dropped: assigned, settled, or carrying payments.
func (q *Queries) CountBlockedSlotsBeyond(ctx context.Context, chitID, month int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM slots s
		WHERE s.chit_id = ? AND s.month > ?
		  AND (s.member_id IS NOT NULL
		       OR s.status != 'scheduled'
		       OR EXISTS (SELECT 1 FROM payments p WHERE p.slot_id = s.id))`,
		chitID, month).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count blocked slots: %w", err)
	}
	return n, nil
}

// FindMemberSlot returns the slot in the chit assigned to the member.
func (q *Queries) FindMemberSlot(ctx context.Context, chitID, memberID int64) (core.Slot, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE chit_id = ? AND member_id = ?`,
		chitID, memberID)
	return scanSlot(row)
}

// ListMemberSlots returns every slot assigned to the member across all chits.
func (q *Queries) ListMemberSlots(ctx context.Context, memberID int64) ([]core.Slot, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE member_id = ? ORDER BY chit_id, month`,
		memberID)
	if err != nil {
		return nil, fmt.Errorf("list member slots: %w", err)
	}
	defer rows.Close()

	var slots []core.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
