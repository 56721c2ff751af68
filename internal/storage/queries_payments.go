package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chitfund/internal/core"
)

const paymentColumns = `id, chit_id, member_id, slot_id, month, amount,
	payment_date, method, payment_type, notes, created_at, updated_at`

func scanPayment(row rowScanner) (core.Payment, error) {
	var p core.Payment
	var slotID sql.NullInt64
	var date, method, paymentType, createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.ChitID, &p.MemberID, &slotID, &p.Month, &p.Amount,
		&date, &method, &paymentType, &p.Notes, &createdAt, &updatedAt)
	if err != nil {
		return core.Payment{}, wrapErr(err)
	}
	p.SlotID = intPtr(slotID)
	p.Date = parseDate(date)
	p.Method = core.PaymentMethod(method)
	p.Type = core.PaymentType(paymentType)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (q *Queries) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO payments (chit_id, member_id, slot_id, month, amount,
			payment_date, method, payment_type, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ChitID, p.MemberID, nullInt(p.SlotID), p.Month, p.Amount,
		formatDate(p.Date), string(p.Method), string(p.Type), p.Notes,
		formatTime(now), formatTime(now))
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", wrapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (q *Queries) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	return scanPayment(row)
}

func (q *Queries) listPayments(ctx context.Context, query string, args ...any) ([]core.Payment, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (q *Queries) ListPayments(ctx context.Context, chitID int64) ([]core.Payment, error) {
	return q.listPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE chit_id = ? ORDER BY payment_date, id`,
		chitID)
}

func (q *Queries) ListPaymentsByMonth(ctx context.Context, chitID, month int64) ([]core.Payment, error) {
	return q.listPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE chit_id = ? AND month = ? ORDER BY payment_date, id`,
		chitID, month)
}

func (q *Queries) ListPayoutPayments(ctx context.Context, chitID int64) ([]core.Payment, error) {
	return q.listPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE chit_id = ? AND payment_type = 'payout' ORDER BY month, payment_date, id`,
		chitID)
}

// UpdatePayment rewrites the mutable payment fields and re-queues the row for
// statement sync by bumping its version.
func (q *Queries) UpdatePayment(ctx context.Context, p core.Payment) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE payments SET member_id = ?, slot_id = ?, month = ?, amount = ?,
			payment_date = ?, method = ?, payment_type = ?, notes = ?,
			updated_at = ?, version = version + 1, synced_at = NULL, sync_error = 0
		WHERE id = ?`,
		p.MemberID, nullInt(p.SlotID), p.Month, p.Amount,
		formatDate(p.Date), string(p.Method), string(p.Type), p.Notes,
		formatTime(time.Now()), p.ID)
	if err != nil {
		return fmt.Errorf("update payment: %w", wrapErr(err))
	}
	return requireRow(res)
}

func (q *Queries) DeletePayment(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", wrapErr(err))
	}
	return requireRow(res)
}

// SumCollections totals a member's collection payments for one month of a
// chit, excluding one payment ID (pass 0 to exclude nothing). The exclusion
// lets updates re-check the overpayment guard against the other payments only.
func (q *Queries) SumCollections(ctx context.Context, chitID, memberID, month, excludeID int64) (int64, error) {
	var sum int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE chit_id = ? AND member_id = ? AND month = ?
		  AND payment_type = 'collection' AND id != ?`,
		chitID, memberID, month, excludeID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum collections: %w", err)
	}
	return sum, nil
}

// SumSlotPayouts totals the payout payments recorded against a slot,
// excluding one payment ID (pass 0 to exclude nothing).
func (q *Queries) SumSlotPayouts(ctx context.Context, slotID, excludeID int64) (int64, error) {
	var sum int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE slot_id = ? AND payment_type = 'payout' AND id != ?`,
		slotID, excludeID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum slot payouts: %w", err)
	}
	return sum, nil
}

func (q *Queries) CountSlotPayments(ctx context.Context, slotID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE slot_id = ?`, slotID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count slot payments: %w", err)
	}
	return n, nil
}

// MemberPayoutDate is the date the member received their payout in the chit,
// nil if they have not been paid out yet.
func (q *Queries) MemberPayoutDate(ctx context.Context, chitID, memberID int64) (*time.Time, error) {
	var date sql.NullString
	err := q.db.QueryRowContext(ctx, `
		SELECT MIN(payment_date) FROM payments
		WHERE chit_id = ? AND member_id = ? AND payment_type = 'payout'`,
		chitID, memberID).Scan(&date)
	if err != nil {
		return nil, fmt.Errorf("member payout date: %w", err)
	}
	if !date.Valid {
		return nil, nil
	}
	t := parseDate(date.String)
	return &t, nil
}

// PendingSyncPayment is the minimal row identity carried on the sync queue.
type PendingSyncPayment struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func (q *Queries) GetPendingSyncPayments(ctx context.Context, limit int) ([]PendingSyncPayment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, version, created_at FROM payments
		WHERE synced_at IS NULL AND sync_error = 0
		ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync payments: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncPayment
	for rows.Next() {
		var p PendingSyncPayment
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Version, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (q *Queries) MarkPaymentSynced(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE payments SET synced_at = ?, sync_error = 0 WHERE id = ?`,
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark payment synced: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) MarkPaymentSyncError(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE payments SET sync_error = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark payment sync error: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) GetPaymentVersion(ctx context.Context, id int64) (int64, error) {
	var v int64
	err := q.db.QueryRowContext(ctx,
		`SELECT version FROM payments WHERE id = ?`, id).Scan(&v)
	if err != nil {
		return 0, wrapErr(err)
	}
	return v, nil
}

// PaymentStatement is a payment joined with the display names the statement
// sheet needs.
type PaymentStatement struct {
	Payment    core.Payment
	ChitName   string
	MemberName string
	Version    int64
}

func (q *Queries) GetPaymentStatement(ctx context.Context, id int64) (PaymentStatement, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT p.id, p.chit_id, p.member_id, p.slot_id, p.month, p.amount,
			p.payment_date, p.method, p.payment_type, p.notes, p.created_at, p.updated_at,
			p.version, c.name, m.full_name
		FROM payments p
		JOIN chits c ON c.id = p.chit_id
		JOIN members m ON m.id = p.member_id
		WHERE p.id = ?`, id)

	var st PaymentStatement
	var slotID sql.NullInt64
	var date, method, paymentType, createdAt, updatedAt string
	err := row.Scan(&st.Payment.ID, &st.Payment.ChitID, &st.Payment.MemberID,
		&slotID, &st.Payment.Month, &st.Payment.Amount,
		&date, &method, &paymentType, &st.Payment.Notes, &createdAt, &updatedAt,
		&st.Version, &st.ChitName, &st.MemberName)
	if err != nil {
		return PaymentStatement{}, wrapErr(err)
	}
	st.Payment.SlotID = intPtr(slotID)
	st.Payment.Date = parseDate(date)
	st.Payment.Method = core.PaymentMethod(method)
	st.Payment.Type = core.PaymentType(paymentType)
	st.Payment.CreatedAt = parseTime(createdAt)
	st.Payment.UpdatedAt = parseTime(updatedAt)
	return st, nil
}
