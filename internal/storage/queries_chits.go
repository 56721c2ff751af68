package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chitfund/internal/core"
)

const chitColumns = `id, name, chit_value, size, duration_months, start_date, end_date,
	collection_day, payout_day, chit_type, base_contribution, premium_contribution,
	premium_percent, commission_percent, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChit(row rowScanner) (core.Chit, error) {
	var c core.Chit
	var chitType, startDate, endDate, createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.Name, &c.ChitValue, &c.Size, &c.DurationMonths,
		&startDate, &endDate, &c.CollectionDay, &c.PayoutDay, &chitType,
		&c.BaseContribution, &c.PremiumContribution, &c.PremiumPercent,
		&c.CommissionPercent, &c.Notes, &createdAt, &updatedAt)
	if err != nil {
		return core.Chit{}, wrapErr(err)
	}
	c.Type = core.ChitType(chitType)
	c.StartDate = parseDate(startDate)
	c.EndDate = parseDate(endDate)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

func (q *Queries) CreateChit(ctx context.Context, c core.Chit) (core.Chit, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO chits (name, chit_value, size, duration_months, start_date, end_date,
			collection_day, payout_day, chit_type, base_contribution, premium_contribution,
			premium_percent, commission_percent, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.ChitValue, c.Size, c.DurationMonths,
		formatDate(c.StartDate), formatDate(c.EndDate),
		c.CollectionDay, c.PayoutDay, string(c.Type),
		c.BaseContribution, c.PremiumContribution,
		c.PremiumPercent, c.CommissionPercent, c.Notes,
		formatTime(now), formatTime(now))
	if err != nil {
		return core.Chit{}, fmt.Errorf("create chit: %w", wrapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Chit{}, fmt.Errorf("create chit: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (q *Queries) GetChit(ctx context.Context, id int64) (core.Chit, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+chitColumns+` FROM chits WHERE id = ?`, id)
	return scanChit(row)
}

func (q *Queries) ListChits(ctx context.Context) ([]core.Chit, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+chitColumns+` FROM chits ORDER BY start_date, name`)
	if err != nil {
		return nil, fmt.Errorf("list chits: %w", err)
	}
	defer rows.Close()

	var chits []core.Chit
	for rows.Next() {
		c, err := scanChit(rows)
		if err != nil {
			return nil, err
		}
		chits = append(chits, c)
	}
	return chits, rows.Err()
}

func (q *Queries) UpdateChit(ctx context.Context, c core.Chit) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE chits SET name = ?, chit_value = ?, size = ?, duration_months = ?,
			start_date = ?, end_date = ?, collection_day = ?, payout_day = ?,
			chit_type = ?, base_contribution = ?, premium_contribution = ?,
			premium_percent = ?, commission_percent = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.ChitValue, c.Size, c.DurationMonths,
		formatDate(c.StartDate), formatDate(c.EndDate),
		c.CollectionDay, c.PayoutDay, string(c.Type),
		c.BaseContribution, c.PremiumContribution,
		c.PremiumPercent, c.CommissionPercent, c.Notes,
		formatTime(time.Now()), c.ID)
	if err != nil {
		return fmt.Errorf("update chit: %w", wrapErr(err))
	}
	return requireRow(res)
}

func (q *Queries) DeleteChit(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM chits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chit: %w", wrapErr(err))
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
