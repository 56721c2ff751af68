package storage

import (
	"context"
	"fmt"
	"time"

	"chitfund/internal/core"
)

func scanMember(row rowScanner) (core.Member, error) {
	var m core.Member
	var createdAt, updatedAt string
	err := row.Scan(&m.ID, &m.FullName, &m.PhoneNumber, &m.Notes, &createdAt, &updatedAt)
	if err != nil {
		return core.Member{}, wrapErr(err)
	}
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return m, nil
}

func (q *Queries) CreateMember(ctx context.Context, m core.Member) (core.Member, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO members (full_name, phone_number, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.FullName, m.PhoneNumber, m.Notes, formatTime(now), formatTime(now))
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", wrapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}
	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return m, nil
}

func (q *Queries) GetMember(ctx context.Context, id int64) (core.Member, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, full_name, phone_number, notes, created_at, updated_at
		FROM members WHERE id = ?`, id)
	return scanMember(row)
}

func (q *Queries) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, full_name, phone_number, notes, created_at, updated_at
		FROM members ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SearchMembers matches the query against name and phone number,
// case-insensitively.
func (q *Queries) SearchMembers(ctx context.Context, query string) ([]core.Member, error) {
	pattern := "%" + query + "%"
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, full_name, phone_number, notes, created_at, updated_at
		FROM members
		WHERE full_name LIKE ? COLLATE NOCASE OR phone_number LIKE ?
		ORDER BY full_name`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (q *Queries) UpdateMember(ctx context.Context, m core.Member) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE members SET full_name = ?, phone_number = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		m.FullName, m.PhoneNumber, m.Notes, formatTime(time.Now()), m.ID)
	if err != nil {
		return fmt.Errorf("update member: %w", wrapErr(err))
	}
	return requireRow(res)
}

func (q *Queries) DeleteMember(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", wrapErr(err))
	}
	return requireRow(res)
}

// CountMemberSlots reports how many slots across all chits are assigned to the
// member. Members with assignments cannot be deleted.
func (q *Queries) CountMemberSlots(ctx context.Context, memberID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM slots WHERE member_id = ?`, memberID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count member slots: %w", err)
	}
	return n, nil
}
