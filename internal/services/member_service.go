package services

import (
	"context"
	"log/slog"

	"chitfund/internal/core"
	"chitfund/internal/storage"
)

// MemberService manages the member directory.
type MemberService struct {
	storage *storage.SQLiteRepository
}

func NewMemberService(storage *storage.SQLiteRepository) *MemberService {
	return &MemberService{storage: storage}
}

func (s *MemberService) CreateMember(ctx context.Context, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	created, err := s.storage.CreateMember(ctx, m)
	if err != nil {
		return core.Member{}, err
	}

	slog.InfoContext(ctx, "Member created", "member_id", created.ID, "name", created.FullName)
	return created, nil
}

func (s *MemberService) GetMember(ctx context.Context, id int64) (core.Member, error) {
	return s.storage.GetMember(ctx, id)
}

func (s *MemberService) ListMembers(ctx context.Context) ([]core.Member, error) {
	return s.storage.ListMembers(ctx)
}

// SearchMembers filters the directory by name or phone number fragment.
func (s *MemberService) SearchMembers(ctx context.Context, query string) ([]core.Member, error) {
	return s.storage.SearchMembers(ctx, query)
}

func (s *MemberService) UpdateMember(ctx context.Context, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	if err := s.storage.UpdateMember(ctx, m); err != nil {
		return core.Member{}, err
	}
	return s.storage.GetMember(ctx, m.ID)
}

// DeleteMember removes a member. Members still holding a slot in any chit are
// protected.
func (s *MemberService) DeleteMember(ctx context.Context, id int64) error {
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		if _, err := q.GetMember(ctx, id); err != nil {
			return err
		}
		n, err := q.CountMemberSlots(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return core.ErrSlotAssigned
		}
		return q.DeleteMember(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Member deleted", "member_id", id)
	return nil
}
