package services

import (
	"context"
	"log/slog"
	"time"

	"chitfund/internal/core"
	"chitfund/internal/storage"
)

// ChitService manages the chit lifecycle. Creating a chit also creates its
// full slot schedule; updating one resyncs the schedule to the new terms.
type ChitService struct {
	storage *storage.SQLiteRepository
}

func NewChitService(storage *storage.SQLiteRepository) *ChitService {
	return &ChitService{storage: storage}
}

// ChitSummary is a chit with its derived lifecycle state.
type ChitSummary struct {
	core.Chit
	Status       string
	CurrentMonth int64
}

func summarize(c core.Chit, now time.Time) ChitSummary {
	s := ChitSummary{Chit: c, Status: "Inactive"}
	start := core.MonthDate(c.StartDate, 1)
	if !now.Before(start) && now.Before(c.EndDate.AddDate(0, 0, 1)) {
		s.Status = "Active"
	}
	if !now.Before(start) {
		months := int64(now.Year()-start.Year())*12 + int64(now.Month()-start.Month()) + 1
		if months > c.DurationMonths {
			months = c.DurationMonths
		}
		s.CurrentMonth = months
	}
	return s
}

// CreateChit validates and persists a new chit together with its schedule,
// one slot per month, all in one transaction.
func (s *ChitService) CreateChit(ctx context.Context, c core.Chit) (core.Chit, []core.Slot, error) {
	if c.Type == core.Variable && c.BaseContribution == 0 {
		c.BaseContribution = core.BaseShare(c)
	}
	if err := c.Validate(); err != nil {
		return core.Chit{}, nil, err
	}
	c.EndDate = core.EndDate(c.StartDate, c.DurationMonths)

	var created core.Chit
	var slots []core.Slot
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		chit, err := q.CreateChit(ctx, c)
		if err != nil {
			return err
		}
		created = chit

		slots, err = buildSchedule(ctx, q, chit)
		return err
	})
	if err != nil {
		return core.Chit{}, nil, err
	}

	slog.InfoContext(ctx, "Chit created",
		"chit_id", created.ID,
		"name", created.Name,
		"type", created.Type,
		"duration_months", created.DurationMonths)
	return created, slots, nil
}

func (s *ChitService) GetChit(ctx context.Context, id int64) (ChitSummary, error) {
	c, err := s.storage.GetChit(ctx, id)
	if err != nil {
		return ChitSummary{}, err
	}
	return summarize(c, time.Now().UTC()), nil
}

func (s *ChitService) ListChits(ctx context.Context) ([]ChitSummary, error) {
	chits, err := s.storage.ListChits(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	summaries := make([]ChitSummary, len(chits))
	for i, c := range chits {
		summaries[i] = summarize(c, now)
	}
	return summaries, nil
}

// ChitPatch carries the updatable chit fields; nil means keep the current
// value.
type ChitPatch struct {
	Name                *string
	ChitValue           *int64
	Size                *int64
	DurationMonths      *int64
	StartDate           *time.Time
	CollectionDay       *int64
	PayoutDay           *int64
	BaseContribution    *int64
	PremiumContribution *int64
	PremiumPercent      *int64
	CommissionPercent   *int64
	Notes               *string
}

func (p ChitPatch) apply(c core.Chit) core.Chit {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.ChitValue != nil {
		c.ChitValue = *p.ChitValue
	}
	if p.Size != nil {
		c.Size = *p.Size
	}
	if p.DurationMonths != nil {
		c.DurationMonths = *p.DurationMonths
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.CollectionDay != nil {
		c.CollectionDay = *p.CollectionDay
	}
	if p.PayoutDay != nil {
		c.PayoutDay = *p.PayoutDay
	}
	if p.BaseContribution != nil {
		c.BaseContribution = *p.BaseContribution
	}
	if p.PremiumContribution != nil {
		c.PremiumContribution = *p.PremiumContribution
	}
	if p.PremiumPercent != nil {
		c.PremiumPercent = *p.PremiumPercent
	}
	if p.CommissionPercent != nil {
		c.CommissionPercent = *p.CommissionPercent
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	return c
}

// UpdateChit applies a partial update and resyncs the slot schedule to the
// changed terms. The chit's type is immutable.
func (s *ChitService) UpdateChit(ctx context.Context, id int64, patch ChitPatch) (core.Chit, error) {
	var updated core.Chit
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		current, err := q.GetChit(ctx, id)
		if err != nil {
			return err
		}

		c := patch.apply(current)
		if err := c.Validate(); err != nil {
			return err
		}
		c.EndDate = core.EndDate(c.StartDate, c.DurationMonths)

		if err := q.UpdateChit(ctx, c); err != nil {
			return err
		}
		if err := syncSchedule(ctx, q, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return core.Chit{}, err
	}

	slog.InfoContext(ctx, "Chit updated", "chit_id", id, "name", updated.Name)
	return updated, nil
}

// DeleteChit removes the chit and, by cascade, its slots and payments. Chits
// with assigned slots are protected.
func (s *ChitService) DeleteChit(ctx context.Context, id int64) error {
	err := s.storage.Transact(ctx, func(q *storage.Queries) error {
		if _, err := q.GetChit(ctx, id); err != nil {
			return err
		}
		assigned, err := q.CountAssignedSlots(ctx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return core.ErrSlotAssigned
		}
		return q.DeleteChit(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Chit deleted", "chit_id", id)
	return nil
}
