package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chitfund/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testChit(name string) core.Chit {
	return core.Chit{
		Name:             name,
		ChitValue:        100000,
		Size:             10,
		DurationMonths:   10,
		StartDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC),
		CollectionDay:    5,
		PayoutDay:        15,
		Type:             core.Fixed,
		BaseContribution: 10000,
	}
}

func TestChitRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	created, err := repo.CreateChit(ctx, testChit("Family Gold"))
	if err != nil {
		t.Fatalf("CreateChit: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	got, err := repo.GetChit(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetChit: %v", err)
	}
	if got.Name != "Family Gold" || got.ChitValue != 100000 || got.Type != core.Fixed {
		t.Fatalf("unexpected chit: %+v", got)
	}
	if !got.StartDate.Equal(created.StartDate) {
		t.Fatalf("start date round trip: %s != %s", got.StartDate, created.StartDate)
	}

	got.Notes = "gold scheme"
	if err := repo.UpdateChit(ctx, got); err != nil {
		t.Fatalf("UpdateChit: %v", err)
	}
	got, err = repo.GetChit(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetChit after update: %v", err)
	}
	if got.Notes != "gold scheme" {
		t.Fatalf("Notes = %q", got.Notes)
	}

	if err := repo.DeleteChit(ctx, created.ID); err != nil {
		t.Fatalf("DeleteChit: %v", err)
	}
	if _, err := repo.GetChit(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChitNameUniqueCaseInsensitive(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateChit(ctx, testChit("Family Gold")); err != nil {
		t.Fatalf("CreateChit: %v", err)
	}
	if _, err := repo.CreateChit(ctx, testChit("FAMILY gold")); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestSlotUniquePerMonth(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	chit, err := repo.CreateChit(ctx, testChit("Slots"))
	if err != nil {
		t.Fatalf("CreateChit: %v", err)
	}
	if _, err := repo.CreateSlot(ctx, core.Slot{ChitID: chit.ID, Month: 1}); err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if _, err := repo.CreateSlot(ctx, core.Slot{ChitID: chit.ID, Month: 1}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestDeleteChitCascadesSlots(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	chit, err := repo.CreateChit(ctx, testChit("Cascade"))
	if err != nil {
		t.Fatalf("CreateChit: %v", err)
	}
	slot, err := repo.CreateSlot(ctx, core.Slot{ChitID: chit.ID, Month: 1})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if err := repo.DeleteChit(ctx, chit.ID); err != nil {
		t.Fatalf("DeleteChit: %v", err)
	}
	if _, err := repo.GetSlot(ctx, slot.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("slot should cascade on chit delete, err = %v", err)
	}
}

func TestPaymentSums(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	chit, err := repo.CreateChit(ctx, testChit("Sums"))
	if err != nil {
		t.Fatalf("CreateChit: %v", err)
	}
	member, err := repo.CreateMember(ctx, core.Member{FullName: "Asha", PhoneNumber: "9876543210"})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	pay := func(amount int64) core.Payment {
		p, err := repo.CreatePayment(ctx, core.Payment{
			ChitID:   chit.ID,
			MemberID: member.ID,
			Month:    1,
			Amount:   amount,
			Date:     time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			Method:   core.MethodCash,
			Type:     core.Collection,
		})
		if err != nil {
			t.Fatalf("CreatePayment: %v", err)
		}
		return p
	}
	first := pay(4000)
	pay(3000)

	sum, err := repo.SumCollections(ctx, chit.ID, member.ID, 1, 0)
	if err != nil {
		t.Fatalf("SumCollections: %v", err)
	}
	if sum != 7000 {
		t.Fatalf("sum = %d, want 7000", sum)
	}

	// Excluding a payment removes it from the total
	sum, err = repo.SumCollections(ctx, chit.ID, member.ID, 1, first.ID)
	if err != nil {
		t.Fatalf("SumCollections exclude: %v", err)
	}
	if sum != 3000 {
		t.Fatalf("sum excluding first = %d, want 3000", sum)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	chit, err := repo.CreateChit(ctx, testChit("Sync"))
	if err != nil {
		t.Fatalf("CreateChit: %v", err)
	}
	member, err := repo.CreateMember(ctx, core.Member{FullName: "Ravi", PhoneNumber: "9123456789"})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	p, err := repo.CreatePayment(ctx, core.Payment{
		ChitID:   chit.ID,
		MemberID: member.ID,
		Month:    1,
		Amount:   10000,
		Date:     time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Method:   core.MethodUPI,
		Type:     core.Collection,
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	pending, err := repo.GetPendingSyncPayments(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncPayments: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != p.ID || pending[0].Version != 1 {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkPaymentSynced(ctx, p.ID); err != nil {
		t.Fatalf("MarkPaymentSynced: %v", err)
	}
	pending, err = repo.GetPendingSyncPayments(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncPayments: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending after sync, got %d", len(pending))
	}

	// An update re-queues the payment with a bumped version
	p.Amount = 12000
	if err := repo.UpdatePayment(ctx, p); err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	pending, err = repo.GetPendingSyncPayments(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncPayments: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("pending after update = %+v", pending)
	}

	st, err := repo.GetPaymentStatement(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPaymentStatement: %v", err)
	}
	if st.ChitName != "Sync" || st.MemberName != "Ravi" || st.Payment.Amount != 12000 {
		t.Fatalf("statement = %+v", st)
	}
}

func TestTransactRollsBack(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transact(ctx, func(q *Queries) error {
		if _, err := q.CreateChit(ctx, testChit("Rollback")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transact err = %v", err)
	}

	chits, err := repo.ListChits(ctx)
	if err != nil {
		t.Fatalf("ListChits: %v", err)
	}
	if len(chits) != 0 {
		t.Fatalf("expected rollback, found %d chits", len(chits))
	}
}

func TestMemberPhoneUnique(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateMember(ctx, core.Member{FullName: "Asha", PhoneNumber: "9876543210"}); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if _, err := repo.CreateMember(ctx, core.Member{FullName: "Ravi", PhoneNumber: "9876543210"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}
