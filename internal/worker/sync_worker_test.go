package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chitfund/internal/amqp"
	"chitfund/internal/core"
	"chitfund/internal/sheets/memory"
	"chitfund/internal/storage"
)

func testSetup(t *testing.T) (*storage.SQLiteRepository, *memory.Store, *SyncWorker) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	store := memory.New()
	return repo, store, NewSyncWorker(repo, store, 10)
}

func seedPayment(t *testing.T, repo *storage.SQLiteRepository) core.Payment {
	t.Helper()
	ctx := context.Background()

	chit, err := repo.CreateChit(ctx, core.Chit{
		Name:             "Family Gold",
		ChitValue:        100000,
		Size:             10,
		DurationMonths:   10,
		StartDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC),
		CollectionDay:    5,
		PayoutDay:        15,
		Type:             core.Fixed,
		BaseContribution: 10000,
	})
	if err != nil {
		t.Fatalf("CreateChit: %v", err)
	}
	member, err := repo.CreateMember(ctx, core.Member{
		FullName:    "Asha",
		PhoneNumber: "9876500001",
	})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	payment, err := repo.CreatePayment(ctx, core.Payment{
		ChitID:   chit.ID,
		MemberID: member.ID,
		Month:    1,
		Amount:   10000,
		Date:     time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Method:   core.MethodCash,
		Type:     core.Collection,
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	return payment
}

func TestHandleSyncMessage(t *testing.T) {
	repo, store, w := testSetup(t)
	ctx := context.Background()
	payment := seedPayment(t, repo)

	msg := &amqp.PaymentSyncMessage{ID: payment.ID, Version: 1}
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(items))
	}
	if items[0].ChitName != "Family Gold" || items[0].MemberName != "Asha" {
		t.Errorf("statement = %+v", items[0])
	}

	pending, err := repo.GetPendingSyncPayments(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncPayments: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func TestHandleSyncMessageSkipsStaleVersion(t *testing.T) {
	repo, store, w := testSetup(t)
	ctx := context.Background()
	payment := seedPayment(t, repo)

	msg := &amqp.PaymentSyncMessage{ID: payment.ID, Version: 0}
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Error("stale message should not be written to the ledger")
	}
}

func TestProcessPendingPayments(t *testing.T) {
	repo, store, w := testSetup(t)
	ctx := context.Background()
	seedPayment(t, repo)

	if err := w.ProcessPendingPayments(ctx); err != nil {
		t.Fatalf("ProcessPendingPayments: %v", err)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(store.Items()))
	}

	// Everything synced: a second pass is a no-op
	if err := w.ProcessPendingPayments(ctx); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(store.Items()) != 1 {
		t.Errorf("ledger rows = %d after no-op pass", len(store.Items()))
	}
}

func TestSyncFailureMarksErrorAndStopsRetrying(t *testing.T) {
	repo, store, w := testSetup(t)
	ctx := context.Background()
	payment := seedPayment(t, repo)

	store.FailNext = true
	if err := w.ProcessPendingPayments(ctx); err != nil {
		t.Fatalf("ProcessPendingPayments: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatal("failed append should not land in the ledger")
	}

	// sync_error rows are excluded from the pending scan
	pending, err := repo.GetPendingSyncPayments(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncPayments: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0 after sync error", len(pending))
	}

	// A direct message still retries the payment
	msg := &amqp.PaymentSyncMessage{ID: payment.ID, Version: 1}
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("retry via message: %v", err)
	}
	if len(store.Items()) != 1 {
		t.Errorf("ledger rows = %d after retry", len(store.Items()))
	}
}

func TestStartupSyncCheck(t *testing.T) {
	repo, store, w := testSetup(t)
	ctx := context.Background()
	seedPayment(t, repo)

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(store.Items()))
	}
}
