package worker

import (
	"context"
	"fmt"
	"log/slog"

	"chitfund/internal/amqp"
	"chitfund/internal/sheets"
	"chitfund/internal/storage"
)

// SyncWorker copies recorded payments from SQLite to the external statement
// ledger (Google Sheets).
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.StatementWriter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer sheets.StatementWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single payment sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.PaymentSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	statement, err := w.storage.GetPaymentStatement(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get payment statement: %w", err)
	}

	// A stale version means the payment was updated after this message was
	// published; the newer message will carry the current state.
	if msg.Version < statement.Version {
		slog.InfoContext(ctx, "Skipping stale sync message",
			"id", msg.ID,
			"message_version", msg.Version,
			"current_version", statement.Version)
		return nil
	}

	if err := w.syncStatement(ctx, statement); err != nil {
		return fmt.Errorf("sync payment to ledger: %w", err)
	}
	return nil
}

// ProcessPendingPayments syncs payments that have no sync mark yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingPayments(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncPayments(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending payments: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending payments", "count", len(pending))

	for _, p := range pending {
		statement, err := w.storage.GetPaymentStatement(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load payment statement", "id", p.ID, "error", err)
			if err := w.storage.MarkPaymentSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}
		if err := w.syncStatement(ctx, statement); err != nil {
			slog.ErrorContext(ctx, "Failed to sync payment", "id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog at worker startup. Useful to
// recover from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncPayments(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending payments for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending payments found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending payments on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		statement, err := w.storage.GetPaymentStatement(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load payment statement for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkPaymentSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}
		if err := w.syncStatement(ctx, statement); err != nil {
			slog.ErrorContext(ctx, "Failed to sync payment during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) syncStatement(ctx context.Context, st storage.PaymentStatement) error {
	ref, err := w.writer.Append(ctx, st)
	if err != nil {
		if markErr := w.storage.MarkPaymentSyncError(ctx, st.Payment.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"id", st.Payment.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.storage.MarkPaymentSynced(ctx, st.Payment.ID); err != nil {
		// The row was written; do not fail the message over the bookkeeping
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", st.Payment.ID, "error", err)
	}

	slog.InfoContext(ctx, "Payment synced",
		"id", st.Payment.ID,
		"ledger_ref", ref,
		"chit", st.ChitName,
		"member", st.MemberName,
		"amount", st.Payment.Amount)
	return nil
}
