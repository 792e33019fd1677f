// Package worker mirrors transactions stored in SQLite to the remote ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/ledger"
	"smartspend/internal/storage"
)

// SyncStore is the part of the SQLite repository the worker needs.
type SyncStore interface {
	GetTransaction(ctx context.Context, id int64) (*storage.StoredTransaction, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	ClaimForSync(ctx context.Context, id int64) (bool, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

var _ SyncStore = (*storage.SQLiteRepository)(nil)

// SyncWorker pushes locally stored transactions to a remote TransactionWriter.
type SyncWorker struct {
	store     SyncStore
	remote    ledger.TransactionWriter
	batchSize int
}

func NewSyncWorker(store SyncStore, remote ledger.TransactionWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{store: store, remote: remote, batchSize: batchSize}
}

// HandleSyncMessage processes one sync message. Already synced rows are
// acknowledged without a second remote write; a missing row is dropped. A row
// claimed by a concurrent sweep is left to it.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"kind", msg.Kind,
		"version", msg.Version,
		"event_id", msg.EventID)

	st, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction vanished before sync, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if st.SyncStatus == storage.SyncSynced {
		slog.InfoContext(ctx, "Transaction already synced", "id", msg.ID)
		return nil
	}
	if st.Kind != msg.Kind {
		slog.WarnContext(ctx, "Sync message kind differs from stored row, using stored kind",
			"id", msg.ID, "message_kind", msg.Kind, "stored_kind", st.Kind)
	}
	_, err = w.sync(ctx, st)
	return err
}

// ProcessPending re-drives up to one batch of rows still waiting for sync.
// It returns how many were synced.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.store.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	synced := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		st, err := w.store.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", p.ID, "error", err)
			if err := w.store.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}
		ok, err := w.sync(ctx, st)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			continue
		}
		if ok {
			synced++
		}
	}
	return synced, nil
}

// sync claims the row and mirrors it. It reports false without error when
// the row could not be claimed.
func (w *SyncWorker) sync(ctx context.Context, st *storage.StoredTransaction) (bool, error) {
	claimed, err := w.store.ClaimForSync(ctx, st.ID)
	if err != nil {
		return false, err
	}
	if !claimed {
		slog.InfoContext(ctx, "Transaction not claimable, skipping",
			"id", st.ID,
			"sync_status", st.SyncStatus,
			"sync_attempts", st.SyncAttempts)
		return false, nil
	}

	ref, err := w.remote.Submit(ctx, st.Kind, st.Transaction)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, st.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", st.ID, "error", markErr)
		}
		return false, fmt.Errorf("submit to remote ledger: %w", err)
	}

	// the remote write succeeded; a failed status update only means a
	// possible duplicate on the next sweep
	if err := w.store.MarkSynced(ctx, st.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", st.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", st.ID,
		"kind", st.Kind,
		"remote_ref", ref,
		"amount", st.Transaction.Amount)
	return true, nil
}
