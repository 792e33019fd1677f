package services

import (
	"context"
	"fmt"
	"log/slog"

	"smartspend/internal/core"
	"smartspend/internal/ledger"
	"smartspend/internal/storage"

	"github.com/hashicorp/go-multierror"
)

// TransactionStore is the local persistence used by TransactionService.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, kind core.Kind, tx core.Transaction) (int64, error)
	Close() error
}

// SyncPublisher announces freshly stored transactions to the sync worker.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id int64, kind core.Kind, version int64) error
	Close() error
}

var _ ledger.TransactionWriter = (*TransactionService)(nil)

// TransactionService saves transactions locally and asks the worker to
// mirror them to the remote ledger.
type TransactionService struct {
	store     TransactionStore
	publisher SyncPublisher
}

// NewTransactionService wires the service. publisher may be nil, in which
// case rows stay pending until the worker's periodic sweep picks them up.
func NewTransactionService(store TransactionStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// Record validates and stores tx, then publishes a sync message. A publish
// failure is logged and does not fail the call: the row is already saved.
func (s *TransactionService) Record(ctx context.Context, kind core.Kind, tx core.Transaction) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	id, err := s.store.CreateTransaction(ctx, kind, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "id", id)
	} else if err := s.publisher.PublishTransactionSync(ctx, id, kind, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "kind", kind, "error", err)
	}
	return storage.Ref(id), nil
}

// Submit implements ledger.TransactionWriter.
func (s *TransactionService) Submit(ctx context.Context, kind core.Kind, tx core.Transaction) (string, error) {
	return s.Record(ctx, kind, tx)
}

// Close closes the store and the publisher.
func (s *TransactionService) Close() error {
	var result *multierror.Error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("amqp: %w", err))
		}
	}
	return result.ErrorOrNil()
}
