// Package adapters exposes the SQLite + AMQP backend through the ledger ports.
package adapters

import (
	"context"

	"smartspend/internal/core"
	"smartspend/internal/ledger"
	"smartspend/internal/services"
	"smartspend/internal/storage"
)

var (
	_ ledger.TransactionWriter = (*SQLiteAdapter)(nil)
	_ ledger.TransactionSource = (*SQLiteAdapter)(nil)
	_ ledger.UserRegistrar     = (*SQLiteAdapter)(nil)
)

// SQLiteAdapter reads straight from SQLite and writes through
// TransactionService so every new row is announced to the sync worker.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.TransactionService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.TransactionService) *SQLiteAdapter {
	return &SQLiteAdapter{storage: storage, service: service}
}

func (a *SQLiteAdapter) Submit(ctx context.Context, kind core.Kind, tx core.Transaction) (string, error) {
	return a.service.Record(ctx, kind, tx)
}

func (a *SQLiteAdapter) ListTransactions(ctx context.Context, kind core.Kind) ([]core.Transaction, error) {
	return a.storage.ListTransactions(ctx, kind)
}

func (a *SQLiteAdapter) RegisterUser(ctx context.Context, u core.User) (string, error) {
	if err := a.storage.CreateUser(ctx, u); err != nil {
		return "", err
	}
	return "user:" + u.ID, nil
}

// Ping reports whether the database is reachable.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}
