// Package backend builds the ledger implementation selected by configuration.
package backend

import (
	"context"

	"smartspend/internal/ledger"
)

// Backend is everything the HTTP server needs from persistence.
type Backend interface {
	ledger.TransactionWriter
	ledger.TransactionSource
	ledger.UserRegistrar
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult is a backend plus its lifecycle hooks. Ready and Cleanup
// may be nil.
type BackendResult struct {
	Backend Backend
	Ready   ReadyFunc
	Cleanup CleanupFunc
}

// Factory creates backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateSyncTarget builds the remote ledger the worker mirrors to.
	CreateSyncTarget(ctx context.Context, target BackendType, config Config) (ledger.TransactionWriter, CleanupFunc, error)
}

type BackendType string

const (
	MemoryBackend    BackendType = "memory"
	SQLiteBackend    BackendType = "sqlite"
	SheetsBackend    BackendType = "sheets"
	FirestoreBackend BackendType = "firestore"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, SheetsBackend, FirestoreBackend:
		return true
	}
	return false
}

// composite assembles a Backend from separate port implementations.
type composite struct {
	ledger.TransactionWriter
	ledger.TransactionSource
	ledger.UserRegistrar
}
