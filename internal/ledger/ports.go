// Package ledger defines the ports through which transactions and users
// reach external stores, plus a caching decorator for remote sources.
package ledger

import (
	"context"

	"smartspend/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter is the narrow submit boundary to a persistence backend.
	TransactionWriter interface {
		Submit(ctx context.Context, kind core.Kind, tx core.Transaction) (ref string, err error)
	}

	// TransactionSource supplies the raw transactions of one kind.
	TransactionSource interface {
		ListTransactions(ctx context.Context, kind core.Kind) ([]core.Transaction, error)
	}

	// UserRegistrar persists a newly registered user. A taken email must be
	// reported as core.ErrEmailTaken.
	UserRegistrar interface {
		RegisterUser(ctx context.Context, u core.User) (ref string, err error)
	}
)
